package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMetadata(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	return path
}

func TestLoadMetadata_Valid(t *testing.T) {
	path := writeMetadata(t, `{
		"input_shape": [1, 3, 640, 640],
		"output_shape": [1, 6, 8400],
		"classes": ["Nasi Putih", "Tahu Goreng"],
		"image_size": 640
	}`)

	metadata, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if metadata.InputName != "images" || metadata.OutputName != "output0" {
		t.Errorf("default tensor names not applied: %q %q", metadata.InputName, metadata.OutputName)
	}
	if metadata.Anchors() != 8400 {
		t.Errorf("Anchors() = %d, expected 8400", metadata.Anchors())
	}
}

func TestLoadMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed", `{`, "failed to parse metadata"},
		{"no classes", `{"input_shape":[1,3,640,640],"output_shape":[1,4,8400],"classes":[],"image_size":640}`, "no classes"},
		{"size mismatch", `{"input_shape":[1,3,320,320],"output_shape":[1,5,8400],"classes":["a"],"image_size":640}`, "input_shape"},
		{"class count mismatch", `{"input_shape":[1,3,640,640],"output_shape":[1,15,8400],"classes":["a"],"image_size":640}`, "output_shape"},
		{"bad image size", `{"input_shape":[1,3,640,640],"output_shape":[1,5,8400],"classes":["a"],"image_size":0}`, "image_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMetadata(writeMetadata(t, tt.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMetadata_MissingFile(t *testing.T) {
	if _, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMetadata_BundledFile(t *testing.T) {
	metadata, err := LoadMetadata(filepath.Join("..", "..", "models", "model_metadata.json"))
	if err != nil {
		t.Fatalf("bundled metadata is invalid: %v", err)
	}
	if len(metadata.Classes) != 11 {
		t.Errorf("expected 11 classes, got %d", len(metadata.Classes))
	}
}
