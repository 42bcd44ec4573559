// Package archive keeps a copy of uploaded images in Cloud Storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// Archiver stores an uploaded image and returns where it can be fetched.
type Archiver interface {
	Archive(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// GCS writes uploads to a single bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a storage client using application default credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Archive(ctx context.Context, name, contentType string, data []byte) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	return PublicURL(g.bucket, name), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName places an upload under uploads/ keyed by prediction id, keeping
// the original file extension.
func ObjectName(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("uploads", id+ext)
}

func PublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}
