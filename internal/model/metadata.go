package model

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	defaultInputName  = "images"
	defaultOutputName = "output0"
)

// LoadMetadata reads and validates the model metadata file.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if metadata.InputName == "" {
		metadata.InputName = defaultInputName
	}
	if metadata.OutputName == "" {
		metadata.OutputName = defaultOutputName
	}

	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

func (m Metadata) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("no classes listed")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive, got %d", m.ImageSize)
	}
	if len(m.InputShape) != 4 {
		return fmt.Errorf("input_shape must have 4 dims, got %v", m.InputShape)
	}
	size := int64(m.ImageSize)
	if m.InputShape[0] != 1 || m.InputShape[1] != 3 || m.InputShape[2] != size || m.InputShape[3] != size {
		return fmt.Errorf("input_shape %v does not match [1 3 %d %d]", m.InputShape, size, size)
	}
	if len(m.OutputShape) != 3 {
		return fmt.Errorf("output_shape must have 3 dims, got %v", m.OutputShape)
	}
	if m.OutputShape[0] != 1 || m.OutputShape[1] != int64(4+len(m.Classes)) || m.OutputShape[2] <= 0 {
		return fmt.Errorf("output_shape %v does not match [1 %d N] for %d classes",
			m.OutputShape, 4+len(m.Classes), len(m.Classes))
	}
	return nil
}
