package model

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Server runs the detection model. The session binds fixed input and output
// tensors, so Detect calls are serialised.
type Server struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	options      Options
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewServer initialises onnxruntime and loads the model once. libPath may be
// empty to use the runtime's default shared library lookup.
func NewServer(modelPath, metadataPath, libPath string, opts Options) (*Server, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:      session,
		Metadata:     metadata,
		options:      opts,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Classes lists the labels the model can emit, indexed by class id.
func (s *Server) Classes() []string {
	return s.Metadata.Classes
}

// Detect runs the model on img and returns the surviving detections sorted by
// confidence.
func (s *Server) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	inputData, lb := Preprocess(img, s.Metadata.ImageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(s.inputTensor.GetData(), inputData)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	candidates := DecodeOutput(s.outputTensor.GetData(), s.Metadata.Classes,
		s.Metadata.Anchors(), s.options.ConfidenceThreshold, lb)
	return NonMaxSuppression(candidates, s.options.IoUThreshold, s.options.MaxDetections), nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
