package model

// Metadata describes the exported detection model. The output tensor uses the
// YOLOv8 layout [1, 4+len(Classes), N]: box rows first, then one score row
// per class.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
}

// Anchors is the number of candidate boxes the model emits.
func (m Metadata) Anchors() int {
	return int(m.OutputShape[2])
}

// Box is an axis-aligned rectangle in original image pixels.
type Box struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

func (b Box) area() float32 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

type Detection struct {
	ClassID    int
	Label      string
	Confidence float32
	Box        Box
}

// Options tune detection filtering.
type Options struct {
	ConfidenceThreshold float32
	IoUThreshold        float32
	MaxDetections       int
}

// DefaultOptions matches the thresholds the model was validated with.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.4,
		IoUThreshold:        0.7,
		MaxDetections:       300,
	}
}
