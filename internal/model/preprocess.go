package model

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// padColor is the letterbox fill the detector was trained with.
var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Letterbox records how an image was fitted onto the square model input so
// boxes can be mapped back.
type Letterbox struct {
	Scale  float32
	PadX   float32
	PadY   float32
	Width  int
	Height int
}

// Unmap converts a box from model input coordinates to original image
// pixels, clamped to the image bounds.
func (l Letterbox) Unmap(b Box) Box {
	out := Box{
		X1: (b.X1 - l.PadX) / l.Scale,
		Y1: (b.Y1 - l.PadY) / l.Scale,
		X2: (b.X2 - l.PadX) / l.Scale,
		Y2: (b.Y2 - l.PadY) / l.Scale,
	}
	out.X1 = clamp(out.X1, 0, float32(l.Width))
	out.X2 = clamp(out.X2, 0, float32(l.Width))
	out.Y1 = clamp(out.Y1, 0, float32(l.Height))
	out.Y2 = clamp(out.Y2, 0, float32(l.Height))
	return out
}

// Preprocess letterboxes img onto a size×size canvas and returns the CHW
// float32 tensor data with RGB values scaled to [0,1].
func Preprocess(img image.Image, size int) ([]float32, Letterbox) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	scale := float32(size) / float32(width)
	if s := float32(size) / float32(height); s < scale {
		scale = s
	}
	newW := max(1, int(float32(width)*scale+0.5))
	newH := max(1, int(float32(height)*scale+0.5))
	padX := (size - newW) / 2
	padY := (size - newH) / 2

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: padColor}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(padX, padY, padX+newW, padY+newH), resized, resized.Bounds().Min, draw.Src)

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			offset := canvas.PixOffset(x, y)
			idx := y*size + x
			data[idx] = float32(canvas.Pix[offset]) / 255.0
			data[plane+idx] = float32(canvas.Pix[offset+1]) / 255.0
			data[2*plane+idx] = float32(canvas.Pix[offset+2]) / 255.0
		}
	}

	return data, Letterbox{
		Scale:  scale,
		PadX:   float32(padX),
		PadY:   float32(padY),
		Width:  width,
		Height: height,
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
