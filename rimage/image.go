// Package rimage holds float RGB images, float depth maps and the pixel operations used to
// prepare an observed image for pose refinement.
package rimage

import (
	"image"
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/inerf/utils"
)

// FloatImage is an RGB image with every channel a float in [0, 1]. Pixels are stored row-major.
type FloatImage struct {
	width, height int
	data          []r3.Vector
}

// NewFloatImage returns a black image of the given size.
func NewFloatImage(width, height int) *FloatImage {
	return &FloatImage{width: width, height: height, data: make([]r3.Vector, width*height)}
}

// NewFloatImageFromImage normalizes an 8-bit image to [0, 1]. The result always starts at (0, 0).
func NewFloatImageFromImage(img image.Image) *FloatImage {
	b := img.Bounds()
	out := NewFloatImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetXY(x, y, r3.Vector{X: float64(c.R) / 255, Y: float64(c.G) / 255, Z: float64(c.B) / 255})
		}
	}
	return out
}

// NewFloatImageFromData wraps row-major pixel data.
func NewFloatImageFromData(width, height int, data []r3.Vector) (*FloatImage, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("image of size (%d, %d) needs %d pixels, got %d", width, height, width*height, len(data))
	}
	return &FloatImage{width: width, height: height, data: data}, nil
}

// Width returns the width in pixels.
func (i *FloatImage) Width() int {
	return i.width
}

// Height returns the height in pixels.
func (i *FloatImage) Height() int {
	return i.height
}

// Bounds returns the image rectangle.
func (i *FloatImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// In reports whether (x, y) lies inside the image.
func (i *FloatImage) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

func (i *FloatImage) kxy(x, y int) int {
	return (y * i.width) + x
}

// GetXY returns the color at (x, y).
func (i *FloatImage) GetXY(x, y int) r3.Vector {
	return i.data[i.kxy(x, y)]
}

// Get returns the color at p.
func (i *FloatImage) Get(p image.Point) r3.Vector {
	return i.GetXY(p.X, p.Y)
}

// SetXY sets the color at (x, y).
func (i *FloatImage) SetXY(x, y int, c r3.Vector) {
	i.data[i.kxy(x, y)] = c
}

// Gather returns the colors at the given pixels, in order.
func (i *FloatImage) Gather(pts []image.Point) []r3.Vector {
	out := make([]r3.Vector, len(pts))
	for k, p := range pts {
		out[k] = i.Get(p)
	}
	return out
}

// Clone returns a deep copy.
func (i *FloatImage) Clone() *FloatImage {
	data := make([]r3.Vector, len(i.data))
	copy(data, i.data)
	return &FloatImage{width: i.width, height: i.height, data: data}
}

// Map returns a new image with f applied to every channel of every pixel.
func (i *FloatImage) Map(f func(float64) float64) *FloatImage {
	out := NewFloatImage(i.width, i.height)
	for k, c := range i.data {
		out.data[k] = r3.Vector{X: f(c.X), Y: f(c.Y), Z: f(c.Z)}
	}
	return out
}

// Channels returns the pixel data flattened to [r, g, b, r, g, b, ...].
func (i *FloatImage) Channels() []float64 {
	out := make([]float64, 0, 3*len(i.data))
	for _, c := range i.data {
		out = append(out, c.X, c.Y, c.Z)
	}
	return out
}

// NewFloatImageFromChannels is the inverse of Channels.
func NewFloatImageFromChannels(width, height int, channels []float64) (*FloatImage, error) {
	if len(channels) != 3*width*height {
		return nil, errors.Errorf("image of size (%d, %d) needs %d channel values, got %d",
			width, height, 3*width*height, len(channels))
	}
	data := make([]r3.Vector, width*height)
	for k := range data {
		data[k] = r3.Vector{X: channels[3*k], Y: channels[3*k+1], Z: channels[3*k+2]}
	}
	return NewFloatImageFromData(width, height, data)
}

// ToNRGBA rescales the image to 8 bits. Channels are clipped to [0, 1] and truncated, not rounded.
func (i *FloatImage) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(i.Bounds())
	to8 := func(v float64) uint8 {
		return uint8(utils.Clamp(v, 0, 1) * 255)
	}
	for y := 0; y < i.height; y++ {
		for x := 0; x < i.width; x++ {
			c := i.GetXY(x, y)
			out.SetNRGBA(x, y, color.NRGBA{R: to8(c.X), G: to8(c.Y), B: to8(c.Z), A: 255})
		}
	}
	return out
}
