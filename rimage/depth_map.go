package rimage

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// DepthMap is a row-major grid of float depths, in scene units along the optical axis.
type DepthMap struct {
	width  int
	height int

	data []float64
}

// NewEmptyDepthMap returns a depth map of zeros.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{width: width, height: height, data: make([]float64, width*height)}
}

// NewDepthMapFromData wraps row-major depth data.
func NewDepthMapFromData(width, height int, data []float64) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth map size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth map of size (%d, %d) needs %d values, got %d", width, height, width*height, len(data))
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// HasData reports whether the depth map holds any values.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.data != nil
}

// Width returns the width in pixels.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height in pixels.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the depth map rectangle.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// GetDepth returns the depth at (x, y).
func (dm *DepthMap) GetDepth(x, y int) float64 {
	return dm.data[(y*dm.width)+x]
}

// Get returns the depth at p.
func (dm *DepthMap) Get(p image.Point) float64 {
	return dm.GetDepth(p.X, p.Y)
}

// Set sets the depth at (x, y).
func (dm *DepthMap) Set(x, y int, val float64) {
	dm.data[(y*dm.width)+x] = val
}

// Gather returns the depths at the given pixels, in order.
func (dm *DepthMap) Gather(pts []image.Point) []float64 {
	out := make([]float64, len(pts))
	for k, p := range pts {
		out[k] = dm.Get(p)
	}
	return out
}

// MinMax returns the smallest and largest depth.
func (dm *DepthMap) MinMax() (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range dm.data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// ToPrettyPicture colors the depth map by hue, near in orange and far in blue. Pixels with zero
// depth are left black.
func (dm *DepthMap) ToPrettyPicture() image.Image {
	min, max := dm.MinMax()
	span := max - min
	img := image.NewRGBA(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			z := dm.GetDepth(x, y)
			if z == 0 {
				continue
			}
			ratio := 0.
			if span > 0 {
				ratio = (z - min) / span
			}
			img.Set(x, y, colorful.Hsv(30+200*ratio, 1, 1).Clamped())
		}
	}
	return img
}
