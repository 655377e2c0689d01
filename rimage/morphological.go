package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// Mask is a binary image stored row-major.
type Mask struct {
	width, height int
	data          []bool
}

// NewMask returns an all-false mask.
func NewMask(width, height int) *Mask {
	return &Mask{width: width, height: height, data: make([]bool, width*height)}
}

// NewMaskFromPoints returns a mask that is true exactly at pts. Points outside the mask are an
// error.
func NewMaskFromPoints(width, height int, pts []image.Point) (*Mask, error) {
	m := NewMask(width, height)
	for _, p := range pts {
		if !m.In(p) {
			return nil, errors.Errorf("point %v outside of %dx%d mask", p, width, height)
		}
		m.Set(p, true)
	}
	return m, nil
}

// Width returns the width in pixels.
func (m *Mask) Width() int {
	return m.width
}

// Height returns the height in pixels.
func (m *Mask) Height() int {
	return m.height
}

// In reports whether p lies inside the mask.
func (m *Mask) In(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.width && p.Y < m.height
}

// Get returns the mask value at p.
func (m *Mask) Get(p image.Point) bool {
	return m.data[p.Y*m.width+p.X]
}

// Set sets the mask value at p.
func (m *Mask) Set(p image.Point, v bool) {
	m.data[p.Y*m.width+p.X] = v
}

// Count returns the number of true pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Points returns the true pixels in row-major order.
func (m *Mask) Points() []image.Point {
	pts := make([]image.Point, 0, m.Count())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.data[y*m.width+x] {
				pts = append(pts, image.Point{x, y})
			}
		}
	}
	return pts
}

// squareReach returns how far a square structuring element of the given size, anchored at its
// center, spreads a single pixel towards lower and higher coordinates in one dilation.
func squareReach(kernelSize int) (lower, upper int) {
	anchor := kernelSize / 2
	return kernelSize - 1 - anchor, anchor
}

// DilateSquare dilates the mask with a kernelSize x kernelSize square of ones, iterations times.
// Pixels outside the mask never contribute.
func DilateSquare(m *Mask, kernelSize, iterations int) (*Mask, error) {
	if kernelSize < 1 {
		return nil, errors.Errorf("kernel size must be positive, got %d", kernelSize)
	}
	if iterations < 0 {
		return nil, errors.Errorf("dilation iterations must not be negative, got %d", iterations)
	}
	lower, upper := squareReach(kernelSize)
	out := &Mask{width: m.width, height: m.height, data: append([]bool(nil), m.data...)}
	tmp := NewMask(m.width, m.height)
	for it := 0; it < iterations; it++ {
		// the square is separable: spread along rows, then along columns
		for y := 0; y < m.height; y++ {
			for x := 0; x < m.width; x++ {
				tmp.data[y*m.width+x] = anyInRange(out, x, y, lower, upper, true)
			}
		}
		for y := 0; y < m.height; y++ {
			for x := 0; x < m.width; x++ {
				out.data[y*m.width+x] = anyInRange(tmp, x, y, lower, upper, false)
			}
		}
	}
	return out, nil
}

// anyInRange reports whether any source pixel that a kernel anchored at (x, y) reaches is set.
// A source pixel s spreads to [s-lower, s+upper], so (x, y) is reached from [x-upper, x+lower].
func anyInRange(m *Mask, x, y, lower, upper int, horizontal bool) bool {
	if horizontal {
		for sx := max(0, x-upper); sx <= min(m.width-1, x+lower); sx++ {
			if m.data[y*m.width+sx] {
				return true
			}
		}
		return false
	}
	for sy := max(0, y-upper); sy <= min(m.height-1, y+lower); sy++ {
		if m.data[sy*m.width+x] {
			return true
		}
	}
	return false
}

// SquareNeighborhood returns the pixels a single point at p grows into after dilating with a
// kernelSize square iterations times, clipped to bounds.
func SquareNeighborhood(p image.Point, kernelSize, iterations int, bounds image.Rectangle) image.Rectangle {
	lower, upper := squareReach(kernelSize)
	r := image.Rect(p.X-iterations*lower, p.Y-iterations*lower, p.X+iterations*upper+1, p.Y+iterations*upper+1)
	return r.Intersect(bounds)
}
