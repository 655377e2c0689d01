package utils

import "image"

// PixelGrid returns every integer pixel coordinate of a width x height image. The points are
// laid out row-major (index = y*width + x) so PixelIndex inverts the layout.
func PixelGrid(width, height int) []image.Point {
	if width <= 0 || height <= 0 {
		return nil
	}
	grid := make([]image.Point, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			grid = append(grid, image.Point{x, y})
		}
	}
	return grid
}

// PixelIndex returns the position of p inside a PixelGrid of the given width.
func PixelIndex(p image.Point, width int) int {
	return p.Y*width + p.X
}

// SubFor constructs the multi-dimensional subscript for the input linear index.
// Dims specifies the maximum size in each dimension.
//
// If sub is non-nil the result is stored in-place into sub. If it is nil a new
// slice of the appropriate length is allocated.
func SubFor(sub []int, idx int, dims []int) []int {
	for _, v := range dims {
		if v <= 0 {
			panic("bad dims")
		}
	}
	if sub == nil {
		sub = make([]int, len(dims))
	}
	if len(sub) != len(dims) {
		panic("size mismatch")
	}
	if idx < 0 {
		panic("bad index")
	}
	stride := 1
	for i := len(dims) - 1; i >= 1; i-- {
		stride *= dims[i]
	}
	for i := 0; i < len(dims)-1; i++ {
		v := idx / stride
		if v >= dims[i] {
			panic("bad index")
		}
		sub[i] = v
		idx -= v * stride
		stride /= dims[i+1]
	}
	if idx >= dims[len(sub)-1] {
		panic("bad index")
	}
	sub[len(sub)-1] = idx
	return sub
}
