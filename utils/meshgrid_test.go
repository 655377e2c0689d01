package utils

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestPixelGrid(t *testing.T) {
	grid := PixelGrid(3, 2)
	test.That(t, len(grid), test.ShouldEqual, 6)
	test.That(t, grid[0], test.ShouldResemble, image.Point{0, 0})
	test.That(t, grid[2], test.ShouldResemble, image.Point{2, 0})
	test.That(t, grid[3], test.ShouldResemble, image.Point{0, 1})
	test.That(t, grid[5], test.ShouldResemble, image.Point{2, 1})
	for i, p := range grid {
		test.That(t, PixelIndex(p, 3), test.ShouldEqual, i)
	}
	test.That(t, PixelGrid(0, 4), test.ShouldBeNil)
}

func TestSubFor(t *testing.T) {
	sub := SubFor(nil, 5, []int{2, 3})
	test.That(t, sub, test.ShouldResemble, []int{1, 2})
	sub = SubFor(sub, 0, []int{2, 3})
	test.That(t, sub, test.ShouldResemble, []int{0, 0})
	test.That(t, func() { SubFor(nil, 6, []int{2, 3}) }, test.ShouldPanic)
	test.That(t, func() { SubFor(nil, -1, []int{2, 3}) }, test.ShouldPanic)
}
