// Package keypoints finds salient pixels in an image. For now:
// - FAST keypoints
package keypoints

import (
	"image"

	"github.com/fogleman/gg"
)

// KeyPoints is a slice of image.Point that contains several kps.
type KeyPoints []image.Point

// DrawKeypoints returns img with every keypoint marked by a translucent blue disc.
func DrawKeypoints(img image.Image, kps []image.Point) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, -img.Bounds().Min.X, -img.Bounds().Min.Y)

	dc.SetRGBA(0, 0, 1, 0.5)
	for _, p := range kps {
		dc.DrawCircle(float64(p.X), float64(p.Y), float64(3.0))
		dc.Fill()
	}
	return dc.Image()
}

// PlotKeypoints plots keypoints on image and saves the result as a PNG.
func PlotKeypoints(img image.Image, kps []image.Point, outName string) error {
	return gg.SavePNG(outName, DrawKeypoints(img, kps))
}
