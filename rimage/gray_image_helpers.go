package rimage

import (
	"image"

	"github.com/disintegration/imaging"
)

// SameImgSize compares images to see if they're the same size.
func SameImgSize(g1, g2 image.Image) bool {
	return g1.Bounds().Dx() == g2.Bounds().Dx() && g1.Bounds().Dy() == g2.Bounds().Dy()
}

// MakeGray converts an image to 8-bit luminance with the 0.299/0.587/0.114 weights.
func MakeGray(pic image.Image) *image.Gray {
	lum := imaging.Grayscale(pic)
	result := image.NewGray(lum.Bounds())
	for y := 0; y < lum.Bounds().Dy(); y++ {
		for x := 0; x < lum.Bounds().Dx(); x++ {
			result.Pix[y*result.Stride+x] = lum.Pix[y*lum.Stride+4*x]
		}
	}
	return result
}
