package posefit

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/rimage/noise"
	"go.viam.com/inerf/rimage/transform"
)

// observation is the observed image after preprocessing. rgb supervises the colors and detection
// is the same image at 8 bits, which is what keypoints are found in.
type observation struct {
	rgb       *rimage.FloatImage
	depth     *rimage.DepthMap
	detection *image.NRGBA
}

// checkShape verifies the observed image and depth have the camera's size.
func checkShape(intrinsics *transform.PinholeCameraIntrinsics, img image.Image, depth *rimage.DepthMap) error {
	if img == nil {
		return NewShapeError("no observed image")
	}
	if depth == nil {
		return NewShapeError("no observed depth")
	}
	w, h := intrinsics.Width, intrinsics.Height
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return NewShapeError("observed image is %dx%d but the camera is %dx%d", b.Dx(), b.Dy(), w, h)
	}
	if depth.Width() != w || depth.Height() != h {
		return NewShapeError("observed depth is %dx%d but the camera is %dx%d", depth.Width(), depth.Height(), w, h)
	}
	return nil
}

// preprocess normalizes img to [0, 1], shifts its brightness and applies noise.
func preprocess(
	img image.Image,
	depth *rimage.DepthMap,
	brightnessDelta float64,
	gen noise.Generator,
	kind noise.Kind,
	params noise.Params,
) (*observation, error) {
	rgb := rimage.ShiftBrightness(rimage.NewFloatImageFromImage(img), brightnessDelta)
	noised, err := gen.Apply(rgb, kind, params)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot apply %s noise", kind)
	}
	if noised.Width() != rgb.Width() || noised.Height() != rgb.Height() {
		return nil, NewShapeError("noise changed the image from %dx%d to %dx%d",
			rgb.Width(), rgb.Height(), noised.Width(), noised.Height())
	}
	return &observation{
		rgb:       noised,
		depth:     depth,
		detection: noised.ToNRGBA(),
	}, nil
}
