package inject

import (
	"image"

	"github.com/golang/geo/r2"

	"go.viam.com/inerf/vision/keypoints"
)

// Detector is an injected keypoint detector.
type Detector struct {
	keypoints.Detector
	DetectFunc func(img *image.Gray) ([]r2.Point, error)
}

// Detect calls the injected Detect or the real version.
func (d *Detector) Detect(img *image.Gray) ([]r2.Point, error) {
	if d.DetectFunc == nil {
		return d.Detector.Detect(img)
	}
	return d.DetectFunc(img)
}
