package keypoints

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/inerf/rimage"
)

// A Detector finds keypoints in a grayscale image, in sub-pixel image coordinates.
type Detector interface {
	Detect(img *image.Gray) ([]r2.Point, error)
}

// FASTDetector is a Detector backed by ComputeFAST.
type FASTDetector struct {
	cfg *FASTConfig
}

// NewFASTDetector returns a FAST detector. A nil config uses DefaultFASTConfig.
func NewFASTDetector(cfg *FASTConfig) (*FASTDetector, error) {
	if cfg == nil {
		cfg = DefaultFASTConfig()
	}
	if err := cfg.Validate("fast"); err != nil {
		return nil, err
	}
	return &FASTDetector{cfg: cfg}, nil
}

// Detect runs FAST on img. FAST works on the pixel grid, so the points are integral.
func (d *FASTDetector) Detect(img *image.Gray) ([]r2.Point, error) {
	if img == nil {
		return nil, errors.New("cannot detect keypoints in a nil image")
	}
	kps := ComputeFAST(img, d.cfg)
	return lo.Map(kps, func(p image.Point, _ int) r2.Point {
		return r2.Point{X: float64(p.X), Y: float64(p.Y)}
	}), nil
}

// FindPointsOfInterest converts img to grayscale, runs the detector and floors the keypoints to
// integer pixels. The result holds each pixel once and only pixels inside img; its order carries
// no meaning.
func FindPointsOfInterest(img image.Image, d Detector) ([]image.Point, error) {
	if d == nil {
		return nil, errors.New("no keypoint detector")
	}
	gray := rimage.MakeGray(img)
	kps, err := d.Detect(gray)
	if err != nil {
		return nil, errors.Wrap(err, "keypoint detection failed")
	}
	bounds := gray.Bounds()
	pts := lo.FilterMap(kps, func(kp r2.Point, _ int) (image.Point, bool) {
		p := image.Point{int(math.Floor(kp.X)), int(math.Floor(kp.Y))}
		return p, p.In(bounds)
	})
	return lo.Uniq(pts), nil
}
