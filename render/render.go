// Package render defines the differentiable renderer that pose refinement queries, and a
// textured-plane renderer with analytic pose gradients.
package render

import (
	"context"
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/rimage/transform"
	"go.viam.com/inerf/spatialmath"
	"go.viam.com/inerf/utils"
)

// PoseGradient is the derivative of a rendered scalar with respect to the 12 free entries of the
// camera pose, ordered row-major over the top 3x4 block of the homogeneous matrix.
type PoseGradient [spatialmath.PoseEntries]float64

// Rendering is what a Renderer predicts at a list of pixels. All slices are parallel to the pixel
// list. The gradient slices are optional: a renderer that cannot differentiate leaves them nil.
type Rendering struct {
	RGB           []r3.Vector
	DepthMean     []float64
	DepthVariance []float64

	// RGBGradient[i][c] is the gradient of channel c of pixel i.
	RGBGradient   [][3]PoseGradient
	DepthGradient []PoseGradient
}

// HasGradients reports whether the rendering carries pose gradients.
func (r *Rendering) HasGradients() bool {
	return r.RGBGradient != nil && r.DepthGradient != nil
}

// Validate checks that every slice of the rendering holds n entries.
func (r *Rendering) Validate(n int) error {
	if r == nil {
		return errors.New("renderer returned no rendering")
	}
	if len(r.RGB) != n || len(r.DepthMean) != n || len(r.DepthVariance) != n {
		return errors.Errorf("rendering of %d pixels has %d colors, %d depths and %d variances",
			n, len(r.RGB), len(r.DepthMean), len(r.DepthVariance))
	}
	if r.RGBGradient != nil && len(r.RGBGradient) != n {
		return errors.Errorf("rendering of %d pixels has %d color gradients", n, len(r.RGBGradient))
	}
	if r.DepthGradient != nil && len(r.DepthGradient) != n {
		return errors.Errorf("rendering of %d pixels has %d depth gradients", n, len(r.DepthGradient))
	}
	return nil
}

// A Renderer predicts color and depth at pixels of a camera placed at a pose. When it fills in the
// gradient fields of Rendering they must be the derivatives of the returned values with respect to
// the pose entries.
type Renderer interface {
	Intrinsics() *transform.PinholeCameraIntrinsics
	Render(ctx context.Context, coords []image.Point, pose *spatialmath.Pose) (*Rendering, error)
}

// RenderImage renders every pixel of the renderer's camera at pose.
func RenderImage(ctx context.Context, r Renderer, pose *spatialmath.Pose) (*rimage.FloatImage, *rimage.DepthMap, error) {
	intrinsics := r.Intrinsics()
	if err := intrinsics.CheckValid(); err != nil {
		return nil, nil, err
	}
	grid := utils.PixelGrid(intrinsics.Width, intrinsics.Height)
	rendering, err := r.Render(ctx, grid, pose)
	if err != nil {
		return nil, nil, err
	}
	if err := rendering.Validate(len(grid)); err != nil {
		return nil, nil, err
	}
	img, err := rimage.NewFloatImageFromData(intrinsics.Width, intrinsics.Height, rendering.RGB)
	if err != nil {
		return nil, nil, err
	}
	depth, err := rimage.NewDepthMapFromData(intrinsics.Width, intrinsics.Height, rendering.DepthMean)
	if err != nil {
		return nil, nil, err
	}
	return img, depth, nil
}
