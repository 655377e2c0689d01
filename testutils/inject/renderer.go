// Package inject provides stand-ins for the collaborators of pose refinement whose behavior a test
// wants to script.
package inject

import (
	"context"
	"image"

	"go.viam.com/inerf/render"
	"go.viam.com/inerf/rimage/transform"
	"go.viam.com/inerf/spatialmath"
)

// Renderer is an injected renderer.
type Renderer struct {
	render.Renderer
	IntrinsicsFunc func() *transform.PinholeCameraIntrinsics
	RenderFunc     func(ctx context.Context, coords []image.Point, pose *spatialmath.Pose) (*render.Rendering, error)
}

// Intrinsics calls the injected Intrinsics or the real version.
func (r *Renderer) Intrinsics() *transform.PinholeCameraIntrinsics {
	if r.IntrinsicsFunc == nil {
		return r.Renderer.Intrinsics()
	}
	return r.IntrinsicsFunc()
}

// Render calls the injected Render or the real version.
func (r *Renderer) Render(ctx context.Context, coords []image.Point, pose *spatialmath.Pose) (*render.Rendering, error) {
	if r.RenderFunc == nil {
		return r.Renderer.Render(ctx, coords, pose)
	}
	return r.RenderFunc(ctx, coords, pose)
}
