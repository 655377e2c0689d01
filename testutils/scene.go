// Package testutils builds synthetic observations for pose refinement tests.
package testutils

import (
	"context"
	"image"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/inerf/render"
	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/rimage/transform"
	"go.viam.com/inerf/spatialmath"
)

// PlaneZ is where the plane of every synthetic scene lies.
const PlaneZ = -2.0

// PlaneScene is an observation of a textured plane rendered from a known pose.
type PlaneScene struct {
	Renderer *render.PlaneRenderer
	Pose     *spatialmath.Pose
	RGB      *image.NRGBA
	Depth    *rimage.DepthMap
}

// NewPlaneCamera returns the camera of the synthetic scenes, a square pixel camera with a field of
// view of about 56 degrees.
func NewPlaneCamera(width, height int) *transform.PinholeCameraIntrinsics {
	return transform.NewSquarePixelIntrinsics(width, height, 0.94*float64(width))
}

// NewPlaneScene renders the plane z = PlaneZ from pose. The observed colors are quantized to 8 bits
// like a real photo.
func NewPlaneScene(tb testing.TB, intrinsics *transform.PinholeCameraIntrinsics, pose *spatialmath.Pose, opts ...render.PlaneOption) *PlaneScene {
	tb.Helper()
	r, err := render.NewPlaneRenderer(intrinsics, PlaneZ, opts...)
	test.That(tb, err, test.ShouldBeNil)
	img, depth, err := render.RenderImage(context.Background(), r, pose)
	test.That(tb, err, test.ShouldBeNil)
	return &PlaneScene{
		Renderer: r,
		Pose:     pose,
		RGB:      img.ToNRGBA(),
		Depth:    depth,
	}
}

// PerturbPose moves pose by a rotation aa and a translation, both expressed in the pose's own frame.
// It is how a start pose is derived from a ground-truth one.
func PerturbPose(tb testing.TB, pose *spatialmath.Pose, aa *spatialmath.R4AA, translation r3.Vector) *spatialmath.Pose {
	tb.Helper()
	delta, err := spatialmath.NewPoseFromAxisAngle(aa, translation)
	test.That(tb, err, test.ShouldBeNil)
	return pose.Compose(delta)
}
