package render

import (
	"context"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/inerf/rimage/transform"
	"go.viam.com/inerf/spatialmath"
)

// SineTexture colors a point (x, y) of a plane channel by channel:
//
//	c = 0.5 + 0.25*sin(FreqX*x + PhaseX) + 0.25*cos(FreqY*y + PhaseY)
//
// so every channel stays in [0, 1] and has a non-zero spatial gradient almost everywhere.
type SineTexture struct {
	FreqX, PhaseX [3]float64
	FreqY, PhaseY [3]float64
}

// DefaultSineTexture is a texture with distinct, non-aligned frequencies per channel.
func DefaultSineTexture() SineTexture {
	return SineTexture{
		FreqX:  [3]float64{2.1, 1.7, 2.9},
		PhaseX: [3]float64{0.3, 1.1, -0.4},
		FreqY:  [3]float64{1.9, 2.6, 1.5},
		PhaseY: [3]float64{-0.7, 0.2, 0.9},
	}
}

// colorAt returns the color of the texture at (x, y) and its partial derivatives along x and y.
func (tex SineTexture) colorAt(x, y float64) (c, dx, dy [3]float64) {
	for k := 0; k < 3; k++ {
		sx, cx := math.Sincos(tex.FreqX[k]*x + tex.PhaseX[k])
		sy, cy := math.Sincos(tex.FreqY[k]*y + tex.PhaseY[k])
		c[k] = 0.5 + 0.25*sx + 0.25*cy
		dx[k] = 0.25 * tex.FreqX[k] * cx
		dy[k] = -0.25 * tex.FreqY[k] * sy
	}
	return c, dx, dy
}

// PlaneRenderer renders a textured plane z = PlaneZ, in world coordinates, seen by a pinhole
// camera. Poses are camera-to-world transforms; the camera looks down its -Z axis.
type PlaneRenderer struct {
	intrinsics *transform.PinholeCameraIntrinsics
	planeZ     float64
	texture    SineTexture

	reportGradients bool
	varianceScale   float64
}

// PlaneOption configures a PlaneRenderer.
type PlaneOption func(*PlaneRenderer)

// WithoutGradients makes the renderer leave the gradient fields of its renderings empty.
func WithoutGradients() PlaneOption {
	return func(r *PlaneRenderer) {
		r.reportGradients = false
	}
}

// WithTexture sets the plane texture.
func WithTexture(tex SineTexture) PlaneOption {
	return func(r *PlaneRenderer) {
		r.texture = tex
	}
}

// WithDepthVarianceScale sets k in the reported depth variance k*depth^2.
func WithDepthVarianceScale(k float64) PlaneOption {
	return func(r *PlaneRenderer) {
		r.varianceScale = k
	}
}

// NewPlaneRenderer returns a renderer of the plane z = planeZ.
func NewPlaneRenderer(intrinsics *transform.PinholeCameraIntrinsics, planeZ float64, opts ...PlaneOption) (*PlaneRenderer, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	r := &PlaneRenderer{
		intrinsics:      intrinsics,
		planeZ:          planeZ,
		texture:         DefaultSineTexture(),
		reportGradients: true,
		varianceScale:   1e-4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Intrinsics returns the camera intrinsics.
func (r *PlaneRenderer) Intrinsics() *transform.PinholeCameraIntrinsics {
	return r.intrinsics
}

// Render casts one ray per pixel. Rays that do not hit the plane in front of the camera render
// black at depth 0 with zero gradients. The depth variance is treated as a constant of the pose.
func (r *PlaneRenderer) Render(ctx context.Context, coords []image.Point, pose *spatialmath.Pose) (*Rendering, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pose == nil {
		return nil, errors.New("cannot render from a nil pose")
	}
	bounds := r.intrinsics.Bounds()
	n := len(coords)
	out := &Rendering{
		RGB:           make([]r3.Vector, n),
		DepthMean:     make([]float64, n),
		DepthVariance: make([]float64, n),
	}
	if r.reportGradients {
		out.RGBGradient = make([][3]PoseGradient, n)
		out.DepthGradient = make([]PoseGradient, n)
	}

	origin := pose.Translation()
	for i, p := range coords {
		if !p.In(bounds) {
			return nil, errors.Errorf("pixel %v outside of the %dx%d camera", p, bounds.Dx(), bounds.Dy())
		}
		dc := r.intrinsics.PixelToRay(float64(p.X), float64(p.Y))
		dcs := [3]float64{dc.X, dc.Y, dc.Z}
		var dw [3]float64
		for row := 0; row < 3; row++ {
			for j := 0; j < 3; j++ {
				dw[row] += pose.At(row, j) * dcs[j]
			}
		}
		s := (r.planeZ - origin.Z) / dw[2]
		if dw[2] == 0 || s <= 0 || math.IsInf(s, 0) || math.IsNaN(s) {
			continue
		}
		x := origin.X + s*dw[0]
		y := origin.Y + s*dw[1]
		c, cdx, cdy := r.texture.colorAt(x, y)
		out.RGB[i] = r3.Vector{X: c[0], Y: c[1], Z: c[2]}
		out.DepthMean[i] = s
		out.DepthVariance[i] = r.varianceScale * s * s

		if !r.reportGradients {
			continue
		}
		// depth only depends on the third row of the pose
		var ds PoseGradient
		for j := 0; j < 3; j++ {
			ds[entry(2, j)] = -s / dw[2] * dcs[j]
		}
		ds[entry(2, 3)] = -1 / dw[2]
		out.DepthGradient[i] = ds

		var dx, dy PoseGradient
		for k := range ds {
			dx[k] = dw[0] * ds[k]
			dy[k] = dw[1] * ds[k]
		}
		for j := 0; j < 3; j++ {
			dx[entry(0, j)] += s * dcs[j]
			dy[entry(1, j)] += s * dcs[j]
		}
		dx[entry(0, 3)]++
		dy[entry(1, 3)]++

		for ch := 0; ch < 3; ch++ {
			for k := range ds {
				out.RGBGradient[i][ch][k] = cdx[ch]*dx[k] + cdy[ch]*dy[k]
			}
		}
	}
	return out, nil
}

// entry is the index of pose element (row, col) within a PoseGradient.
func entry(row, col int) int {
	return 4*row + col
}
