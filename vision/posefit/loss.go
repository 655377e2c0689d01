package posefit

import (
	"context"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/inerf/render"
	"go.viam.com/inerf/spatialmath"
)

// minDepthVariance keeps the uncertainty weighted depth loss finite where the renderer is certain.
const minDepthVariance = 1e-10

// PhotometricMSE is the mean of the squared color differences over every pixel and channel.
func PhotometricMSE(pred, target []r3.Vector) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i := range pred {
		d := pred[i].Sub(target[i])
		sum += d.Dot(d)
	}
	return sum / float64(3*len(pred))
}

// DepthMSE is the mean of the squared depth differences.
func DepthMSE(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	d := floats.Distance(pred, target, 2)
	return d * d / float64(len(pred))
}

// UncertaintyDepthLoss is the mean of the squared depth differences, each divided by the rendered
// depth standard deviation. Variances are floored at 1e-10.
func UncertaintyDepthLoss(pred, target, variance []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i := range pred {
		sum += (pred[i] - target[i]) * (pred[i] - target[i]) / depthStdDev(variance[i])
	}
	return sum / float64(len(pred))
}

func depthStdDev(variance float64) float64 {
	return math.Sqrt(math.Max(minDepthVariance, variance))
}

// Batch is a set of pixels together with the observed values the renderer has to reproduce there.
type Batch struct {
	Coords []image.Point
	RGB    []r3.Vector
	Depth  []float64
}

func newBatch(coords []image.Point, obs *observation) *Batch {
	return &Batch{
		Coords: coords,
		RGB:    obs.rgb.Gather(coords),
		Depth:  obs.depth.Gather(coords),
	}
}

// Loss is the value of the objective on a batch, split by term.
type Loss struct {
	Photometric float64
	Depth       float64
	Total       float64
}

func (l Loss) add(o Loss) Loss {
	return Loss{
		Photometric: l.Photometric + o.Photometric,
		Depth:       l.Depth + o.Depth,
		Total:       l.Total + o.Total,
	}
}

// Evaluation is an objective scored at one pose. Gradient is the derivative of Loss.Total with
// respect to the pose entries; it is nil when the renderer does not report pose gradients.
type Evaluation struct {
	Loss      Loss
	Gradient  *render.PoseGradient
	Rendering *render.Rendering
}

// An Objective scores a candidate pose against a batch.
type Objective interface {
	Evaluate(ctx context.Context, pose *spatialmath.Pose, batch *Batch) (*Evaluation, error)
}

// renderObjective is weight*PhotometricMSE plus a depth term, computed on a single rendering.
type renderObjective struct {
	renderer  render.Renderer
	weight    float64
	depthLoss DepthLoss
}

func (o *renderObjective) Evaluate(ctx context.Context, pose *spatialmath.Pose, batch *Batch) (*Evaluation, error) {
	n := len(batch.Coords)
	rendering, err := o.renderer.Render(ctx, batch.Coords, pose)
	if err != nil {
		return nil, err
	}
	if err := rendering.Validate(n); err != nil {
		return nil, err
	}

	var loss Loss
	loss.Photometric = PhotometricMSE(rendering.RGB, batch.RGB)
	if o.depthLoss == DepthLossUncertainty {
		loss.Depth = UncertaintyDepthLoss(rendering.DepthMean, batch.Depth, rendering.DepthVariance)
	} else {
		loss.Depth = DepthMSE(rendering.DepthMean, batch.Depth)
	}
	loss.Total = o.weight*loss.Photometric + loss.Depth

	eval := &Evaluation{Loss: loss, Rendering: rendering}
	if !rendering.HasGradients() || n == 0 {
		return eval, nil
	}

	// d/dx mean((p-t)^2) = 2/n * sum((p-t) * dp/dx); the variance is held constant
	var grad render.PoseGradient
	colorScale := o.weight * 2 / float64(3*n)
	depthScale := 2 / float64(n)
	for i := 0; i < n; i++ {
		res := rendering.RGB[i].Sub(batch.RGB[i])
		for ch, r := range [3]float64{res.X, res.Y, res.Z} {
			floats.AddScaled(grad[:], colorScale*r, rendering.RGBGradient[i][ch][:])
		}
		dres := rendering.DepthMean[i] - batch.Depth[i]
		if o.depthLoss == DepthLossUncertainty {
			dres /= depthStdDev(rendering.DepthVariance[i])
		}
		floats.AddScaled(grad[:], depthScale*dres, rendering.DepthGradient[i][:])
	}
	eval.Gradient = &grad
	return eval, nil
}
