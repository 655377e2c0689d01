package posefit

import (
	"context"
	"image"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/spatialmath"
)

// importanceSampler wraps an objective with a second batch. After scoring the coarse batch it
// draws fineSize of its pixels, with replacement, in proportion to their squared depth error.
// Around each drawn pixel it picks one pixel uniformly from the square neighborhood a dilation
// would cover, and the objective of those fine pixels is added to the coarse one.
type importanceSampler struct {
	base       Objective
	obs        *observation
	rng        *rand.Rand
	fineSize   int
	kernelSize int
	dilations  int
}

func (s *importanceSampler) Evaluate(ctx context.Context, pose *spatialmath.Pose, batch *Batch) (*Evaluation, error) {
	coarse, err := s.base.Evaluate(ctx, pose, batch)
	if err != nil {
		return nil, err
	}
	if coarse.Gradient == nil {
		return nil, NewConfigurationError("importance sampling needs a renderer that reports pose gradients")
	}
	if len(batch.Coords) == 0 {
		return coarse, nil
	}

	fine := newBatch(s.fineCoords(batch, coarse), s.obs)
	fineEval, err := s.base.Evaluate(ctx, pose, fine)
	if err != nil {
		return nil, err
	}
	if fineEval.Gradient == nil {
		return nil, NewConfigurationError("importance sampling needs a renderer that reports pose gradients")
	}

	grad := *coarse.Gradient
	floats.Add(grad[:], fineEval.Gradient[:])
	return &Evaluation{
		Loss:      coarse.Loss.add(fineEval.Loss),
		Gradient:  &grad,
		Rendering: coarse.Rendering,
	}, nil
}

// coarseDistribution is the normalized squared depth error of every pixel of the batch. When
// there is no error at all every pixel is equally likely.
func coarseDistribution(pred, target []float64) []float64 {
	weights := make([]float64, len(pred))
	for i := range pred {
		weights[i] = (pred[i] - target[i]) * (pred[i] - target[i])
	}
	sum := floats.Sum(weights)
	if !(sum > 0) || math.IsInf(sum, 0) {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}
	floats.Scale(1/sum, weights)
	return weights
}

func (s *importanceSampler) fineCoords(batch *Batch, coarse *Evaluation) []image.Point {
	dist := distuv.NewCategorical(coarseDistribution(coarse.Rendering.DepthMean, batch.Depth), s.rng)
	bounds := s.obs.rgb.Bounds()
	coords := make([]image.Point, s.fineSize)
	for i := range coords {
		center := batch.Coords[int(dist.Rand())]
		region := rimage.SquareNeighborhood(center, s.kernelSize, s.dilations, bounds)
		coords[i] = image.Point{
			X: region.Min.X + s.rng.IntN(region.Dx()),
			Y: region.Min.Y + s.rng.IntN(region.Dy()),
		}
	}
	return coords
}
