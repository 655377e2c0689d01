package posefit

import (
	"context"
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/spatialmath"
)

// RefineMany refines every start pose against the same observation, running at most limit
// refinements at once (no bound when limit < 1). Refinement i is seeded with the estimator seed
// plus i, so the first result is the one Refine would give for starts[0].
//
// The first failure cancels the others. Results that were reached before the failure are kept.
// The pose prior becomes the pose of Best(results).
func (e *Estimator) RefineMany(
	ctx context.Context,
	starts []*spatialmath.Pose,
	limit int,
	obsRGB image.Image,
	obsPose *spatialmath.Pose,
	obsDepth *rimage.DepthMap,
) ([]*Result, error) {
	if len(starts) == 0 {
		return nil, NewConfigurationError("no start poses to refine")
	}
	results := make([]*Result, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, start := range starts {
		g.Go(func() error {
			res, err := e.refine(gctx, e.seed+uint64(i), start, obsRGB, obsPose, obsDepth)
			results[i] = res
			if err != nil {
				return errors.Wrapf(err, "refining start pose %d", i)
			}
			return nil
		})
	}
	err := g.Wait()
	if best := Best(results); best != nil {
		e.setPrior(best.Pose)
	}
	return results, err
}

// Best returns the finished, non aborted result with the lowest final loss, or nil if there is
// none.
func Best(results []*Result) *Result {
	var best *Result
	for _, res := range results {
		if res == nil || res.Aborted || res.Pose == nil || math.IsNaN(res.FinalLoss) {
			continue
		}
		if best == nil || res.FinalLoss < best.FinalLoss {
			best = res
		}
	}
	return best
}
