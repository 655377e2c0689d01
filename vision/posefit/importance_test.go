package posefit

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/inerf/render"
	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/spatialmath"
	"go.viam.com/inerf/testutils"
	"go.viam.com/inerf/utils"
)

func TestCoarseDistribution(t *testing.T) {
	dist := coarseDistribution([]float64{1, 2, 3, 4}, []float64{1, 1, 1, 4})
	test.That(t, dist, test.ShouldResemble, []float64{0, 0.2, 0.8, 0})

	// nothing to explain: every pixel is as likely
	dist = coarseDistribution([]float64{1, 2}, []float64{1, 2})
	test.That(t, dist, test.ShouldResemble, []float64{0.5, 0.5})
	test.That(t, floats.Sum(coarseDistribution([]float64{1, 1, 1}, []float64{0, 0, 0})), test.ShouldAlmostEqual, 1)
}

func TestImportanceSampler(t *testing.T) {
	scene, start := testScene(t)
	obs := &observation{rgb: floatImage(t, scene), depth: scene.Depth}
	base := &renderObjective{renderer: scene.Renderer, weight: 1, depthLoss: DepthLossMSE}
	sampler := &importanceSampler{
		base:       base,
		obs:        obs,
		rng:        utils.NewRand(9),
		fineSize:   16,
		kernelSize: 5,
		dilations:  1,
	}
	batch := newBatch([]image.Point{{0, 0}, {30, 30}, {63, 63}}, obs)

	var fineCoords []image.Point
	recorder := &recordingRenderer{Renderer: scene.Renderer, onRender: func(coords []image.Point) {
		fineCoords = coords
	}}
	base.renderer = recorder
	eval, err := sampler.Evaluate(context.Background(), start, batch)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Gradient, test.ShouldNotBeNil)
	// score the two batches again without recording
	base.renderer = scene.Renderer
	test.That(t, fineCoords, test.ShouldHaveLength, 16)
	bounds := obs.rgb.Bounds()
	for _, p := range fineCoords {
		test.That(t, p.In(bounds), test.ShouldBeTrue)
		near := false
		for _, c := range batch.Coords {
			if p.In(rimage.SquareNeighborhood(c, 5, 1, bounds)) {
				near = true
			}
		}
		test.That(t, near, test.ShouldBeTrue)
	}

	coarse, err := base.Evaluate(context.Background(), start, batch)
	test.That(t, err, test.ShouldBeNil)
	fine, err := base.Evaluate(context.Background(), start, newBatch(fineCoords, obs))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Loss.Total, test.ShouldAlmostEqual, coarse.Loss.Total+fine.Loss.Total)
	for k := range eval.Gradient {
		test.That(t, eval.Gradient[k], test.ShouldAlmostEqual, coarse.Gradient[k]+fine.Gradient[k])
	}
}

func TestImportanceSamplerNeedsGradients(t *testing.T) {
	scene, start := testScene(t)
	plain, err := render.NewPlaneRenderer(scene.Renderer.Intrinsics(), testutils.PlaneZ, render.WithoutGradients())
	test.That(t, err, test.ShouldBeNil)
	obs := &observation{rgb: floatImage(t, scene), depth: scene.Depth}
	sampler := &importanceSampler{
		base:       &renderObjective{renderer: plain, weight: 1, depthLoss: DepthLossMSE},
		obs:        obs,
		rng:        utils.NewRand(9),
		fineSize:   4,
		kernelSize: 3,
		dilations:  1,
	}
	_, err = sampler.Evaluate(context.Background(), start, newBatch([]image.Point{{1, 1}}, obs))
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
}

// recordingRenderer passes every call through and remembers the pixels of the last one.
type recordingRenderer struct {
	render.Renderer
	onRender func(coords []image.Point)
}

func (r *recordingRenderer) Render(ctx context.Context, coords []image.Point, pose *spatialmath.Pose) (*render.Rendering, error) {
	r.onRender(coords)
	return r.Renderer.Render(ctx, coords, pose)
}
