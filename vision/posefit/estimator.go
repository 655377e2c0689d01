package posefit

import (
	"context"
	"image"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/inerf/logging"
	"go.viam.com/inerf/render"
	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/rimage/noise"
	"go.viam.com/inerf/spatialmath"
	"go.viam.com/inerf/utils"
	"go.viam.com/inerf/vision/keypoints"
)

// Estimator refines camera poses against a renderer. Its configuration is read-only, so one
// Estimator may run several refinements at once; each refinement owns its own twist and optimizer.
type Estimator struct {
	cfg      Config
	renderer render.Renderer
	logger   logging.Logger
	detector keypoints.Detector
	noiseGen noise.Generator
	reporter Reporter
	seed     uint64

	mu    sync.Mutex
	prior *spatialmath.Pose
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithDetector replaces the FAST keypoint detector.
func WithDetector(d keypoints.Detector) Option {
	return func(e *Estimator) {
		e.detector = d
	}
}

// WithNoiseGenerator replaces the seeded noise generator. The one generator is shared by every
// refinement of RefineMany, so it must be safe for concurrent use; noise.Random is.
func WithNoiseGenerator(gen noise.Generator) Option {
	return func(e *Estimator) {
		e.noiseGen = gen
	}
}

// WithReporter registers a callback for every diagnostic.
func WithReporter(r Reporter) Option {
	return func(e *Estimator) {
		e.reporter = r
	}
}

// WithSeed overrides the configured seed.
func WithSeed(seed uint64) Option {
	return func(e *Estimator) {
		e.seed = seed
	}
}

// NewEstimator validates cfg and returns an estimator that renders with renderer.
func NewEstimator(cfg *Config, renderer render.Renderer, logger logging.Logger, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate("posefit"); err != nil {
		return nil, err
	}
	if renderer == nil {
		return nil, NewConfigurationError("no renderer")
	}
	if err := renderer.Intrinsics().CheckValid(); err != nil {
		return nil, errors.Wrap(err, "renderer has no usable camera")
	}
	e := &Estimator{
		cfg:      *cfg,
		renderer: renderer,
		logger:   logger,
		seed:     cfg.Seed,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.detector == nil && e.cfg.needsInterestPoints() {
		det, err := keypoints.NewFASTDetector(e.cfg.FAST)
		if err != nil {
			return nil, errors.Wrap(ErrConfiguration, err.Error())
		}
		e.detector = det
	}
	return e, nil
}

// Config returns a copy of the estimator configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// PosePrior returns the pose the last finished refinement settled on, or nil before the first.
func (e *Estimator) PosePrior() *spatialmath.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prior
}

// Result is the outcome of a refinement.
//
// Pose is the pose after the last optimizer step. FinalLoss and Diagnostics describe the candidate
// each step started from, so they lag Pose by one step: the last diagnostic is not Pose's error.
type Result struct {
	Pose *spatialmath.Pose
	// Iterations counts the optimizer steps taken.
	Iterations  int
	FinalLoss   float64
	Diagnostics Diagnostics
	// Aborted is set when the objective stopped being finite. Pose is then the last pose with a
	// finite objective and AbortReason is of kind ErrNumerical.
	Aborted     bool
	AbortReason error
}

// EstimatePose refines start and returns only the pose. See Refine.
func (e *Estimator) EstimatePose(
	ctx context.Context,
	start *spatialmath.Pose,
	obsRGB image.Image,
	obsPose *spatialmath.Pose,
	obsDepth *rimage.DepthMap,
) (*spatialmath.Pose, error) {
	res, err := e.Refine(ctx, start, obsRGB, obsPose, obsDepth)
	if res == nil {
		return nil, err
	}
	return res.Pose, err
}

// Refine moves start so that the renderer reproduces the observed image and depth. obsPose is the
// true pose of the observation and is only used for diagnostics.
//
// If ctx is cancelled the pose with the lowest objective so far is returned together with the
// context error.
func (e *Estimator) Refine(
	ctx context.Context,
	start *spatialmath.Pose,
	obsRGB image.Image,
	obsPose *spatialmath.Pose,
	obsDepth *rimage.DepthMap,
) (*Result, error) {
	res, err := e.refine(ctx, e.seed, start, obsRGB, obsPose, obsDepth)
	if res != nil {
		e.setPrior(res.Pose)
	}
	return res, err
}

func (e *Estimator) setPrior(pose *spatialmath.Pose) {
	e.mu.Lock()
	e.prior = pose
	e.mu.Unlock()
}

func (e *Estimator) refine(
	ctx context.Context,
	seed uint64,
	start *spatialmath.Pose,
	obsRGB image.Image,
	obsPose *spatialmath.Pose,
	obsDepth *rimage.DepthMap,
) (*Result, error) {
	if start == nil || obsPose == nil {
		return nil, errors.New("start and observed poses are required")
	}
	intrinsics := e.renderer.Intrinsics()
	if err := checkShape(intrinsics, obsRGB, obsDepth); err != nil {
		return nil, err
	}
	if e.cfg.Debug {
		ctx = logging.EnableDebugMode(ctx, "posefit")
	}

	rng := utils.NewRand(seed)
	gen := e.noiseGen
	if gen == nil {
		gen = noise.NewRandom(rand.NewPCG(rng.Uint64(), rng.Uint64()))
	}
	obs, err := preprocess(obsRGB, obsDepth, e.cfg.BrightnessDelta, gen, e.cfg.noiseKind(), e.cfg.noiseParams())
	if err != nil {
		return nil, err
	}

	var poi []image.Point
	if e.cfg.needsInterestPoints() {
		poi, err = keypoints.FindPointsOfInterest(obs.detection, e.detector)
		if err != nil {
			return nil, err
		}
		e.logger.CDebugw(ctx, "found points of interest", "count", len(poi))
	}
	sampler, err := NewSampler(e.cfg.SamplingStrategy, e.cfg.BatchSize, intrinsics.Width, intrinsics.Height,
		poi, e.cfg.KernelSize, e.cfg.DilationIterations)
	if err != nil {
		return nil, err
	}

	return e.optimize(ctx, start, obsPose, obs, sampler, rng)
}

func (e *Estimator) objective(obs *observation, rng *rand.Rand) Objective {
	weight := e.cfg.PhotometricWeight
	if e.cfg.ImportanceSampling.Enabled {
		weight = 1
	}
	var obj Objective = &renderObjective{renderer: e.renderer, weight: weight, depthLoss: e.cfg.DepthLoss}
	if e.cfg.ImportanceSampling.Enabled {
		obj = &importanceSampler{
			base:       obj,
			obs:        obs,
			rng:        rng,
			fineSize:   e.cfg.ImportanceSampling.FineSize,
			kernelSize: e.cfg.KernelSize,
			dilations:  e.cfg.DilationIterations,
		}
	}
	return obj
}

func (e *Estimator) optimize(
	ctx context.Context,
	start, obsPose *spatialmath.Pose,
	obs *observation,
	sampler Sampler,
	rng *rand.Rand,
) (*Result, error) {
	cfg := &e.cfg
	obj := e.objective(obs, rng)
	params := spatialmath.NewRandomTwist(rng).Params()
	adam := NewAdam(spatialmath.TwistDim, cfg.LearningRate)
	ref := obsPose.Decompose()

	e.logger.Infow("refining pose",
		"strategy", cfg.SamplingStrategy,
		"iterations", cfg.Iterations,
		"batch_size", cfg.BatchSize,
		"importance_sampling", cfg.ImportanceSampling.Enabled)

	res := &Result{FinalLoss: math.NaN()}
	lastValid := start
	best, bestLoss := start, math.Inf(1)
	var batch *Batch
	for k := 0; k < cfg.Iterations; k++ {
		if ctx.Err() != nil {
			return stopped(ctx, res, best, k)
		}
		if k%cfg.ResampleInterval == 0 {
			coords, err := sampler.Sample(rng)
			if err != nil {
				return nil, err
			}
			batch = newBatch(coords, obs)
		}

		twist := spatialmath.NewTwistFromParams(params)
		pose := twist.Apply(start)
		eval, err := obj.Evaluate(ctx, pose, batch)
		if err != nil {
			if ctx.Err() != nil {
				return stopped(ctx, res, best, k)
			}
			return nil, err
		}
		loss := eval.Loss.Total
		if !utils.IsFinite(loss) {
			return e.abort(res, lastValid, NewNumericalError("loss is %v at iteration %d", loss, k)), nil
		}
		lastValid = pose
		if loss < bestLoss {
			best, bestLoss = pose, loss
		}

		grad, err := e.twistGradient(ctx, obj, eval, twist, start, batch)
		if err != nil {
			if ctx.Err() != nil {
				return stopped(ctx, res, best, k)
			}
			return nil, err
		}
		if !utils.AllFinite(grad) {
			return e.abort(res, lastValid, NewNumericalError("gradient is not finite at iteration %d", k)), nil
		}

		adam.Step(params, grad)
		adam.LearningRate = DecayedLearningRate(cfg.LearningRate, k)
		res.Iterations = k + 1
		res.FinalLoss = loss

		if isReportIteration(k, cfg.ReportInterval) {
			d := diagnose(k, loss, adam.LearningRate, ref, pose)
			res.Diagnostics = append(res.Diagnostics, d)
			e.logger.CDebugw(ctx, "pose refinement step",
				"iteration", k,
				"loss", loss,
				"rotation_error", d.RotationError,
				"translation_error", d.TranslationError,
				"learning_rate", d.LearningRate)
			if e.reporter != nil {
				e.reporter(d)
			}
		}
	}

	final := spatialmath.NewTwistFromParams(params).Apply(start)
	if !final.IsFinite() {
		return e.abort(res, lastValid, NewNumericalError("refined pose is not finite")), nil
	}
	res.Pose = final
	e.logger.Infow("refined pose", "iterations", res.Iterations, "loss", res.FinalLoss)
	return res, nil
}

// stopped ends a cancelled refinement with the lowest-loss pose seen so far.
func stopped(ctx context.Context, res *Result, best *spatialmath.Pose, k int) (*Result, error) {
	res.Pose = best
	return res, errors.Wrapf(ctx.Err(), "pose refinement stopped after %d iterations", k)
}

func (e *Estimator) abort(res *Result, lastValid *spatialmath.Pose, reason error) *Result {
	e.logger.Warnw("aborting pose refinement", "error", reason, "iterations", res.Iterations)
	res.Pose = lastValid
	res.Aborted = true
	res.AbortReason = reason
	return res
}

// twistGradient maps the pose gradient of eval onto the twist parameters through the Jacobian of
// the exponential map. Without a pose gradient it differentiates the objective numerically.
func (e *Estimator) twistGradient(
	ctx context.Context,
	obj Objective,
	eval *Evaluation,
	twist spatialmath.Twist,
	start *spatialmath.Pose,
	batch *Batch,
) ([]float64, error) {
	if eval.Gradient != nil {
		var grad mat.VecDense
		grad.MulVec(twist.Jacobian(start).T(), mat.NewVecDense(spatialmath.PoseEntries, eval.Gradient[:]))
		return grad.RawVector().Data, nil
	}

	var evalErr error
	loss := func(x []float64) float64 {
		if evalErr != nil {
			return math.NaN()
		}
		ev, err := obj.Evaluate(ctx, spatialmath.NewTwistFromParams(x).Apply(start), batch)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return ev.Loss.Total
	}
	grad := fd.Gradient(nil, loss, twist.Params(), &fd.Settings{Formula: fd.Central, Step: 1e-6})
	if evalErr != nil {
		return nil, evalErr
	}
	return grad, nil
}
