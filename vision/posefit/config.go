// Package posefit refines a camera pose by gradient descent so that a differentiable renderer
// placed at that pose reproduces an observed RGB-D image.
package posefit

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/inerf/rimage/noise"
	"go.viam.com/inerf/utils"
	"go.viam.com/inerf/vision/keypoints"
)

// SamplingStrategy names how the pixels supervising each iteration are chosen.
type SamplingStrategy string

// The supported sampling strategies.
const (
	// StrategyRandom draws pixels uniformly from the whole image.
	StrategyRandom = SamplingStrategy("random")
	// StrategyInterestPoints draws keypoints first and tops up with other pixels.
	StrategyInterestPoints = SamplingStrategy("interest_points")
	// StrategyInterestRegions draws from square neighborhoods dilated around the keypoints.
	StrategyInterestRegions = SamplingStrategy("interest_regions")
)

// SamplingStrategies lists every supported sampling strategy.
var SamplingStrategies = []SamplingStrategy{StrategyRandom, StrategyInterestPoints, StrategyInterestRegions}

// DepthLoss names the depth term of the objective.
type DepthLoss string

// The supported depth terms.
const (
	DepthLossMSE         = DepthLoss("mse")
	DepthLossUncertainty = DepthLoss("uncertainty")
)

// ImportanceSamplingConfig turns on the second, loss-driven batch drawn around the pixels whose
// depth is worst explained.
type ImportanceSamplingConfig struct {
	Enabled  bool `json:"enabled"`
	FineSize int  `json:"fine_size"`
}

// Config describes one pose estimator. It is read-only once the estimator is built.
type Config struct {
	Iterations         int                      `json:"iterations"`
	BatchSize          int                      `json:"batch_size"`
	SamplingStrategy   SamplingStrategy         `json:"sampling_strategy"`
	DilationIterations int                      `json:"dilation_iterations"`
	KernelSize         int                      `json:"kernel_size"`
	LearningRate       float64                  `json:"learning_rate"`
	Noise              string                   `json:"noise"`
	NoiseSigma         float64                  `json:"noise_sigma"`
	NoiseAmount        float64                  `json:"noise_amount"`
	BrightnessDelta    float64                  `json:"brightness_delta"`
	ResampleInterval   int                      `json:"resample_interval"`
	PhotometricWeight  float64                  `json:"photometric_weight"`
	DepthLoss          DepthLoss                `json:"depth_loss"`
	ReportInterval     int                      `json:"report_interval"`
	Seed               uint64                   `json:"seed"`
	ImportanceSampling ImportanceSamplingConfig `json:"importance_sampling"`
	Debug              bool                     `json:"debug"`
	FAST               *keypoints.FASTConfig    `json:"fast,omitempty"`
}

// ConfigSchema describes the JSON form of Config for editors and config validators.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// DefaultConfig returns a configuration with every optional field at its default. Iterations and
// batch size still have to be chosen for the scene at hand.
func DefaultConfig() *Config {
	return &Config{
		Iterations:         300,
		BatchSize:          2048,
		SamplingStrategy:   StrategyInterestRegions,
		DilationIterations: 3,
		KernelSize:         5,
		LearningRate:       0.01,
		Noise:              string(noise.None),
		NoiseSigma:         0.01,
		NoiseAmount:        0.8,
		ResampleInterval:   1,
		PhotometricWeight:  1,
		DepthLoss:          DepthLossMSE,
		ReportInterval:     20,
		ImportanceSampling: ImportanceSamplingConfig{FineSize: 256},
	}
}

// LoadConfig reads a JSON configuration on top of DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "error reading pose refinement configuration")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing pose refinement configuration")
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeConfig converts an attribute map, keyed like the JSON file, into a validated Config.
// Keys the Config does not know are an error.
func DecodeConfig(attributes map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "error decoding pose refinement attributes")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return nil, NewConfigurationError("unknown attributes %v", md.Unused)
	}
	if err := cfg.Validate("attributes"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once. The returned error is of kind ErrConfiguration.
func (cfg *Config) Validate(path string) error {
	if cfg == nil {
		return NewConfigurationError("no configuration")
	}
	var errs error
	fail := func(err error) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if cfg.Iterations < 0 {
		fail(errors.Errorf("iterations must not be negative, got %d", cfg.Iterations))
	}
	if cfg.BatchSize < 1 {
		fail(errors.Errorf("batch_size must be positive, got %d", cfg.BatchSize))
	}
	if !lo.Contains(SamplingStrategies, cfg.SamplingStrategy) {
		fail(errors.Errorf("unknown sampling_strategy %q, expected one of %v", cfg.SamplingStrategy, SamplingStrategies))
	}
	if cfg.DilationIterations < 0 {
		fail(errors.Errorf("dilation_iterations must not be negative, got %d", cfg.DilationIterations))
	}
	if cfg.KernelSize < 1 {
		fail(errors.Errorf("kernel_size must be positive, got %d", cfg.KernelSize))
	}
	if !(cfg.LearningRate > 0) || math.IsInf(cfg.LearningRate, 0) {
		fail(errors.Errorf("learning_rate must be positive, got %v", cfg.LearningRate))
	}
	if kind, err := noise.ParseKind(cfg.Noise); err != nil {
		fail(err)
	} else if err := cfg.noiseParams().Validate(kind); err != nil {
		fail(err)
	}
	if cfg.BrightnessDelta < -1 || cfg.BrightnessDelta > 1 || math.IsNaN(cfg.BrightnessDelta) {
		fail(errors.Errorf("brightness_delta must be in [-1, 1], got %v", cfg.BrightnessDelta))
	}
	if cfg.ResampleInterval < 1 {
		fail(errors.Errorf("resample_interval must be positive, got %d", cfg.ResampleInterval))
	}
	if cfg.PhotometricWeight < 0 || !utils.IsFinite(cfg.PhotometricWeight) {
		fail(errors.Errorf("photometric_weight must be a non-negative number, got %v", cfg.PhotometricWeight))
	}
	if cfg.DepthLoss != DepthLossMSE && cfg.DepthLoss != DepthLossUncertainty {
		fail(errors.Errorf("unknown depth_loss %q", cfg.DepthLoss))
	}
	if cfg.ReportInterval < 1 {
		fail(errors.Errorf("report_interval must be positive, got %d", cfg.ReportInterval))
	}
	if cfg.ImportanceSampling.Enabled && cfg.ImportanceSampling.FineSize < 1 {
		fail(errors.Errorf("importance_sampling.fine_size must be positive, got %d", cfg.ImportanceSampling.FineSize))
	}
	if cfg.FAST != nil {
		if err := cfg.FAST.Validate(path + ".fast"); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errors.Wrap(ErrConfiguration, errs.Error())
	}
	return nil
}

func (cfg *Config) noiseKind() noise.Kind {
	kind, err := noise.ParseKind(cfg.Noise)
	if err != nil {
		return noise.None
	}
	return kind
}

func (cfg *Config) noiseParams() noise.Params {
	return noise.Params{Sigma: cfg.NoiseSigma, Amount: cfg.NoiseAmount}
}

func (cfg *Config) needsInterestPoints() bool {
	return cfg.SamplingStrategy == StrategyInterestPoints || cfg.SamplingStrategy == StrategyInterestRegions
}
