// Package noise perturbs float images with the stochastic noise models used to stress pose
// refinement.
package noise

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/inerf/rimage"
)

// Kind names a noise model.
type Kind string

// The supported noise models.
const (
	None          Kind = "none"
	Gaussian      Kind = "gaussian"
	SaltAndPepper Kind = "salt_and_pepper"
	Salt          Kind = "salt"
	Pepper        Kind = "pepper"
	Poisson       Kind = "poisson"
)

// Kinds lists every supported noise model.
var Kinds = []Kind{None, Gaussian, SaltAndPepper, Salt, Pepper, Poisson}

// ParseKind maps a configured name to a Kind. An empty name means None and "s_and_p" and "s&p" are
// accepted for SaltAndPepper.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(None):
		return None, nil
	case "s_and_p", "s&p":
		return SaltAndPepper, nil
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !lo.Contains(Kinds, kind) {
		return "", errors.Errorf("unknown noise kind %q, expected one of %v", name, Kinds)
	}
	return kind, nil
}

// Params are the per-kind noise parameters. Sigma is the standard deviation of gaussian noise and
// Amount the fraction of replaced values for the impulse kinds.
type Params struct {
	Sigma  float64
	Amount float64
}

// Validate checks the parameters the given kind reads.
func (p Params) Validate(kind Kind) error {
	switch kind {
	case Gaussian:
		if p.Sigma < 0 || math.IsNaN(p.Sigma) {
			return errors.Errorf("gaussian noise sigma must not be negative, got %v", p.Sigma)
		}
	case SaltAndPepper, Salt, Pepper:
		if !(p.Amount >= 0 && p.Amount <= 1) {
			return errors.Errorf("%s noise amount must be in [0, 1], got %v", kind, p.Amount)
		}
	case None, Poisson:
	default:
		return errors.Errorf("unknown noise kind %q", kind)
	}
	return nil
}

// A Generator perturbs an image in [0, 1] and returns a new image of the same size in [0, 1].
// Apply may be called from several goroutines at once.
type Generator interface {
	Apply(img *rimage.FloatImage, kind Kind, p Params) (*rimage.FloatImage, error)
}

// Random is a Generator that draws from its own random source. Calls to Apply are serialized, so
// each call consumes one contiguous run of the source.
type Random struct {
	mu  sync.Mutex
	src rand.Source
	rng *rand.Rand
}

// NewRandom returns a generator reading from src.
func NewRandom(src rand.Source) *Random {
	return &Random{src: src, rng: rand.New(src)}
}

// Apply perturbs img with the given noise kind. The input is never modified.
func (r *Random) Apply(img *rimage.FloatImage, kind Kind, p Params) (*rimage.FloatImage, error) {
	if err := p.Validate(kind); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case None:
		return img.Clone(), nil
	case Gaussian:
		return r.gaussian(img, p.Sigma), nil
	case SaltAndPepper:
		return r.impulse(img, p.Amount, 0.5), nil
	case Salt:
		return r.impulse(img, p.Amount, 1), nil
	case Pepper:
		return r.impulse(img, p.Amount, 0), nil
	case Poisson:
		return r.poisson(img), nil
	default:
		return nil, errors.Errorf("unknown noise kind %q", kind)
	}
}

// gaussian adds zero-mean noise of variance sigma^2 to every channel and clips to [0, 1].
func (r *Random) gaussian(img *rimage.FloatImage, sigma float64) *rimage.FloatImage {
	if sigma == 0 {
		return img.Clone()
	}
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: r.src}
	return img.Map(func(v float64) float64 {
		return clip(v + dist.Rand())
	})
}

// impulse replaces each channel value with probability amount; a replaced value becomes 1 with
// probability saltVsPepper and 0 otherwise.
func (r *Random) impulse(img *rimage.FloatImage, amount, saltVsPepper float64) *rimage.FloatImage {
	return img.Map(func(v float64) float64 {
		flipped := r.rng.Float64() <= amount
		salted := r.rng.Float64() < saltVsPepper
		switch {
		case flipped && salted:
			return 1
		case flipped:
			return 0
		default:
			return v
		}
	})
}

// poisson treats every channel value as a photon count scaled by the next power of two at or above
// the number of distinct values in the image.
func (r *Random) poisson(img *rimage.FloatImage) *rimage.FloatImage {
	channels := img.Channels()
	unique := len(lo.Uniq(channels))
	vals := math.Pow(2, math.Ceil(math.Log2(float64(unique))))
	return img.Map(func(v float64) float64 {
		lambda := v * vals
		if lambda <= 0 {
			return 0
		}
		return clip(distuv.Poisson{Lambda: lambda, Src: r.src}.Rand() / vals)
	})
}

func clip(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
