package posefit

import (
	"image"
	"math/rand/v2"

	"github.com/samber/lo"

	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/utils"
)

// A Sampler draws the pixels of one batch. Every batch has the same size and holds each pixel at
// most once.
type Sampler interface {
	Sample(src rand.Source) ([]image.Point, error)
	BatchSize() int
}

// NewSampler builds the sampler of a strategy for a width x height image. poi is only read by the
// strategies built on interest points, which fail if it is empty.
func NewSampler(strategy SamplingStrategy, batchSize, width, height int, poi []image.Point, kernelSize, dilations int) (Sampler, error) {
	if batchSize < 1 {
		return nil, NewConfigurationError("batch size must be positive, got %d", batchSize)
	}
	switch strategy {
	case StrategyRandom:
		return newRandomSampler(batchSize, width, height)
	case StrategyInterestPoints:
		return newInterestPointSampler(batchSize, width, height, poi)
	case StrategyInterestRegions:
		return newInterestRegionSampler(batchSize, width, height, poi, kernelSize, dilations)
	default:
		return nil, NewConfigurationError("unknown sampling strategy %q", strategy)
	}
}

// randomSampler draws uniformly from the whole image.
type randomSampler struct {
	batchSize     int
	width, height int
}

func newRandomSampler(batchSize, width, height int) (*randomSampler, error) {
	if width*height < batchSize {
		return nil, NewConfigurationError("cannot draw %d pixels from a %dx%d image", batchSize, width, height)
	}
	return &randomSampler{batchSize: batchSize, width: width, height: height}, nil
}

func (s *randomSampler) BatchSize() int {
	return s.batchSize
}

func (s *randomSampler) Sample(src rand.Source) ([]image.Point, error) {
	idxs, err := utils.SampleWithoutReplacement(s.batchSize, s.width*s.height, src)
	if err != nil {
		return nil, err
	}
	dims := []int{s.height, s.width}
	sub := make([]int, 2)
	batch := make([]image.Point, len(idxs))
	for i, idx := range idxs {
		utils.SubFor(sub, idx, dims)
		batch[i] = image.Point{sub[1], sub[0]}
	}
	return batch, nil
}

// interestPointSampler draws from the interest points. When there are fewer of them than the
// batch size every interest point is taken, first, and the rest of the batch comes from the
// other pixels.
type interestPointSampler struct {
	batchSize int
	poi       []image.Point
	others    []image.Point
}

func newInterestPointSampler(batchSize, width, height int, poi []image.Point) (*interestPointSampler, error) {
	if len(poi) == 0 {
		return nil, NewConfigurationError("no interest points to sample from")
	}
	s := &interestPointSampler{batchSize: batchSize, poi: lo.Uniq(poi)}
	if len(s.poi) >= batchSize {
		return s, nil
	}
	isPOI := lo.SliceToMap(s.poi, func(p image.Point) (image.Point, struct{}) {
		return p, struct{}{}
	})
	s.others = lo.Filter(utils.PixelGrid(width, height), func(p image.Point, _ int) bool {
		_, ok := isPOI[p]
		return !ok
	})
	if len(s.poi)+len(s.others) < batchSize {
		return nil, NewConfigurationError("cannot draw %d pixels from a %dx%d image", batchSize, width, height)
	}
	return s, nil
}

func (s *interestPointSampler) BatchSize() int {
	return s.batchSize
}

func (s *interestPointSampler) Sample(src rand.Source) ([]image.Point, error) {
	if len(s.poi) >= s.batchSize {
		idxs, err := utils.SampleWithoutReplacement(s.batchSize, len(s.poi), src)
		if err != nil {
			return nil, err
		}
		return pick(s.poi, idxs), nil
	}
	idxs, err := utils.SampleWithoutReplacement(s.batchSize-len(s.poi), len(s.others), src)
	if err != nil {
		return nil, err
	}
	batch := make([]image.Point, 0, s.batchSize)
	batch = append(batch, s.poi...)
	return append(batch, pick(s.others, idxs)...), nil
}

// interestRegionSampler draws from the pixels of the interest points dilated by a square kernel.
type interestRegionSampler struct {
	batchSize int
	region    []image.Point
}

func newInterestRegionSampler(batchSize, width, height int, poi []image.Point, kernelSize, dilations int) (*interestRegionSampler, error) {
	if len(poi) == 0 {
		return nil, NewConfigurationError("no interest points to grow interest regions from")
	}
	mask, err := rimage.NewMaskFromPoints(width, height, poi)
	if err != nil {
		return nil, NewConfigurationError("%v", err)
	}
	mask, err = rimage.DilateSquare(mask, kernelSize, dilations)
	if err != nil {
		return nil, NewConfigurationError("%v", err)
	}
	region := mask.Points()
	if len(region) < batchSize {
		return nil, NewConfigurationError("interest regions hold %d pixels, fewer than the batch size %d", len(region), batchSize)
	}
	return &interestRegionSampler{batchSize: batchSize, region: region}, nil
}

func (s *interestRegionSampler) BatchSize() int {
	return s.batchSize
}

func (s *interestRegionSampler) Sample(src rand.Source) ([]image.Point, error) {
	idxs, err := utils.SampleWithoutReplacement(s.batchSize, len(s.region), src)
	if err != nil {
		return nil, err
	}
	return pick(s.region, idxs), nil
}

func pick(pts []image.Point, idxs []int) []image.Point {
	return lo.Map(idxs, func(idx, _ int) image.Point {
		return pts[idx]
	})
}
