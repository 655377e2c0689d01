package posefit

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/test"

	"go.viam.com/inerf/utils"
)

func inBounds(pts []image.Point, w, h int) bool {
	return lo.EveryBy(pts, func(p image.Point) bool {
		return p.In(image.Rect(0, 0, w, h))
	})
}

func sameSet(a, b []image.Point) bool {
	return len(a) == len(b) && lo.Every(a, b) && lo.Every(b, a)
}

func TestRandomSampler(t *testing.T) {
	s, err := NewSampler(StrategyRandom, 50, 12, 9, nil, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.BatchSize(), test.ShouldEqual, 50)

	rng := utils.NewRand(3)
	for i := 0; i < 10; i++ {
		batch, err := s.Sample(rng)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, batch, test.ShouldHaveLength, 50)
		test.That(t, lo.Uniq(batch), test.ShouldHaveLength, 50)
		test.That(t, inBounds(batch, 12, 9), test.ShouldBeTrue)
	}

	// the whole image can be drawn
	s, err = NewSampler(StrategyRandom, 12*9, 12, 9, nil, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	batch, err := s.Sample(rng)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sameSet(batch, utils.PixelGrid(12, 9)), test.ShouldBeTrue)

	_, err = NewSampler(StrategyRandom, 12*9+1, 12, 9, nil, 5, 3)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
}

func TestRandomSamplerIsDeterministic(t *testing.T) {
	s, err := NewSampler(StrategyRandom, 20, 30, 30, nil, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	a, err := s.Sample(utils.NewRand(11))
	test.That(t, err, test.ShouldBeNil)
	b, err := s.Sample(utils.NewRand(11))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a, test.ShouldResemble, b)
}

func TestInterestPointSampler(t *testing.T) {
	poi := []image.Point{{1, 1}, {5, 2}, {7, 7}, {0, 9}}

	// enough interest points: the batch only holds interest points
	s, err := NewSampler(StrategyInterestPoints, 3, 10, 10, poi, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	rng := utils.NewRand(1)
	for i := 0; i < 10; i++ {
		batch, err := s.Sample(rng)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, batch, test.ShouldHaveLength, 3)
		test.That(t, lo.Uniq(batch), test.ShouldHaveLength, 3)
		test.That(t, lo.Every(poi, batch), test.ShouldBeTrue)
	}

	// too few: every interest point first, then other pixels
	s, err = NewSampler(StrategyInterestPoints, 30, 10, 10, poi, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 10; i++ {
		batch, err := s.Sample(rng)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, batch, test.ShouldHaveLength, 30)
		test.That(t, sameSet(batch[:len(poi)], poi), test.ShouldBeTrue)
		test.That(t, lo.Intersect(batch[len(poi):], poi), test.ShouldBeEmpty)
		test.That(t, lo.Uniq(batch), test.ShouldHaveLength, 30)
		test.That(t, inBounds(batch, 10, 10), test.ShouldBeTrue)
	}

	// duplicated interest points count once
	s, err = NewSampler(StrategyInterestPoints, 5, 10, 10, []image.Point{{2, 2}, {2, 2}}, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	batch, err := s.Sample(rng)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, batch[0], test.ShouldResemble, image.Point{2, 2})
	test.That(t, lo.Uniq(batch), test.ShouldHaveLength, 5)

	_, err = NewSampler(StrategyInterestPoints, 5, 10, 10, nil, 5, 3)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
	_, err = NewSampler(StrategyInterestPoints, 101, 10, 10, poi, 5, 3)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
}

func TestInterestRegionSampler(t *testing.T) {
	poi := []image.Point{{10, 10}, {30, 20}}
	s, err := NewSampler(StrategyInterestRegions, 40, 40, 30, poi, 5, 1)
	test.That(t, err, test.ShouldBeNil)
	regions := s.(*interestRegionSampler).region
	test.That(t, regions, test.ShouldHaveLength, 50)

	batch, err := s.Sample(utils.NewRand(5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, batch, test.ShouldHaveLength, 40)
	test.That(t, lo.Uniq(batch), test.ShouldHaveLength, 40)
	for _, p := range batch {
		near := lo.SomeBy(poi, func(q image.Point) bool {
			d := p.Sub(q)
			return d.X >= -2 && d.X <= 2 && d.Y >= -2 && d.Y <= 2
		})
		test.That(t, near, test.ShouldBeTrue)
	}

	_, err = NewSampler(StrategyInterestRegions, 51, 40, 30, poi, 5, 1)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
	_, err = NewSampler(StrategyInterestRegions, 1, 40, 30, nil, 5, 1)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
	_, err = NewSampler(StrategyInterestRegions, 1, 40, 30, []image.Point{{40, 0}}, 5, 1)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
}

func TestInterestRegionsGrow(t *testing.T) {
	poi := []image.Point{{3, 3}, {20, 8}, {12, 25}}
	size := func(kernel, dilations int) int {
		s, err := NewSampler(StrategyInterestRegions, 1, 32, 32, poi, kernel, dilations)
		test.That(t, err, test.ShouldBeNil)
		return len(s.(*interestRegionSampler).region)
	}
	test.That(t, size(5, 0), test.ShouldEqual, len(poi))
	for kernel := 1; kernel <= 7; kernel++ {
		prev := 0
		for dilations := 0; dilations <= 4; dilations++ {
			n := size(kernel, dilations)
			test.That(t, n, test.ShouldBeGreaterThanOrEqualTo, prev)
			if kernel > 1 {
				test.That(t, n, test.ShouldBeGreaterThanOrEqualTo, size(kernel-1, dilations))
			}
			prev = n
		}
	}
}

func TestUnknownStrategy(t *testing.T) {
	_, err := NewSampler("unknown", 1, 10, 10, nil, 5, 3)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
	_, err = NewSampler(StrategyRandom, 0, 10, 10, nil, 5, 3)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
}
