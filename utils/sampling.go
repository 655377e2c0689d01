package utils

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// NewRand returns a deterministic generator for the given seed. Two generators built from the
// same seed produce identical streams.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(NewSource(seed))
}

// NewSource returns the deterministic source behind NewRand.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// SampleWithoutReplacement returns k distinct indices drawn uniformly from [0, n).
func SampleWithoutReplacement(k, n int, src rand.Source) ([]int, error) {
	if k < 0 || n < 0 {
		return nil, errors.Errorf("cannot sample %d of %d indices", k, n)
	}
	if k > n {
		return nil, errors.Errorf("cannot sample %d unique indices from a pool of %d", k, n)
	}
	if k == 0 {
		return []int{}, nil
	}
	idxs := make([]int, k)
	sampleuv.WithoutReplacement(idxs, n, src)
	return idxs, nil
}
