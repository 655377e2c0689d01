package posefit

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Adam is the first-order optimizer of Kingma and Ba over a fixed-size parameter vector.
// LearningRate may be changed between steps.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v []float64
	t    int
}

// NewAdam returns an optimizer for n parameters with the usual betas (0.9, 0.999).
func NewAdam(n int, learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		m:            make([]float64, n),
		v:            make([]float64, n),
	}
}

// Step moves params one step against grad, in place.
func (a *Adam) Step(params, grad []float64) {
	if len(params) != len(a.m) || len(grad) != len(a.m) {
		panic("adam: parameter length mismatch")
	}
	a.t++
	floats.Scale(a.Beta1, a.m)
	floats.AddScaled(a.m, 1-a.Beta1, grad)
	for i, g := range grad {
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
	}

	bias1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bias2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i := range params {
		mHat := a.m[i] / bias1
		vHat := a.v[i] / bias2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

// Steps is the number of steps taken so far.
func (a *Adam) Steps() int {
	return a.t
}

// DecayedLearningRate is the learning rate used after iteration k: base*0.8^((k+1)/100). It is
// always computed from base, never from the previous rate.
func DecayedLearningRate(base float64, k int) float64 {
	return base * math.Pow(0.8, float64(k+1)/100)
}
