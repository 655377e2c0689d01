package spatialmath

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TwistDim is the number of scalar parameters of a Twist.
const TwistDim = 7

// twistInitSigma is the standard deviation of the zero-mean distribution fresh twists are drawn
// from, so that a new twist is a near-identity correction.
const twistInitSigma = 1e-6

// Twist is a minimal parameterization of a rigid transform: a rotation generator W, a translation
// generator V and a scalar angle Theta. Its parameter vector is ordered
// [W.X, W.Y, W.Z, V.X, V.Y, V.Z, Theta].
type Twist struct {
	W     r3.Vector
	V     r3.Vector
	Theta float64
}

// NewRandomTwist draws every parameter from N(0, 1e-6).
func NewRandomTwist(src rand.Source) Twist {
	dist := distuv.Normal{Mu: 0, Sigma: twistInitSigma, Src: src}
	var params [TwistDim]float64
	for i := range params {
		params[i] = dist.Rand()
	}
	return NewTwistFromParams(params[:])
}

// NewTwistFromParams builds a twist from its parameter vector. It panics when params does not have
// TwistDim entries.
func NewTwistFromParams(params []float64) Twist {
	if len(params) != TwistDim {
		panic(errors.Errorf("twist needs %d parameters, got %d", TwistDim, len(params)))
	}
	return Twist{
		W:     r3.Vector{X: params[0], Y: params[1], Z: params[2]},
		V:     r3.Vector{X: params[3], Y: params[4], Z: params[5]},
		Theta: params[6],
	}
}

// Params returns the parameter vector of the twist.
func (tw Twist) Params() []float64 {
	return []float64{tw.W.X, tw.W.Y, tw.W.Z, tw.V.X, tw.V.Y, tw.V.Z, tw.Theta}
}

// Skew returns the skew-symmetric matrix [v]x such that [v]x * u = v x u.
func Skew(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// Exp maps the twist to a rigid transform with the closed form
//
//	R = I + sin(Theta)[W]x + (1-cos(Theta))[W]x^2
//	t = (I*Theta + (1-cos(Theta))[W]x + (Theta-sin(Theta))[W]x^2) * V
//
// W is used as given. The rotation block is only orthonormal when |W| = 1 or Theta = 0.
func (tw Twist) Exp() *Pose {
	sin, cos := math.Sincos(tw.Theta)
	k := Skew(tw.W)
	var k2 mat.Dense
	k2.Mul(k, k)
	rot := combine(1, k, sin, &k2, 1-cos)
	v := combine(tw.Theta, k, 1-cos, &k2, tw.Theta-sin)
	return NewPose(rot, mulVec(v, tw.V))
}

// combine returns c0*I + c1*k + c2*k2.
func combine(c0 float64, k mat.Matrix, c1 float64, k2 mat.Matrix, c2 float64) *mat.Dense {
	out := eye(3)
	out.Scale(c0, out)
	var term mat.Dense
	term.Scale(c1, k)
	out.Add(out, &term)
	term.Scale(c2, k2)
	out.Add(out, &term)
	return out
}

func mulVec(m mat.Matrix, v r3.Vector) r3.Vector {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Apply returns the candidate pose Exp() * start.
func (tw Twist) Apply(start *Pose) *Pose {
	return tw.Exp().Compose(start)
}

// Jacobian returns the 12x7 derivative of Apply(start).Entries() with respect to Params().
// Column j is dExp/dp_j * start, with the derivative of Exp taken term by term.
func (tw Twist) Jacobian(start *Pose) *mat.Dense {
	sin, cos := math.Sincos(tw.Theta)
	k := Skew(tw.W)
	var k2 mat.Dense
	k2.Mul(k, k)
	vMat := combine(tw.Theta, k, 1-cos, &k2, tw.Theta-sin)

	derivs := make([]*mat.Dense, 0, TwistDim)
	axes := [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	for _, e := range axes {
		// d[W]x^2 = E[W]x + [W]xE
		ei := Skew(e)
		var dk2, tmp mat.Dense
		dk2.Mul(ei, k)
		tmp.Mul(k, ei)
		dk2.Add(&dk2, &tmp)

		dRot := combine(0, ei, sin, &dk2, 1-cos)
		dV := combine(0, ei, 1-cos, &dk2, tw.Theta-sin)
		derivs = append(derivs, NewPose(dRot, mulVec(dV, tw.V)).m)
	}
	for _, e := range axes {
		d := NewPose(mat.NewDense(3, 3, nil), mulVec(vMat, e)).m
		derivs = append(derivs, d)
	}
	dRot := combine(0, k, cos, &k2, sin)
	dV := combine(1, k, sin, &k2, 1-cos)
	derivs = append(derivs, NewPose(dRot, mulVec(dV, tw.V)).m)

	jac := mat.NewDense(PoseEntries, TwistDim, nil)
	var dPose mat.Dense
	for col, d := range derivs {
		// the homogeneous row of a derivative is zero
		d.Set(3, 3, 0)
		dPose.Mul(d, start.m)
		for i := 0; i < PoseEntries; i++ {
			jac.Set(i, col, dPose.At(i/4, i%4))
		}
	}
	return jac
}
