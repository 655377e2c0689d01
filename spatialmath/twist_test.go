package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/inerf/utils"
)

func testStartPose(t *testing.T) *Pose {
	t.Helper()
	start, err := NewPoseFromAxisAngle(&R4AA{Theta: 0.4, RX: 0.2, RY: -1, RZ: 0.5}, r3.Vector{X: 0.3, Y: -0.1, Z: 1.2})
	test.That(t, err, test.ShouldBeNil)
	return start
}

func TestTwistNearZeroIsIdentity(t *testing.T) {
	tw := NewRandomTwist(utils.NewSource(1))
	for _, p := range tw.Params() {
		test.That(t, math.Abs(p), test.ShouldBeLessThan, 1e-4)
	}
	test.That(t, PoseAlmostEqualEps(tw.Exp(), NewIdentityPose(), 1e-9), test.ShouldBeTrue)

	start := testStartPose(t)
	test.That(t, PoseAlmostEqualEps(tw.Apply(start), start, 1e-8), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(Twist{}.Exp(), NewIdentityPose()), test.ShouldBeTrue)
}

func TestTwistRandomIsDeterministic(t *testing.T) {
	a := NewRandomTwist(utils.NewSource(42))
	b := NewRandomTwist(utils.NewSource(42))
	test.That(t, a, test.ShouldResemble, b)
	c := NewRandomTwist(utils.NewSource(43))
	test.That(t, a, test.ShouldNotResemble, c)
}

func TestTwistExpUnitAxis(t *testing.T) {
	// with a unit rotation generator the map is the closed form
	// R = I + sin(th)[w] + (1-cos(th))[w]^2, t = (I*th + (1-cos(th))[w] + (th-sin(th))[w]^2) v
	w := r3.Vector{X: 1, Y: 2, Z: -2}.Normalize()
	v := r3.Vector{X: 0.5, Y: -0.25, Z: 0.75}
	theta := 0.7
	pose := Twist{W: w, V: v, Theta: theta}.Exp()

	k := Skew(w)
	var k2 mat.Dense
	k2.Mul(k, k)
	var rot, tmp mat.Dense
	rot.Scale(math.Sin(theta), k)
	tmp.Scale(1-math.Cos(theta), &k2)
	rot.Add(&rot, &tmp)
	rot.Add(&rot, eye(3))

	var vm mat.Dense
	vm.Scale(theta, eye(3))
	tmp.Scale(1-math.Cos(theta), k)
	vm.Add(&vm, &tmp)
	tmp.Scale(theta-math.Sin(theta), &k2)
	vm.Add(&vm, &tmp)
	var tv mat.VecDense
	tv.MulVec(&vm, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))

	expected := NewPose(&rot, r3.Vector{X: tv.AtVec(0), Y: tv.AtVec(1), Z: tv.AtVec(2)})
	test.That(t, PoseAlmostEqualEps(pose, expected, 1e-12), test.ShouldBeTrue)
}

func TestTwistExpNonUnitAxis(t *testing.T) {
	// the generator is not normalized, so the rotation block scales with |w|^2
	pose := Twist{W: r3.Vector{X: 2}, V: r3.Vector{Y: 1}, Theta: math.Pi / 2}.Exp()
	test.That(t, pose.At(0, 0), test.ShouldAlmostEqual, 1)
	test.That(t, pose.At(1, 1), test.ShouldAlmostEqual, -3)
	test.That(t, pose.At(2, 2), test.ShouldAlmostEqual, -3)
	test.That(t, pose.At(1, 2), test.ShouldAlmostEqual, -2)
	test.That(t, pose.At(2, 1), test.ShouldAlmostEqual, 2)
	test.That(t, pose.At(0, 3), test.ShouldAlmostEqual, 0)
	test.That(t, pose.At(1, 3), test.ShouldAlmostEqual, math.Pi/2-4*(math.Pi/2-1))
	test.That(t, pose.At(2, 3), test.ShouldAlmostEqual, 2)
	test.That(t, pose.IsOrthonormal(1e-6), test.ShouldBeFalse)

	unit := Twist{W: r3.Vector{X: 0.6, Y: 0, Z: 0.8}, V: r3.Vector{X: 1, Z: -1}, Theta: 1.3}.Exp()
	test.That(t, unit.IsOrthonormal(1e-12), test.ShouldBeTrue)
}

func TestTwistJacobian(t *testing.T) {
	start := testStartPose(t)
	for _, tw := range []Twist{
		{W: r3.Vector{X: 0.3, Y: -0.2, Z: 0.9}, V: r3.Vector{X: 0.2, Y: 0.1, Z: -0.3}, Theta: 0.6},
		{W: r3.Vector{X: 2, Y: 1}, V: r3.Vector{X: -0.5, Z: 0.4}, Theta: -1.1},
		{W: r3.Vector{X: 1e-6, Y: -2e-6, Z: 1e-6}, V: r3.Vector{X: 1e-6}, Theta: 1e-6},
	} {
		checkTwistJacobian(t, tw, start)
	}
}

func checkTwistJacobian(t *testing.T, tw Twist, start *Pose) {
	t.Helper()
	analytic := tw.Jacobian(start)
	rows, cols := analytic.Dims()
	test.That(t, rows, test.ShouldEqual, PoseEntries)
	test.That(t, cols, test.ShouldEqual, TwistDim)

	numeric := mat.NewDense(PoseEntries, TwistDim, nil)
	fd.Jacobian(numeric, func(y, x []float64) {
		entries := NewTwistFromParams(x).Apply(start).Entries()
		copy(y, entries[:])
	}, tw.Params(), &fd.JacobianSettings{Formula: fd.Central})
	test.That(t, mat.EqualApprox(analytic, numeric, 1e-6), test.ShouldBeTrue)
}

func TestTwistParamsRoundTrip(t *testing.T) {
	params := []float64{1, 2, 3, 4, 5, 6, 7}
	test.That(t, NewTwistFromParams(params).Params(), test.ShouldResemble, params)
	test.That(t, func() { NewTwistFromParams(params[:3]) }, test.ShouldPanic)
}
