package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA represents an R4 axis angle: a unit axis (RX, RY, RZ) and a rotation Theta about it, in
// radians. It is how ground-truth and perturbed camera poses are written down by hand.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// ToQuat converts an R4 axis angle to a unit quaternion.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() (quat.Number, error) {
	if err := r4.Normalize(); err != nil {
		return quat.Number{}, err
	}
	sinA := math.Sin(r4.Theta / 2)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	}, nil
}

// RotationMatrix returns the 3x3 rotation matrix of the axis angle.
func (r4 *R4AA) RotationMatrix() (*mat.Dense, error) {
	q, err := r4.ToQuat()
	if err != nil {
		return nil, err
	}
	return quatToRotationMatrix(q), nil
}

// Normalize scales the x, y, and z components of a R4 axis angle to be on the unit sphere.
func (r4 *R4AA) Normalize() error {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0.0 {
		return errors.New("cannot normalize R4AA with a zero axis")
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
	return nil
}

// quatToRotationMatrix converts a unit quaternion to a 3x3 rotation matrix.
func quatToRotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// NewPoseFromAxisAngle builds a pose from an axis-angle rotation and a translation.
func NewPoseFromAxisAngle(aa *R4AA, translation r3.Vector) (*Pose, error) {
	rot, err := aa.RotationMatrix()
	if err != nil {
		return nil, err
	}
	return NewPose(rot, translation), nil
}
