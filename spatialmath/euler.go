package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/inerf/utils"
)

// EulerAngles is a Z-Y-X decomposition of a rotation block, in degrees.
type EulerAngles struct {
	Phi   float64 `json:"phi"`
	Theta float64 `json:"theta"`
	Psi   float64 `json:"psi"`
}

// PoseDecomposition is the summary of a pose used to compare two camera poses: three angles and
// the length of the translation.
type PoseDecomposition struct {
	Angles            EulerAngles
	TranslationLength float64
}

// RotationMatrix returns Rz(phi) * Ry(theta) * Rx(psi), the rotation Decompose reads back.
func (ea EulerAngles) RotationMatrix() *mat.Dense {
	sf, cf := math.Sincos(utils.DegToRad(ea.Phi))
	st, ct := math.Sincos(utils.DegToRad(ea.Theta))
	sp, cp := math.Sincos(utils.DegToRad(ea.Psi))
	return mat.NewDense(3, 3, []float64{
		cf * ct, cf*st*sp - sf*cp, cf*st*cp + sf*sp,
		sf * ct, sf*st*sp + cf*cp, sf*st*cp - cf*sp,
		-st, ct * sp, ct * cp,
	})
}

// NewPoseFromEulerAngles builds a pose from Z-Y-X Euler angles in degrees and a translation.
func NewPoseFromEulerAngles(ea EulerAngles, translation r3.Vector) *Pose {
	return NewPose(ea.RotationMatrix(), translation)
}

// Decompose returns the Euler angles and the translation length of the pose:
//
//	phi   = atan2(R10, R00)
//	theta = atan2(-R20, sqrt(R21^2 + R22^2))
//	psi   = atan2(R21, R22)
func (p *Pose) Decompose() PoseDecomposition {
	r21, r22 := p.At(2, 1), p.At(2, 2)
	return PoseDecomposition{
		Angles: EulerAngles{
			Phi:   utils.RadToDeg(math.Atan2(p.At(1, 0), p.At(0, 0))),
			Theta: utils.RadToDeg(math.Atan2(-p.At(2, 0), math.Hypot(r21, r22))),
			Psi:   utils.RadToDeg(math.Atan2(r21, r22)),
		},
		TranslationLength: p.Translation().Norm(),
	}
}

// AngleError is the absolute difference of two angles in degrees. Differences of 300 degrees or
// more are treated as wraparound across +-180 and replaced by |diff - 360|.
func AngleError(ref, cur float64) float64 {
	diff := math.Abs(ref - cur)
	if diff >= 300 {
		diff = math.Abs(diff - 360)
	}
	return diff
}

// PoseError compares a pose against a reference. The rotation error is the sum of the per-axis
// angle errors in degrees and the translation error is the difference of translation lengths.
func PoseError(ref, cur PoseDecomposition) (rotation, translation float64) {
	rotation = AngleError(ref.Angles.Phi, cur.Angles.Phi) +
		AngleError(ref.Angles.Theta, cur.Angles.Theta) +
		AngleError(ref.Angles.Psi, cur.Angles.Psi)
	translation = math.Abs(ref.TranslationLength - cur.TranslationLength)
	return rotation, translation
}
