// Package spatialmath defines rigid camera poses and the twist parameterization used to refine them.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PoseEntries is the number of free entries of a homogeneous rigid transform, i.e. the
// row-major top 3x4 block.
const PoseEntries = 12

// Pose is a 4x4 homogeneous rigid transform: a 3x3 rotation block, a 3x1 translation and a
// bottom row of [0 0 0 1]. Poses are immutable once built.
type Pose struct {
	m *mat.Dense
}

// NewIdentityPose returns the pose that does not move anything.
func NewIdentityPose() *Pose {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Pose{m}
}

// NewPose assembles a pose from a 3x3 rotation block and a translation.
func NewPose(rotation mat.Matrix, translation r3.Vector) *Pose {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rotation.At(i, j))
		}
	}
	m.Set(0, 3, translation.X)
	m.Set(1, 3, translation.Y)
	m.Set(2, 3, translation.Z)
	m.Set(3, 3, 1)
	return &Pose{m}
}

// NewPoseFromDense copies a 4x4 matrix into a pose. The matrix must be 4x4 with a
// homogeneous bottom row.
func NewPoseFromDense(m mat.Matrix) (*Pose, error) {
	if m == nil {
		return nil, errors.New("pose matrix is nil")
	}
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return nil, errors.Errorf("pose matrix must be 4x4, got %dx%d", r, c)
	}
	bottom := [4]float64{0, 0, 0, 1}
	for j := 0; j < 4; j++ {
		if m.At(3, j) != bottom[j] {
			return nil, errors.Errorf("pose matrix bottom row must be [0 0 0 1], got %v", mat.Row(nil, 3, m))
		}
	}
	return &Pose{mat.DenseCopyOf(m)}, nil
}

// NewPoseFromRows builds a pose from a row-major 4x4 slice, which is how poses are usually
// written down in tests and configuration files.
func NewPoseFromRows(rows [4][4]float64) (*Pose, error) {
	data := make([]float64, 0, 16)
	for _, row := range rows {
		data = append(data, row[:]...)
	}
	return NewPoseFromDense(mat.NewDense(4, 4, data))
}

// newPoseFromEntries rebuilds a pose from its 12 free entries.
func newPoseFromEntries(entries [PoseEntries]float64) *Pose {
	m := mat.NewDense(4, 4, nil)
	for k, v := range entries {
		m.Set(k/4, k%4, v)
	}
	m.Set(3, 3, 1)
	return &Pose{m}
}

// At returns the entry of the homogeneous matrix at row i, column j.
func (p *Pose) At(i, j int) float64 {
	return p.m.At(i, j)
}

// Dense returns a copy of the homogeneous matrix.
func (p *Pose) Dense() *mat.Dense {
	return mat.DenseCopyOf(p.m)
}

// Rotation returns a copy of the 3x3 rotation block.
func (p *Pose) Rotation() *mat.Dense {
	return mat.DenseCopyOf(p.m.Slice(0, 3, 0, 3))
}

// Translation returns the translation column.
func (p *Pose) Translation() r3.Vector {
	return r3.Vector{X: p.m.At(0, 3), Y: p.m.At(1, 3), Z: p.m.At(2, 3)}
}

// Entries returns the 12 free entries of the pose, row-major over the top 3x4 block.
func (p *Pose) Entries() [PoseEntries]float64 {
	var out [PoseEntries]float64
	for k := range out {
		out[k] = p.m.At(k/4, k%4)
	}
	return out
}

// Compose returns p * other, i.e. other expressed in p's frame.
func (p *Pose) Compose(other *Pose) *Pose {
	var m mat.Dense
	m.Mul(p.m, other.m)
	return &Pose{&m}
}

// Transform applies the pose to a point.
func (p *Pose) Transform(pt r3.Vector) r3.Vector {
	return r3.Vector{
		X: p.m.At(0, 0)*pt.X + p.m.At(0, 1)*pt.Y + p.m.At(0, 2)*pt.Z + p.m.At(0, 3),
		Y: p.m.At(1, 0)*pt.X + p.m.At(1, 1)*pt.Y + p.m.At(1, 2)*pt.Z + p.m.At(1, 3),
		Z: p.m.At(2, 0)*pt.X + p.m.At(2, 1)*pt.Y + p.m.At(2, 2)*pt.Z + p.m.At(2, 3),
	}
}

// IsFinite reports whether every entry of the pose is a finite number.
func (p *Pose) IsFinite() bool {
	for _, v := range p.m.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsOrthonormal reports whether the rotation block satisfies R^T R = I within tol.
func (p *Pose) IsOrthonormal(tol float64) bool {
	rot := p.Rotation()
	var rtr mat.Dense
	rtr.Mul(rot.T(), rot)
	return mat.EqualApprox(&rtr, eye(3), tol)
}

func (p *Pose) String() string {
	return fmt.Sprintf("%v", mat.Formatted(p.m, mat.Squeeze()))
}

// PoseAlmostEqualEps reports whether two poses agree entry-wise within epsilon.
func PoseAlmostEqualEps(a, b *Pose, epsilon float64) bool {
	return mat.EqualApprox(a.m, b.m, epsilon)
}

// PoseAlmostEqual reports whether two poses agree entry-wise within 1e-8.
func PoseAlmostEqual(a, b *Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
