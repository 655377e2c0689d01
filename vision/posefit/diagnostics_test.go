package posefit

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/inerf/spatialmath"
)

func TestIsReportIteration(t *testing.T) {
	var reported []int
	for k := 0; k < 100; k++ {
		if isReportIteration(k, 20) {
			reported = append(reported, k)
		}
	}
	test.That(t, reported, test.ShouldResemble, []int{0, 19, 39, 59, 79, 99})
}

func TestDiagnose(t *testing.T) {
	ref := spatialmath.NewPoseFromEulerAngles(spatialmath.EulerAngles{Phi: 170, Theta: 5, Psi: -3}, r3.Vector{X: 3, Y: 4})
	cur := spatialmath.NewPoseFromEulerAngles(spatialmath.EulerAngles{Phi: -170, Theta: 3, Psi: -3}, r3.Vector{Z: 4})

	d := diagnose(19, 0.5, 0.001, ref.Decompose(), cur)
	test.That(t, d.Iteration, test.ShouldEqual, 19)
	test.That(t, d.Loss, test.ShouldEqual, 0.5)
	test.That(t, d.LearningRate, test.ShouldEqual, 0.001)
	// 20 degrees across the wraparound plus 2 degrees
	test.That(t, d.RotationError, test.ShouldAlmostEqual, 22, 1e-9)
	test.That(t, d.TranslationError, test.ShouldAlmostEqual, 1)

	ds := Diagnostics{d, {RotationError: 1, TranslationError: 2}}
	test.That(t, ds.RotationErrors(), test.ShouldHaveLength, 2)
	test.That(t, ds.RotationErrors()[1], test.ShouldEqual, 1)
	test.That(t, ds.TranslationErrors()[1], test.ShouldEqual, 2)
}

func TestWindowMeans(t *testing.T) {
	test.That(t, WindowMeans([]float64{1, 3, 5, 7, 9}, 2), test.ShouldResemble, []float64{2, 6, 9})
	test.That(t, WindowMeans([]float64{1, 2}, 0), test.ShouldResemble, []float64{1, 2})
	test.That(t, WindowMeans(nil, 3), test.ShouldBeEmpty)
}

func TestSavePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refine.png")
	test.That(t, Diagnostics{}.SavePlot(path), test.ShouldNotBeNil)

	ds := Diagnostics{
		{Iteration: 0, Loss: 0.3, RotationError: 8, TranslationError: 0.1},
		{Iteration: 19, Loss: 0.1, RotationError: 3, TranslationError: 0.04},
		{Iteration: 39, Loss: 0.01, RotationError: 1, TranslationError: 0.01},
	}
	test.That(t, ds.SavePlot(path), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	// lines refuse points that are not finite
	ds[1].Loss = math.NaN()
	test.That(t, ds.SavePlot(path), test.ShouldNotBeNil)
}
