package posefit

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/inerf/spatialmath"
)

// Diagnostic reports how far the candidate pose of an iteration is from the reference pose.
// Diagnostics are only reported; they never change the optimization.
type Diagnostic struct {
	Iteration        int
	Loss             float64
	LearningRate     float64
	RotationError    float64
	TranslationError float64
}

// A Reporter receives every diagnostic of a refinement as it is made.
type Reporter func(Diagnostic)

// isReportIteration is true at the first iteration and then once every interval iterations.
func isReportIteration(k, interval int) bool {
	return k == 0 || (k+1)%interval == 0
}

func diagnose(k int, loss, learningRate float64, ref spatialmath.PoseDecomposition, pose *spatialmath.Pose) Diagnostic {
	rot, trans := spatialmath.PoseError(ref, pose.Decompose())
	return Diagnostic{
		Iteration:        k,
		Loss:             loss,
		LearningRate:     learningRate,
		RotationError:    rot,
		TranslationError: trans,
	}
}

// Diagnostics is the ordered list of diagnostics of one refinement.
type Diagnostics []Diagnostic

// RotationErrors returns the rotation error of every diagnostic, in degrees.
func (ds Diagnostics) RotationErrors() []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.RotationError
	}
	return out
}

// TranslationErrors returns the translation error of every diagnostic.
func (ds Diagnostics) TranslationErrors() []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.TranslationError
	}
	return out
}

// WindowMeans averages values over consecutive windows of the given size. A trailing partial
// window is averaged over what it holds.
func WindowMeans(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	var means []float64
	for start := 0; start < len(values); start += window {
		end := start + window
		if end > len(values) {
			end = len(values)
		}
		means = append(means, stat.Mean(values[start:end], nil))
	}
	return means
}

var plotColors = map[string]color.Color{
	"rotation error (deg)": color.RGBA{R: 200, A: 255},
	"translation error":    color.RGBA{B: 200, A: 255},
	"loss":                 color.RGBA{G: 140, A: 255},
}

// SavePlot draws the loss and both pose errors against the iteration and saves the plot to
// path. The format follows the extension of path.
func (ds Diagnostics) SavePlot(path string) error {
	if len(ds) == 0 {
		return errors.New("no diagnostics to plot")
	}
	p := plot.New()
	p.Title.Text = "pose refinement"
	p.X.Label.Text = "iteration"

	series := []struct {
		name  string
		value func(Diagnostic) float64
	}{
		{"rotation error (deg)", func(d Diagnostic) float64 { return d.RotationError }},
		{"translation error", func(d Diagnostic) float64 { return d.TranslationError }},
		{"loss", func(d Diagnostic) float64 { return d.Loss }},
	}
	for _, s := range series {
		pts := make(plotter.XYs, len(ds))
		for i, d := range ds {
			pts[i] = plotter.XY{X: float64(d.Iteration), Y: s.value(d)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "cannot plot %s", s.name)
		}
		line.Color = plotColors[s.name]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
