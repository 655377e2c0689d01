package keypoints

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go.viam.com/inerf/utils"
)

// FASTConfig holds the parameters necessary to compute the FAST keypoints.
type FASTConfig struct {
	NMatchesCircle int     `json:"n_matches" mapstructure:"n_matches"`
	NMSWinSize     int     `json:"nms_win_size" mapstructure:"nms_win_size"`
	Threshold      float64 `json:"threshold" mapstructure:"threshold"`
}

// DefaultFASTConfig returns the configuration used when none is given.
func DefaultFASTConfig() *FASTConfig {
	return &FASTConfig{NMatchesCircle: 9, NMSWinSize: 7, Threshold: 0.15}
}

// LoadFASTConfiguration loads a FASTConfig from a json file.
func LoadFASTConfiguration(file string) (*FASTConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, errors.Wrap(err, "error reading FAST configuration")
	}
	var cfg FASTConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing FAST configuration")
	}
	if err := cfg.Validate(file); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures all parts of the FASTConfig are valid.
func (cfg *FASTConfig) Validate(path string) error {
	if cfg.NMatchesCircle < 1 || cfg.NMatchesCircle > len(CircleIdx) {
		return utils.NewConfigValidationError(path,
			errors.Errorf("n_matches should be in [1, %d], got %d", len(CircleIdx), cfg.NMatchesCircle))
	}
	if cfg.NMSWinSize < 1 {
		return utils.NewConfigValidationError(path, errors.New("nms_win_size should be >= 1"))
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("threshold should be in [0, 1], got %v", cfg.Threshold))
	}
	return nil
}

var (
	// CrossIdx is the four-point cross of radius 3 used to reject most pixels early.
	CrossIdx = []image.Point{{0, 3}, {3, 0}, {0, -3}, {-3, 0}}
	// CircleIdx is the 16-point Bresenham circle of radius 3 around a candidate pixel.
	CircleIdx = []image.Point{
		{0, -3}, {1, -3}, {2, -2}, {3, -1},
		{3, 0}, {3, 1}, {2, 2}, {1, 3},
		{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
		{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
	}
)

// circleRadius is the distance from a candidate to the farthest circle pixel.
const circleRadius = 3

// GetPointValuesInNeighborhood returns the gray values of img at the offsets of neighborhood
// around p. Offsets falling outside the image read as 0.
func GetPointValuesInNeighborhood(img *image.Gray, p image.Point, neighborhood []image.Point) []float64 {
	vals := make([]float64, len(neighborhood))
	for i, off := range neighborhood {
		q := p.Add(off)
		if q.In(img.Bounds()) {
			vals[i] = float64(img.GrayAt(q.X, q.Y).Y)
		}
	}
	return vals
}

// isValidSliceVals reports whether s holds at least n consecutive values equal to 1.
func isValidSliceVals(s []float64, n int) bool {
	run := 0
	for _, v := range s {
		if v == 1 {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func sumOfPositiveValuesSlice(s []float64) float64 {
	sum := 0.
	for _, v := range s {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

func sumOfNegativeValuesSlice(s []float64) float64 {
	sum := 0.
	for _, v := range s {
		if v < 0 {
			sum += v
		}
	}
	return sum
}

// getBrighterValues returns 1 where s is strictly above t and 0 elsewhere.
func getBrighterValues(s []float64, t float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v > t {
			out[i] = 1
		}
	}
	return out
}

// getDarkerValues returns 1 where s is strictly below t and 0 elsewhere.
func getDarkerValues(s []float64, t float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v < t {
			out[i] = 1
		}
	}
	return out
}

// fastScore is the sum of absolute differences between the center and the circle pixels that
// are on the dominant side of it.
func fastScore(center float64, circle []float64) float64 {
	diffs := make([]float64, len(circle))
	for i, v := range circle {
		diffs[i] = v - center
	}
	return max(sumOfPositiveValuesSlice(diffs), -sumOfNegativeValuesSlice(diffs))
}

// isFASTCandidate runs the segment test on a pixel: NMatchesCircle contiguous circle pixels all
// brighter or all darker than the center by more than the threshold.
func isFASTCandidate(img *image.Gray, p image.Point, cfg *FASTConfig) (bool, float64) {
	center := float64(img.GrayAt(p.X, p.Y).Y)
	delta := cfg.Threshold * 255
	high, low := center+delta, center-delta

	// at least two cross pixels must agree before the full circle is read, when the arc is long
	// enough to always cover two of them
	if cfg.NMatchesCircle >= 9 {
		cross := GetPointValuesInNeighborhood(img, p, CrossIdx)
		if sumOfPositiveValuesSlice(getBrighterValues(cross, high)) < 2 &&
			sumOfPositiveValuesSlice(getDarkerValues(cross, low)) < 2 {
			return false, 0
		}
	}
	circle := GetPointValuesInNeighborhood(img, p, CircleIdx)
	if !isValidSliceVals(getBrighterValues(circle, high), cfg.NMatchesCircle) &&
		!isValidSliceVals(getDarkerValues(circle, low), cfg.NMatchesCircle) {
		return false, 0
	}
	return true, fastScore(center, circle)
}

// ComputeFAST computes the location of FAST keypoints, after non-maximum suppression over
// NMSWinSize x NMSWinSize windows. Keypoints are returned in row-major order.
func ComputeFAST(img *image.Gray, cfg *FASTConfig) KeyPoints {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scores := make([]float64, w*h)
	candidates := make([]image.Point, 0)
	for y := b.Min.Y + circleRadius; y < b.Max.Y-circleRadius; y++ {
		for x := b.Min.X + circleRadius; x < b.Max.X-circleRadius; x++ {
			p := image.Point{x, y}
			if ok, score := isFASTCandidate(img, p, cfg); ok {
				scores[(y-b.Min.Y)*w+(x-b.Min.X)] = score
				candidates = append(candidates, p)
			}
		}
	}

	half := cfg.NMSWinSize / 2
	kps := make(KeyPoints, 0, len(candidates))
	for _, p := range candidates {
		score := scores[(p.Y-b.Min.Y)*w+(p.X-b.Min.X)]
		if isLocalMaximum(scores, w, h, p.Sub(b.Min), half, score) {
			kps = append(kps, p)
		}
	}
	return kps
}

// isLocalMaximum reports whether no pixel of the window around p beats score. Equal scores are
// resolved in favor of the first pixel in row-major order.
func isLocalMaximum(scores []float64, w, h int, p image.Point, half int, score float64) bool {
	for y := max(0, p.Y-half); y <= min(h-1, p.Y+half); y++ {
		for x := max(0, p.X-half); x <= min(w-1, p.X+half); x++ {
			other := scores[y*w+x]
			if other > score {
				return false
			}
			if other == score && (y < p.Y || (y == p.Y && x < p.X)) {
				return false
			}
		}
	}
	return true
}
