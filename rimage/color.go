package rimage

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/inerf/utils"
)

// ShiftValue moves an HSV value channel by delta with clamp-then-add semantics. For a negative
// delta, values below |delta| go to 0 and the rest are shifted. For a positive delta, values above
// 1-delta go to 1 and the rest are shifted.
func ShiftValue(v, delta float64) float64 {
	switch {
	case delta < 0:
		if v < math.Abs(delta) {
			return 0
		}
		return v + delta
	case delta > 0:
		if v > 1-delta {
			return 1
		}
		return v + delta
	default:
		return v
	}
}

// ShiftBrightness returns a copy of img whose HSV value channel has been moved by delta. See
// ShiftValue.
func ShiftBrightness(img *FloatImage, delta float64) *FloatImage {
	out := img.Clone()
	if delta == 0 {
		return out
	}
	for k, c := range out.data {
		h, s, v := colorful.Color{R: c.X, G: c.Y, B: c.Z}.Hsv()
		shifted := colorful.Hsv(h, s, ShiftValue(v, delta))
		out.data[k] = r3.Vector{
			X: utils.Clamp(shifted.R, 0, 1),
			Y: utils.Clamp(shifted.G, 0, 1),
			Z: utils.Clamp(shifted.B, 0, 1),
		}
	}
	return out
}
