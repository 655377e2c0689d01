package inject

import (
	"go.viam.com/inerf/rimage"
	"go.viam.com/inerf/rimage/noise"
)

// NoiseGenerator is an injected noise generator.
type NoiseGenerator struct {
	noise.Generator
	ApplyFunc func(img *rimage.FloatImage, kind noise.Kind, p noise.Params) (*rimage.FloatImage, error)
}

// Apply calls the injected Apply or the real version.
func (g *NoiseGenerator) Apply(img *rimage.FloatImage, kind noise.Kind, p noise.Params) (*rimage.FloatImage, error) {
	if g.ApplyFunc == nil {
		return g.Generator.Apply(img, kind, p)
	}
	return g.ApplyFunc(img, kind, p)
}
