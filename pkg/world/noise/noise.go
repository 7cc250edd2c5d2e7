// Package noise samples seeded coherent noise for terrain generation.
// All samples are normalized to [0, 1].
package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// positionBias keeps integer voxel coordinates off the noise lattice, where
// gradient noise collapses to a constant.
const positionBias = 0.1

// Sampler produces deterministic noise from a seed. Positions are expressed
// in voxels and normalized by the chunk width before sampling, so a scale of
// 1 yields roughly one feature per chunk.
//
// A Sampler is safe for concurrent use.
type Sampler struct {
	width float64
	n     opensimplex.Noise
}

// New creates a Sampler for the given world seed and chunk width.
func New(seed int64, chunkWidth int) *Sampler {
	if chunkWidth <= 0 {
		chunkWidth = 16
	}
	return &Sampler{
		width: float64(chunkWidth),
		n:     opensimplex.NewNormalized(seed),
	}
}

// Get2D returns 2D noise in [0, 1] at column (x, z).
// offset shifts the sample domain, scale sets the feature frequency.
func (s *Sampler) Get2D(x, z, offset, scale float64) float64 {
	return clamp01(s.n.Eval2(s.coord(x, offset, scale), s.coord(z, offset, scale)))
}

// Get3D reports whether 3D noise at (x, y, z) exceeds threshold.
func (s *Sampler) Get3D(x, y, z, offset, scale, threshold float64) bool {
	return s.Sample3D(x, y, z, offset, scale) > threshold
}

// Sample3D returns the raw 3D sample behind Get3D.
func (s *Sampler) Sample3D(x, y, z, offset, scale float64) float64 {
	return clamp01(s.n.Eval3(s.coord(x, offset, scale), s.coord(y, offset, scale), s.coord(z, offset, scale)))
}

func (s *Sampler) coord(v, offset, scale float64) float64 {
	return (v + offset + positionBias) / s.width * scale
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
