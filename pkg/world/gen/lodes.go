package gen

import "github.com/OCharnyshevich/voxel-engine/pkg/gamedata"

// lode replaces the stone placeholder with the last lode whose height band
// (exclusive on both ends) contains p and whose 3D noise passes.
func (t *Terrain) lode(p Pos, b *gamedata.Biome, id gamedata.BlockID) gamedata.BlockID {
	fx, fy, fz := float64(p.X), float64(p.Y), float64(p.Z)
	for _, l := range b.Lodes {
		if p.Y <= l.MinHeight || p.Y >= l.MaxHeight {
			continue
		}
		if t.noise.Get3D(fx, fy, fz, l.NoiseOffset, l.Scale, l.Threshold) {
			id = l.Block
		}
	}
	return id
}
