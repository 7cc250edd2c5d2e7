package gen

import (
	"math"

	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/noise"
)

// subsurfaceDepth is how many voxels under the surface use the biome's
// subsurface block.
const subsurfaceDepth = 3

// Terrain is the biome-blended noise generator.
type Terrain struct {
	settings Settings
	noise    *noise.Sampler
	biomes   []gamedata.Biome
}

// NewTerrain creates a Terrain generator. The biome list must not be empty.
func NewTerrain(seed int64, settings Settings, biomes []gamedata.Biome) *Terrain {
	return &Terrain{
		settings: settings,
		noise:    noise.New(seed, settings.ChunkWidth),
		biomes:   biomes,
	}
}

// column is the per-(x,z) part of generation shared by every voxel in it.
type column struct {
	biome  *gamedata.Biome
	height int
}

func (t *Terrain) sampleColumn(x, z int) column {
	fx, fz := float64(x), float64(z)

	var sum, strongestWeight float64
	count := 0
	strongest := 0
	for i := range t.biomes {
		b := &t.biomes[i]
		weight := t.noise.Get2D(fx, fz, b.Offset, b.Scale)
		if weight > strongestWeight {
			strongestWeight = weight
			strongest = i
		}
		h := float64(b.TerrainHeight) * t.noise.Get2D(fx, fz, 0, b.TerrainScale) * weight
		if h > 0 {
			sum += h
			count++
		}
	}
	if count > 0 {
		sum /= float64(count)
	}
	return column{
		biome:  &t.biomes[strongest],
		height: int(math.Floor(sum)) + t.settings.GroundHeight,
	}
}

// HeightAt returns the surface height of the column at (x, z).
func (t *Terrain) HeightAt(x, z int) int {
	return t.sampleColumn(x, z).height
}

// GetVoxel returns the block at p and any structure anchored there.
func (t *Terrain) GetVoxel(p Pos) (gamedata.BlockID, []Modification) {
	if !t.settings.InWorld(p) {
		return gamedata.AirID, nil
	}
	if p.Y == 0 {
		return gamedata.BedrockID, nil
	}
	col := t.sampleColumn(p.X, p.Z)
	id := t.voxel(p, col)
	if p.Y != col.height {
		return id, nil
	}
	return id, t.flora(p, col)
}

// Column fills dst for the column at (x, z). dst must hold ChunkHeight ids.
func (t *Terrain) Column(x, z int, dst []gamedata.BlockID) []Modification {
	if !t.settings.InWorld(Pos{x, 0, z}) {
		clear(dst)
		return nil
	}
	col := t.sampleColumn(x, z)
	dst[0] = gamedata.BedrockID
	for y := 1; y < len(dst); y++ {
		dst[y] = t.voxel(Pos{x, y, z}, col)
	}
	if col.height <= 0 || col.height >= len(dst) {
		return nil
	}
	return t.flora(Pos{x, col.height, z}, col)
}

// voxel runs the column classification and lode passes for y >= 1.
func (t *Terrain) voxel(p Pos, col column) gamedata.BlockID {
	b := col.biome
	h := col.height

	var id gamedata.BlockID
	switch {
	case p.Y == h:
		id = b.SurfaceBlock
	case p.Y < h && p.Y > h-subsurfaceDepth-1:
		id = b.SubsurfaceBlock
	case p.Y > h:
		if p.Y < t.settings.WaterLevel {
			return b.SubsurfaceBlock
		}
		return gamedata.AirID
	default:
		id = gamedata.StoneID
	}

	if id == gamedata.StoneID {
		id = t.lode(p, b, id)
	}
	return id
}

func (t *Terrain) flora(p Pos, col column) []Modification {
	fl := col.biome.Flora
	if fl == nil {
		return nil
	}
	fx, fz := float64(p.X), float64(p.Z)
	if t.noise.Get2D(fx, fz, 0, fl.ZoneScale) <= fl.ZoneThreshold {
		return nil
	}
	if t.noise.Get2D(fx, fz, 0, fl.PlacementScale) <= fl.PlacementThreshold {
		return nil
	}
	return t.structure(p, fl)
}
