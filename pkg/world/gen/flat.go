package gen

import "github.com/OCharnyshevich/voxel-engine/pkg/gamedata"

// Flat generates a level world: bedrock at y=0, stone up to the subsurface
// band, then the biome's subsurface and surface blocks. It grows no
// structures.
type Flat struct {
	settings Settings
	biome    gamedata.Biome
	height   int
}

// NewFlat creates a Flat generator with its surface at settings.GroundHeight.
func NewFlat(settings Settings, biome gamedata.Biome) *Flat {
	h := settings.GroundHeight
	if h >= settings.ChunkHeight {
		h = settings.ChunkHeight - 1
	}
	if h < 1 {
		h = 1
	}
	return &Flat{settings: settings, biome: biome, height: h}
}

func (g *Flat) GetVoxel(p Pos) (gamedata.BlockID, []Modification) {
	if !g.settings.InWorld(p) {
		return gamedata.AirID, nil
	}
	return g.at(p.Y), nil
}

func (g *Flat) Column(x, z int, dst []gamedata.BlockID) []Modification {
	if !g.settings.InWorld(Pos{x, 0, z}) {
		clear(dst)
		return nil
	}
	for y := range dst {
		dst[y] = g.at(y)
	}
	return nil
}

func (g *Flat) HeightAt(_, _ int) int {
	return g.height
}

func (g *Flat) at(y int) gamedata.BlockID {
	switch {
	case y == 0:
		return gamedata.BedrockID
	case y == g.height:
		return g.biome.SurfaceBlock
	case y < g.height && y > g.height-subsurfaceDepth-1:
		return g.biome.SubsurfaceBlock
	case y < g.height:
		return gamedata.StoneID
	}
	return gamedata.AirID
}
