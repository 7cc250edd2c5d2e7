// Package gen produces block ids for world positions from a seed and a
// content pack. Generation is a pure function of its inputs: structures
// that spill into other chunks are returned as modifications instead of
// being written in place.
package gen

import (
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// Pos is an absolute voxel position.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add returns p offset by (dx, dy, dz).
func (p Pos) Add(dx, dy, dz int) Pos {
	return Pos{p.X + dx, p.Y + dy, p.Z + dz}
}

// Modification sets the block at Pos once the owning chunk is editable.
type Modification struct {
	Pos         Pos               `json:"pos"`
	Block       gamedata.BlockID  `json:"block"`
	Orientation voxel.Orientation `json:"orientation,omitempty"`
}

// Generator fills the world with blocks.
type Generator interface {
	// GetVoxel returns the block at p and any structure anchored there.
	GetVoxel(p Pos) (gamedata.BlockID, []Modification)
	// Column fills dst[y] for every y of the column at (x, z) and returns
	// the structures anchored in it. It matches GetVoxel voxel for voxel.
	Column(x, z int, dst []gamedata.BlockID) []Modification
	// HeightAt returns the surface height of the column at (x, z).
	HeightAt(x, z int) int
}

// Settings are the world dimensions and terrain constants generation
// depends on.
type Settings struct {
	ChunkWidth        int
	ChunkHeight       int
	WorldSizeInChunks int
	// GroundHeight is added to the biome-blended height.
	GroundHeight int
	// WaterLevel: air below it and above the surface is filled.
	WaterLevel int
}

// WorldSizeInVoxels returns the world's horizontal extent.
func (s Settings) WorldSizeInVoxels() int {
	return s.WorldSizeInChunks * s.ChunkWidth
}

// InWorld reports whether p lies inside the bounded world volume.
func (s Settings) InWorld(p Pos) bool {
	size := s.WorldSizeInVoxels()
	return p.X >= 0 && p.X < size &&
		p.Y >= 0 && p.Y < s.ChunkHeight &&
		p.Z >= 0 && p.Z < size
}
