// Package world owns the session's voxel data: the chunk map, per-chunk
// voxel arrays, the set of chunks modified since the last save and the
// structure modifications waiting for their target chunk.
package world

import (
	"fmt"

	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
)

// ChunkCoord addresses a chunk column on the chunk grid.
type ChunkCoord struct{ X, Z int }

func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d.%d", c.X, c.Z)
}

// Origin returns the world position of the chunk's (0, 0, 0) voxel.
func (c ChunkCoord) Origin(width int) gen.Pos {
	return gen.Pos{X: c.X * width, Z: c.Z * width}
}

// Offset returns the coordinate dx, dz chunks away.
func (c ChunkCoord) Offset(dx, dz int) ChunkCoord {
	return ChunkCoord{c.X + dx, c.Z + dz}
}

// CoordOf returns the chunk that contains world column (x, z).
func CoordOf(x, z, width int) ChunkCoord {
	return ChunkCoord{floorDiv(x, width), floorDiv(z, width)}
}

// Local splits a world position into its chunk and chunk-local coordinates.
func Local(p gen.Pos, width int) (ChunkCoord, int, int, int) {
	c := CoordOf(p.X, p.Z, width)
	return c, p.X - c.X*width, p.Y, p.Z - c.Z*width
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
