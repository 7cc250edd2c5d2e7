package stream

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

// InViewDistance checks if two chunk positions are within view distance
// using Chebyshev (chessboard) distance.
func InViewDistance(a, b world.ChunkCoord, viewDist int) bool {
	return chebyshev(a, b) <= viewDist
}

func chebyshev(a, b world.ChunkCoord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	return max(dx, dz)
}

// ViewerChunk returns the chunk containing a world-space position.
func ViewerChunk(p mgl32.Vec3, width int) world.ChunkCoord {
	x := int(math.Floor(float64(p.X())))
	z := int(math.Floor(float64(p.Z())))
	return world.CoordOf(x, z, width)
}

// Region returns the square of chunks within radius of center, clipped to
// a world of size chunks per side, nearest first.
func Region(center world.ChunkCoord, radius, size int) []world.ChunkCoord {
	x0, x1 := max(center.X-radius, 0), min(center.X+radius, size-1)
	z0, z1 := max(center.Z-radius, 0), min(center.Z+radius, size-1)
	if x0 > x1 || z0 > z1 {
		return nil
	}

	out := make([]world.ChunkCoord, 0, (x1-x0+1)*(z1-z0+1))
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			out = append(out, world.ChunkCoord{X: x, Z: z})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return chebyshev(out[i], center) < chebyshev(out[j], center)
	})
	return out
}
