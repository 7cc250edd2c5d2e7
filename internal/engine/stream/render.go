package stream

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/mesh"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

// Frame is a finished chunk mesh handed to the renderer.
type Frame struct {
	Coord     world.ChunkCoord
	Mesh      *mesh.Mesh
	Transform mgl32.Mat4
}

// Renderer is the boundary to whatever draws chunks. The scheduler calls
// it from the goroutine running Tick; implementations must not call back
// into the scheduler.
type Renderer interface {
	// Publish installs or replaces the mesh for f.Coord.
	Publish(f Frame)
	// SetActive shows or hides a published chunk.
	SetActive(coord world.ChunkCoord, active bool)
	// Release drops a chunk's mesh entirely.
	Release(coord world.ChunkCoord)
}
