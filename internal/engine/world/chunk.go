package world

import (
	"sync"
	"sync/atomic"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/light"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// MaxLight is the brightest voxel light level.
const MaxLight = light.Max

// VoxelState is one voxel of a chunk.
type VoxelState struct {
	ID          gamedata.BlockID
	Light       uint8
	Orientation voxel.Orientation
}

// LightLevel returns the light as a fraction in [0, 1].
func (v VoxelState) LightLevel() float32 {
	return float32(v.Light) / MaxLight
}

// ChunkData is the dense voxel array of one chunk column.
//
// Two locks guard it. The busy flag is held for the whole of a mesh build
// or an edit and excludes other writers; while it is held the chunk is not
// editable. The RWMutex is held only for the duration of individual reads
// and writes, so neighbors can sample boundary voxels during a build.
// A goroutine never holds the RWMutex of two chunks at once.
type ChunkData struct {
	Coord ChunkCoord

	width, height int

	mu     sync.RWMutex
	voxels []VoxelState

	populated atomic.Bool
	busy      atomic.Bool
	hasMesh   atomic.Bool
}

// NewChunkData allocates an empty, unpopulated chunk.
func NewChunkData(coord ChunkCoord, width, height int) *ChunkData {
	return &ChunkData{
		Coord:  coord,
		width:  width,
		height: height,
		voxels: make([]VoxelState, width*width*height),
	}
}

// Width returns the chunk's horizontal size in voxels.
func (c *ChunkData) Width() int { return c.width }

// Height returns the chunk's vertical size in voxels.
func (c *ChunkData) Height() int { return c.height }

// Contains reports whether the local coordinates are inside the chunk.
func (c *ChunkData) Contains(x, y, z int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height && z >= 0 && z < c.width
}

// Index returns the position of local (x, y, z) in a Snapshot.
func (c *ChunkData) Index(x, y, z int) int { return c.index(x, y, z) }

func (c *ChunkData) index(x, y, z int) int {
	return x + c.width*(z+c.width*y)
}

// At returns the voxel at local coordinates. Out-of-range reads return air.
func (c *ChunkData) At(x, y, z int) VoxelState {
	if !c.Contains(x, y, z) {
		return VoxelState{}
	}
	c.mu.RLock()
	v := c.voxels[c.index(x, y, z)]
	c.mu.RUnlock()
	return v
}

// Set overwrites the voxel at local coordinates without relighting.
func (c *ChunkData) Set(x, y, z int, v VoxelState) {
	if !c.Contains(x, y, z) {
		return
	}
	c.mu.Lock()
	c.voxels[c.index(x, y, z)] = v
	c.mu.Unlock()
}

// Snapshot returns a copy of the voxel array in x, z, y order.
func (c *ChunkData) Snapshot() []VoxelState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]VoxelState, len(c.voxels))
	copy(out, c.voxels)
	return out
}

// Restore replaces the voxel array with a decoded copy and marks the chunk
// populated. len(voxels) must equal width*width*height.
func (c *ChunkData) Restore(voxels []VoxelState) bool {
	if len(voxels) != len(c.voxels) {
		return false
	}
	c.mu.Lock()
	copy(c.voxels, voxels)
	c.mu.Unlock()
	c.populated.Store(true)
	return true
}

// IsPopulated reports whether terrain has been generated or loaded.
func (c *ChunkData) IsPopulated() bool { return c.populated.Load() }

// IsEditable reports whether the chunk is populated and no build or edit
// currently holds it.
func (c *ChunkData) IsEditable() bool {
	return c.populated.Load() && !c.busy.Load()
}

// TryLock claims the chunk for a build or edit. It fails if the chunk is
// already claimed.
func (c *ChunkData) TryLock() bool {
	return c.busy.CompareAndSwap(false, true)
}

// Unlock releases a claim taken with TryLock.
func (c *ChunkData) Unlock() {
	c.busy.Store(false)
}

// HasMesh reports whether a mesh for this chunk has been published.
func (c *ChunkData) HasMesh() bool { return c.hasMesh.Load() }

// SetHasMesh records whether a mesh for this chunk is live.
func (c *ChunkData) SetHasMesh(v bool) { c.hasMesh.Store(v) }

// chunkGrid adapts a chunk to light.Grid. The caller holds c.mu for writing.
type chunkGrid struct {
	c      *ChunkData
	blocks *gamedata.BlockTable
}

func (g chunkGrid) Size() (int, int) { return g.c.width, g.c.height }

func (g chunkGrid) Opacity(x, y, z int) uint8 {
	return g.blocks.Opacity(g.c.voxels[g.c.index(x, y, z)].ID)
}

func (g chunkGrid) Light(x, y, z int) uint8 {
	return g.c.voxels[g.c.index(x, y, z)].Light
}

func (g chunkGrid) SetLight(x, y, z int, level uint8) {
	g.c.voxels[g.c.index(x, y, z)].Light = level
}
