package gamedata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// BlockID indexes the block type table.
type BlockID uint8

// Ids every content pack must define at these positions.
const (
	AirID     BlockID = 0
	BedrockID BlockID = 1
	StoneID   BlockID = 2
)

// MaxOpacity is the opacity of a block that stops light completely.
const MaxOpacity = 15

// BlockType describes how one kind of block behaves and looks.
type BlockType struct {
	ID   BlockID
	Name string

	Solid bool
	// Transparent routes the block's faces to the transparent submesh.
	Transparent bool
	// RenderNeighborFaces makes adjacent blocks draw the faces they share
	// with this one.
	RenderNeighborFaces bool
	Opacity             uint8

	// Textures holds atlas indices in face order: back, front, top,
	// bottom, left, right.
	Textures [voxel.FaceCount]int

	// Mesh replaces the unit cube when set.
	Mesh *CustomMesh
}

// TextureID returns the atlas index for face f.
func (b *BlockType) TextureID(f voxel.Face) int {
	if f < 0 || int(f) >= voxel.FaceCount {
		return 0
	}
	return b.Textures[f]
}

// Opaque reports whether the block fully blocks light.
func (b *BlockType) Opaque() bool {
	return b.Opacity >= MaxOpacity
}

// CustomMesh is per-face geometry for non-cube blocks.
type CustomMesh struct {
	Faces [voxel.FaceCount]MeshFace
}

// MeshFace is the geometry emitted for one face of a custom mesh. UV
// coordinates are in [0,1] and address a sub-rectangle of the face's atlas
// tile. Triangles index into Vertices.
type MeshFace struct {
	Vertices  []MeshVertex
	Triangles []uint32
}

// MeshVertex is a vertex of a custom mesh, in unit-cube space.
type MeshVertex struct {
	Pos mgl32.Vec3
	UV  mgl32.Vec2
}

// BlockTable is the immutable table of block types, indexed by BlockID.
type BlockTable struct {
	types  []BlockType
	byName map[string]BlockID
}

// NewBlockTable builds a table from types in id order. Ids and names are
// assigned from position; the first three entries must be air, bedrock and
// stone.
func NewBlockTable(types []BlockType) (*BlockTable, error) {
	if len(types) < int(StoneID)+1 {
		return nil, fmt.Errorf("block table needs at least %d entries, got %d", StoneID+1, len(types))
	}
	if len(types) > 256 {
		return nil, fmt.Errorf("block table has %d entries, max 256", len(types))
	}

	t := &BlockTable{
		types:  make([]BlockType, len(types)),
		byName: make(map[string]BlockID, len(types)),
	}
	for i, bt := range types {
		if bt.Name == "" {
			return nil, fmt.Errorf("block %d has no name", i)
		}
		if _, dup := t.byName[bt.Name]; dup {
			return nil, fmt.Errorf("duplicate block name %q", bt.Name)
		}
		if bt.Opacity > MaxOpacity {
			return nil, fmt.Errorf("block %q: opacity %d above %d", bt.Name, bt.Opacity, MaxOpacity)
		}
		bt.ID = BlockID(i)
		t.types[i] = bt
		t.byName[bt.Name] = bt.ID
	}

	air := t.types[AirID]
	if air.Solid || air.Opacity != 0 {
		return nil, fmt.Errorf("block %d (%s) must be a non-solid, zero-opacity air block", AirID, air.Name)
	}
	if !t.types[BedrockID].Solid || !t.types[StoneID].Solid {
		return nil, fmt.Errorf("blocks %d and %d must be solid", BedrockID, StoneID)
	}
	return t, nil
}

// Len returns the number of block types.
func (t *BlockTable) Len() int {
	return len(t.types)
}

// ByID returns the block type for id.
func (t *BlockTable) ByID(id BlockID) (*BlockType, bool) {
	if int(id) >= len(t.types) {
		return nil, false
	}
	return &t.types[id], true
}

// ByName returns the block type with the given name.
func (t *BlockTable) ByName(name string) (*BlockType, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.types[id], true
}

// Get returns the block type for id, or air for unknown ids.
func (t *BlockTable) Get(id BlockID) *BlockType {
	if int(id) >= len(t.types) {
		return &t.types[AirID]
	}
	return &t.types[id]
}

// All returns every block type in id order.
func (t *BlockTable) All() []BlockType {
	out := make([]BlockType, len(t.types))
	copy(out, t.types)
	return out
}

// Solid reports whether id is a solid block.
func (t *BlockTable) Solid(id BlockID) bool {
	return t.Get(id).Solid
}

// Opacity returns the light opacity of id.
func (t *BlockTable) Opacity(id BlockID) uint8 {
	return t.Get(id).Opacity
}
