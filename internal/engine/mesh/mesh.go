// Package mesh turns chunk voxel data into renderable geometry.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// Mesh is the geometry of one chunk in chunk-local space. Opaque and
// Transparent index the same vertex buffers.
type Mesh struct {
	Coord world.ChunkCoord
	Width int

	Vertices    []mgl32.Vec3
	Normals     []mgl32.Vec3
	UVs         []mgl32.Vec2
	Colors      []mgl32.Vec4
	Opaque      []uint32
	Transparent []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool { return len(m.Opaque) == 0 && len(m.Transparent) == 0 }

// SizeBytes is the approximate size of the mesh buffers once uploaded.
func (m *Mesh) SizeBytes() uint64 {
	return uint64(len(m.Vertices))*12 + uint64(len(m.Normals))*12 +
		uint64(len(m.UVs))*8 + uint64(len(m.Colors))*16 +
		uint64(len(m.Opaque)+len(m.Transparent))*4
}

// Transform returns the chunk's placement in world space.
func (m *Mesh) Transform() mgl32.Mat4 { return Transform(m.Coord, m.Width) }

// Transform returns the world-space translation of the chunk at coord.
func Transform(coord world.ChunkCoord, width int) mgl32.Mat4 {
	o := coord.Origin(width)
	return mgl32.Translate3D(float32(o.X), 0, float32(o.Z))
}

// Neighbors answers voxel lookups outside the chunk being meshed.
// *world.Store satisfies it.
type Neighbors interface {
	VoxelAt(p gen.Pos) (world.VoxelState, bool)
}

// Builder meshes chunks against one block table and texture atlas.
type Builder struct {
	blocks *gamedata.BlockTable
	atlas  int
}

// NewBuilder returns a Builder for an atlas of atlasSize x atlasSize tiles.
func NewBuilder(blocks *gamedata.BlockTable, atlasSize int) *Builder {
	if atlasSize < 1 {
		atlasSize = 1
	}
	return &Builder{blocks: blocks, atlas: atlasSize}
}

// Build meshes c. Faces on the chunk boundary consult nb, which may be nil;
// a neighbor that cannot be resolved counts as absent and its face is drawn.
func (b *Builder) Build(c *world.ChunkData, nb Neighbors) *Mesh {
	w, h := c.Width(), c.Height()
	voxels := c.Snapshot()
	origin := c.Coord.Origin(w)

	m := &Mesh{Coord: c.Coord, Width: w}

	neighbor := func(x, y, z int) (world.VoxelState, bool) {
		if y < 0 || y >= h {
			return world.VoxelState{}, false
		}
		if c.Contains(x, y, z) {
			return voxels[c.Index(x, y, z)], true
		}
		if nb == nil {
			return world.VoxelState{}, false
		}
		return nb.VoxelAt(gen.Pos{X: origin.X + x, Y: y, Z: origin.Z + z})
	}

	for y := 0; y < h; y++ {
		for z := 0; z < w; z++ {
			for x := 0; x < w; x++ {
				v := voxels[c.Index(x, y, z)]
				bt := b.blocks.Get(v.ID)
				if !bt.Solid {
					continue
				}
				b.addVoxel(m, bt, v.Orientation, x, y, z, neighbor)
			}
		}
	}
	return m
}

func (b *Builder) addVoxel(m *Mesh, bt *gamedata.BlockType, o voxel.Orientation, x, y, z int,
	neighbor func(x, y, z int) (world.VoxelState, bool)) {
	pos := mgl32.Vec3{float32(x), float32(y), float32(z)}

	for p := voxel.Face(0); p < voxel.FaceCount; p++ {
		g := o.Geometric(p)
		step := voxel.FaceChecks[g]
		n, ok := neighbor(x+step.X, y+step.Y, z+step.Z)
		if ok && !b.blocks.Get(n.ID).RenderNeighborFaces {
			continue
		}

		alpha := float32(1)
		if ok {
			alpha = n.LightLevel()
		}
		color := mgl32.Vec4{0, 0, 0, alpha}
		tile := TextureUV(bt.TextureID(p), b.atlas)
		base := uint32(len(m.Vertices))

		var tris []uint32
		if bt.Mesh != nil {
			face := bt.Mesh.Faces[p]
			size := 1 / float32(b.atlas)
			for _, mv := range face.Vertices {
				m.Vertices = append(m.Vertices, voxel.RotateAboutCenter(mv.Pos, o).Add(pos))
				m.Normals = append(m.Normals, voxel.Normals[g])
				m.UVs = append(m.UVs, tile[0].Add(mv.UV.Mul(size)))
				m.Colors = append(m.Colors, color)
			}
			tris = face.Triangles
		} else {
			for i := 0; i < 4; i++ {
				m.Vertices = append(m.Vertices, g.Corner(i).Add(pos))
				m.Normals = append(m.Normals, voxel.Normals[g])
				m.UVs = append(m.UVs, tile[i])
				m.Colors = append(m.Colors, color)
			}
			tris = voxel.QuadIndices[:]
		}

		dst := &m.Opaque
		if bt.Transparent {
			dst = &m.Transparent
		}
		for _, t := range tris {
			*dst = append(*dst, base+t)
		}
	}
}

// TextureUV returns the four corner UVs of atlas tile id, in quad corner
// order. Tile 0 is the top-left of the atlas.
func TextureUV(id, atlasSize int) [4]mgl32.Vec2 {
	n := 1 / float32(atlasSize)
	x := float32(id%atlasSize) * n
	y := float32(id/atlasSize) * n
	y = 1 - y - n
	var out [4]mgl32.Vec2
	for i, uv := range voxel.UVs {
		out[i] = mgl32.Vec2{x + uv.X()*n, y + uv.Y()*n}
	}
	return out
}
