package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

const atlas = 16

func testBlocks(t *testing.T) *gamedata.BlockTable {
	t.Helper()
	gd, err := gamedata.Load("default")
	if err != nil {
		t.Fatalf("load content: %v", err)
	}
	return gd.Blocks
}

func id(t *testing.T, blocks *gamedata.BlockTable, name string) gamedata.BlockID {
	t.Helper()
	bt, ok := blocks.ByName(name)
	if !ok {
		t.Fatalf("block %q missing", name)
	}
	return bt.ID
}

type fakeNeighbors map[gen.Pos]world.VoxelState

func (f fakeNeighbors) VoxelAt(p gen.Pos) (world.VoxelState, bool) {
	v, ok := f[p]
	return v, ok
}

func quads(m *Mesh) (opaque, transparent int) {
	return len(m.Opaque) / 6, len(m.Transparent) / 6
}

func TestBuildFaceCounts(t *testing.T) {
	blocks := testBlocks(t)
	stone := id(t, blocks, "stone")
	glass := id(t, blocks, "glass")

	tests := []struct {
		name            string
		place           map[[3]int]gamedata.BlockID
		wantOpaque      int
		wantTransparent int
	}{
		{"empty", nil, 0, 0},
		{"single", map[[3]int]gamedata.BlockID{{5, 5, 5}: stone}, 6, 0},
		{"adjacent", map[[3]int]gamedata.BlockID{{5, 5, 5}: stone, {6, 5, 5}: stone}, 10, 0},
		{"stacked", map[[3]int]gamedata.BlockID{{5, 5, 5}: stone, {5, 6, 5}: stone}, 10, 0},
		{"glass", map[[3]int]gamedata.BlockID{{5, 5, 5}: glass}, 0, 6},
		// Stone shows its face through glass; glass hides the face it
		// shares with stone.
		{"glass_stone", map[[3]int]gamedata.BlockID{{5, 5, 5}: glass, {6, 5, 5}: stone}, 6, 5},
		{"glass_glass", map[[3]int]gamedata.BlockID{{5, 5, 5}: glass, {6, 5, 5}: glass}, 0, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := world.NewChunkData(world.ChunkCoord{}, 16, 32)
			for p, b := range tt.place {
				c.Set(p[0], p[1], p[2], world.VoxelState{ID: b})
			}
			m := NewBuilder(blocks, atlas).Build(c, nil)
			op, tr := quads(m)
			if op != tt.wantOpaque || tr != tt.wantTransparent {
				t.Errorf("quads = %d opaque, %d transparent; want %d, %d", op, tr, tt.wantOpaque, tt.wantTransparent)
			}
			if got, want := m.VertexCount(), (op+tr)*4; got != want {
				t.Errorf("VertexCount = %d, want %d", got, want)
			}
			if len(m.Normals) != m.VertexCount() || len(m.UVs) != m.VertexCount() || len(m.Colors) != m.VertexCount() {
				t.Error("vertex attribute buffers differ in length")
			}
		})
	}
}

func TestBuildCrossChunkCulling(t *testing.T) {
	blocks := testBlocks(t)
	stone := id(t, blocks, "stone")

	c := world.NewChunkData(world.ChunkCoord{X: 1, Z: 0}, 16, 32)
	c.Set(15, 4, 3, world.VoxelState{ID: stone})

	m := NewBuilder(blocks, atlas).Build(c, nil)
	if op, _ := quads(m); op != 6 {
		t.Errorf("unresolved neighbor: quads = %d, want 6", op)
	}

	nb := fakeNeighbors{
		{X: 32, Y: 4, Z: 3}: {ID: stone},
		{X: 15, Y: 4, Z: 3}: {ID: gamedata.AirID, Light: 15},
	}
	m = NewBuilder(blocks, atlas).Build(c, nb)
	if op, _ := quads(m); op != 6-1 {
		t.Errorf("solid neighbor chunk: quads = %d, want 5", op)
	}

	c.Set(0, 4, 3, world.VoxelState{ID: stone})
	m = NewBuilder(blocks, atlas).Build(c, nb)
	if op, _ := quads(m); op != 11 {
		t.Errorf("air neighbor chunk: quads = %d, want 11", op)
	}
}

func TestBuildLightColor(t *testing.T) {
	blocks := testBlocks(t)
	stone := id(t, blocks, "stone")

	c := world.NewChunkData(world.ChunkCoord{}, 16, 32)
	c.Set(5, 0, 5, world.VoxelState{ID: stone})
	c.Set(5, 1, 5, world.VoxelState{Light: 12})
	m := NewBuilder(blocks, atlas).Build(c, nil)

	up := voxel.Normals[voxel.FaceTop]
	down := voxel.Normals[voxel.FaceBottom]
	var sawTop, sawBottom bool
	for i, n := range m.Normals {
		switch n {
		case up:
			sawTop = true
			if got, want := m.Colors[i].W(), float32(12)/15; !mgl32.FloatEqual(got, want) {
				t.Errorf("top alpha = %v, want %v", got, want)
			}
		case down:
			// Below the world floor there is no neighbor at all.
			sawBottom = true
			if got := m.Colors[i].W(); got != 1 {
				t.Errorf("bottom alpha = %v, want 1", got)
			}
		}
	}
	if !sawTop || !sawBottom {
		t.Errorf("missing faces: top %v bottom %v", sawTop, sawBottom)
	}
}

func TestBuildEmpty(t *testing.T) {
	blocks := testBlocks(t)
	c := world.NewChunkData(world.ChunkCoord{}, 8, 8)
	if m := NewBuilder(blocks, atlas).Build(c, nil); !m.Empty() || m.VertexCount() != 0 {
		t.Errorf("air chunk mesh: empty %v, %d vertices", m.Empty(), m.VertexCount())
	}
	c.Set(1, 1, 1, world.VoxelState{ID: gamedata.StoneID})
	if m := NewBuilder(blocks, atlas).Build(c, nil); m.Empty() {
		t.Error("chunk with stone built an empty mesh")
	}
}

func TestTextureUV(t *testing.T) {
	tests := []struct {
		id   int
		want mgl32.Vec2
	}{
		{0, mgl32.Vec2{0, 0.9375}},
		{1, mgl32.Vec2{0.0625, 0.9375}},
		{16, mgl32.Vec2{0, 0.875}},
		{17, mgl32.Vec2{0.0625, 0.875}},
		{255, mgl32.Vec2{0.9375, 0}},
	}
	for _, tt := range tests {
		uv := TextureUV(tt.id, atlas)
		if !uv[0].ApproxEqual(tt.want) {
			t.Errorf("TextureUV(%d)[0] = %v, want %v", tt.id, uv[0], tt.want)
		}
		n := float32(1) / atlas
		if !uv[3].ApproxEqual(tt.want.Add(mgl32.Vec2{n, n})) {
			t.Errorf("TextureUV(%d)[3] = %v, want %v", tt.id, uv[3], tt.want.Add(mgl32.Vec2{n, n}))
		}
		if !uv[1].ApproxEqual(tt.want.Add(mgl32.Vec2{0, n})) || !uv[2].ApproxEqual(tt.want.Add(mgl32.Vec2{n, 0})) {
			t.Errorf("TextureUV(%d) corner order = %v", tt.id, uv)
		}
	}
}

func TestBuildOrientationMovesTextures(t *testing.T) {
	blocks := testBlocks(t)
	furnace := id(t, blocks, "furnace")
	bt, _ := blocks.ByID(furnace)
	front := TextureUV(bt.TextureID(voxel.FaceFront), atlas)[0]

	for _, o := range []voxel.Orientation{voxel.Front, voxel.Back, voxel.Left, voxel.Right} {
		c := world.NewChunkData(world.ChunkCoord{}, 16, 32)
		c.Set(4, 4, 4, world.VoxelState{ID: furnace, Orientation: o})
		m := NewBuilder(blocks, atlas).Build(c, nil)

		want := voxel.Normals[o.Geometric(voxel.FaceFront)]
		found := false
		for i := 0; i < m.VertexCount(); i += 4 {
			if m.UVs[i].ApproxEqual(front) {
				found = true
				if m.Normals[i] != want {
					t.Errorf("%v: front texture on face with normal %v, want %v", o, m.Normals[i], want)
				}
			}
		}
		if !found {
			t.Errorf("%v: front texture not emitted", o)
		}
	}
}

func TestBuildCustomMesh(t *testing.T) {
	blocks := testBlocks(t)
	cactus := id(t, blocks, "cactus")
	bt, _ := blocks.ByID(cactus)

	c := world.NewChunkData(world.ChunkCoord{}, 16, 32)
	c.Set(2, 3, 2, world.VoxelState{ID: cactus})
	m := NewBuilder(blocks, atlas).Build(c, nil)

	if op, _ := quads(m); op != 6 {
		t.Fatalf("quads = %d, want 6", op)
	}
	inset := false
	for _, v := range m.Vertices {
		if v.X() < 2 || v.X() > 3 || v.Y() < 3 || v.Y() > 4 || v.Z() < 2 || v.Z() > 3 {
			t.Fatalf("vertex %v outside voxel", v)
		}
		if mgl32.FloatEqual(v.X(), 2.0625) {
			inset = true
		}
	}
	if !inset {
		t.Error("custom mesh vertices not used")
	}

	tile := TextureUV(bt.TextureID(voxel.FaceBack), atlas)
	if !m.UVs[3].ApproxEqual(tile[3]) {
		t.Errorf("custom uv = %v, want %v", m.UVs[3], tile[3])
	}
}

func TestBuildCustomMeshRotated(t *testing.T) {
	blocks := testBlocks(t)
	cactus := id(t, blocks, "cactus")

	c := world.NewChunkData(world.ChunkCoord{}, 16, 32)
	c.Set(0, 0, 0, world.VoxelState{ID: cactus, Orientation: voxel.Back})
	m := NewBuilder(blocks, atlas).Build(c, nil)

	// The logical back face is inset at z=0.0625; turned around it sits
	// near z=1.
	for i := 0; i < 4; i++ {
		if z := m.Vertices[i].Z(); !mgl32.FloatEqual(z, 0.9375) {
			t.Errorf("rotated back vertex %d z = %v, want 0.9375", i, z)
		}
		if m.Normals[i] != voxel.Normals[voxel.FaceFront] {
			t.Errorf("rotated back normal = %v, want front", m.Normals[i])
		}
	}
}

func TestTransform(t *testing.T) {
	m := Transform(world.ChunkCoord{X: 2, Z: 3}, 16)
	if got, want := m.Col(3), (mgl32.Vec4{32, 0, 48, 1}); got != want {
		t.Errorf("translation = %v, want %v", got, want)
	}
	p := m.Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	if got, want := p.Vec3(), (mgl32.Vec3{33, 2, 51}); got != want {
		t.Errorf("transformed point = %v, want %v", got, want)
	}
}
