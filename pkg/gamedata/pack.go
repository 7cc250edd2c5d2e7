package gamedata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// YAML document shapes. Block references are names until resolved.

type blocksFile struct {
	Blocks []rawBlock `yaml:"blocks"`
}

type rawBlock struct {
	Name                string      `yaml:"name"`
	Solid               bool        `yaml:"solid"`
	Transparent         bool        `yaml:"transparent"`
	RenderNeighborFaces bool        `yaml:"render_neighbor_faces"`
	Opacity             uint8       `yaml:"opacity"`
	Textures            rawTextures `yaml:"textures"`
	Mesh                *rawMesh    `yaml:"mesh"`
}

// rawTextures applies All, then Side (back/front/left/right), then any
// explicit face.
type rawTextures struct {
	All    *int `yaml:"all"`
	Side   *int `yaml:"side"`
	Back   *int `yaml:"back"`
	Front  *int `yaml:"front"`
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

type rawMesh struct {
	Faces map[string]rawMeshFace `yaml:"faces"`
}

type rawMeshFace struct {
	Vertices []struct {
		Pos [3]float32 `yaml:"pos"`
		UV  [2]float32 `yaml:"uv"`
	} `yaml:"vertices"`
	Triangles []uint32 `yaml:"triangles"`
}

type biomesFile struct {
	Biomes []rawBiome `yaml:"biomes"`
}

type rawBiome struct {
	Name            string    `yaml:"name"`
	Offset          float64   `yaml:"offset"`
	Scale           float64   `yaml:"scale"`
	TerrainHeight   int       `yaml:"terrain_height"`
	TerrainScale    float64   `yaml:"terrain_scale"`
	SurfaceBlock    string    `yaml:"surface_block"`
	SubsurfaceBlock string    `yaml:"subsurface_block"`
	Flora           *rawFlora `yaml:"flora"`
	Lodes           []rawLode `yaml:"lodes"`
}

type rawFlora struct {
	Kind               string  `yaml:"kind"`
	TrunkBlock         string  `yaml:"trunk_block"`
	LeavesBlock        string  `yaml:"leaves_block"`
	ZoneScale          float64 `yaml:"zone_scale"`
	ZoneThreshold      float64 `yaml:"zone_threshold"`
	PlacementScale     float64 `yaml:"placement_scale"`
	PlacementThreshold float64 `yaml:"placement_threshold"`
	MinHeight          int     `yaml:"min_height"`
	MaxHeight          int     `yaml:"max_height"`
}

type rawLode struct {
	Name        string  `yaml:"name"`
	Block       string  `yaml:"block"`
	MinHeight   int     `yaml:"min_height"`
	MaxHeight   int     `yaml:"max_height"`
	Scale       float64 `yaml:"scale"`
	Threshold   float64 `yaml:"threshold"`
	NoiseOffset float64 `yaml:"noise_offset"`
}

func (rb rawBlock) resolve() (BlockType, error) {
	bt := BlockType{
		Name:                rb.Name,
		Solid:               rb.Solid,
		Transparent:         rb.Transparent,
		RenderNeighborFaces: rb.RenderNeighborFaces,
		Opacity:             rb.Opacity,
	}

	tx := rb.Textures
	set := func(v *int, faces ...voxel.Face) {
		if v == nil {
			return
		}
		for _, f := range faces {
			bt.Textures[f] = *v
		}
	}
	set(tx.All, voxel.FaceBack, voxel.FaceFront, voxel.FaceTop, voxel.FaceBottom, voxel.FaceLeft, voxel.FaceRight)
	set(tx.Side, voxel.FaceBack, voxel.FaceFront, voxel.FaceLeft, voxel.FaceRight)
	set(tx.Back, voxel.FaceBack)
	set(tx.Front, voxel.FaceFront)
	set(tx.Top, voxel.FaceTop)
	set(tx.Bottom, voxel.FaceBottom)
	set(tx.Left, voxel.FaceLeft)
	set(tx.Right, voxel.FaceRight)

	if rb.Mesh != nil {
		m, err := rb.Mesh.resolve()
		if err != nil {
			return BlockType{}, fmt.Errorf("block %q mesh: %w", rb.Name, err)
		}
		bt.Mesh = m
	}
	return bt, nil
}

func (rm *rawMesh) resolve() (*CustomMesh, error) {
	m := &CustomMesh{}
	for name, rf := range rm.Faces {
		f, ok := faceByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown face %q", name)
		}
		if len(rf.Triangles)%3 != 0 {
			return nil, fmt.Errorf("face %s: triangle index count %d not a multiple of 3", name, len(rf.Triangles))
		}
		mf := MeshFace{Triangles: rf.Triangles}
		for _, v := range rf.Vertices {
			mf.Vertices = append(mf.Vertices, MeshVertex{
				Pos: mgl32.Vec3{v.Pos[0], v.Pos[1], v.Pos[2]},
				UV:  mgl32.Vec2{v.UV[0], v.UV[1]},
			})
		}
		for _, idx := range mf.Triangles {
			if int(idx) >= len(mf.Vertices) {
				return nil, fmt.Errorf("face %s: triangle index %d out of range", name, idx)
			}
		}
		m.Faces[f] = mf
	}
	return m, nil
}

func faceByName(name string) (voxel.Face, bool) {
	for f := voxel.Face(0); f < voxel.FaceCount; f++ {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

func (rb rawBiome) resolve(t *BlockTable) (Biome, error) {
	b := Biome{
		Name:          rb.Name,
		Offset:        rb.Offset,
		Scale:         rb.Scale,
		TerrainHeight: rb.TerrainHeight,
		TerrainScale:  rb.TerrainScale,
	}
	var err error
	if b.SurfaceBlock, err = blockRef(t, rb.SurfaceBlock); err != nil {
		return Biome{}, fmt.Errorf("surface_block: %w", err)
	}
	if b.SubsurfaceBlock, err = blockRef(t, rb.SubsurfaceBlock); err != nil {
		return Biome{}, fmt.Errorf("subsurface_block: %w", err)
	}

	if rf := rb.Flora; rf != nil {
		fl := &Flora{
			Kind:               FloraKind(rf.Kind),
			ZoneScale:          rf.ZoneScale,
			ZoneThreshold:      rf.ZoneThreshold,
			PlacementScale:     rf.PlacementScale,
			PlacementThreshold: rf.PlacementThreshold,
			MinHeight:          rf.MinHeight,
			MaxHeight:          rf.MaxHeight,
		}
		if fl.MinHeight > fl.MaxHeight {
			return Biome{}, fmt.Errorf("flora min_height %d above max_height %d", fl.MinHeight, fl.MaxHeight)
		}
		if fl.TrunkBlock, err = blockRef(t, rf.TrunkBlock); err != nil {
			return Biome{}, fmt.Errorf("flora trunk_block: %w", err)
		}
		if fl.Kind == FloraTree {
			if fl.LeavesBlock, err = blockRef(t, rf.LeavesBlock); err != nil {
				return Biome{}, fmt.Errorf("flora leaves_block: %w", err)
			}
		}
		b.Flora = fl
	}

	for _, rl := range rb.Lodes {
		id, err := blockRef(t, rl.Block)
		if err != nil {
			return Biome{}, fmt.Errorf("lode %q: %w", rl.Name, err)
		}
		b.Lodes = append(b.Lodes, Lode{
			Name:        rl.Name,
			Block:       id,
			MinHeight:   rl.MinHeight,
			MaxHeight:   rl.MaxHeight,
			Scale:       rl.Scale,
			Threshold:   rl.Threshold,
			NoiseOffset: rl.NoiseOffset,
		})
	}
	return b, nil
}

func blockRef(t *BlockTable, name string) (BlockID, error) {
	bt, ok := t.ByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown block %q", name)
	}
	return bt.ID, nil
}
