package gen

import (
	"testing"

	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
)

const (
	testGrass  gamedata.BlockID = 3
	testSand   gamedata.BlockID = 4
	testDirt   gamedata.BlockID = 5
	testWood   gamedata.BlockID = 6
	testLeaves gamedata.BlockID = 11
)

func testSettings() Settings {
	return Settings{
		ChunkWidth:        16,
		ChunkHeight:       128,
		WorldSizeInChunks: 8,
		GroundHeight:      42,
		WaterLevel:        51,
	}
}

func hillyBiomes() []gamedata.Biome {
	return []gamedata.Biome{
		{
			Name: "grasslands", Offset: 1234, Scale: 0.042,
			TerrainHeight: 22, TerrainScale: 0.15,
			SurfaceBlock: testGrass, SubsurfaceBlock: testDirt,
			Flora: &gamedata.Flora{
				Kind: gamedata.FloraTree, TrunkBlock: testWood, LeavesBlock: testLeaves,
				ZoneScale: 1.3, ZoneThreshold: 0.6, PlacementScale: 15, PlacementThreshold: 0.8,
				MinHeight: 5, MaxHeight: 12,
			},
			Lodes: []gamedata.Lode{
				{Name: "dirt", Block: testDirt, MinHeight: 1, MaxHeight: 255, Scale: 0.1, Threshold: 0.5},
			},
		},
		{
			Name: "desert", Offset: 6545, Scale: 0.058,
			TerrainHeight: 10, TerrainScale: 0.05,
			SurfaceBlock: testSand, SubsurfaceBlock: testSand,
		},
	}
}

// flatBiome has no terrain variation, so every column sits exactly at the
// ground height.
func flatBiome(lodes ...gamedata.Lode) gamedata.Biome {
	return gamedata.Biome{
		Name: "flat", Scale: 0.05, TerrainHeight: 0, TerrainScale: 0.1,
		SurfaceBlock: testGrass, SubsurfaceBlock: testDirt,
		Lodes: lodes,
	}
}

func TestTerrainDeterministic(t *testing.T) {
	g1 := NewTerrain(42, testSettings(), hillyBiomes())
	g2 := NewTerrain(42, testSettings(), hillyBiomes())

	a := make([]gamedata.BlockID, 128)
	b := make([]gamedata.BlockID, 128)
	for x := 0; x < 32; x += 3 {
		for z := 0; z < 32; z += 5 {
			modsA := g1.Column(x, z, a)
			modsB := g2.Column(x, z, b)
			for y := range a {
				if a[y] != b[y] {
					t.Fatalf("column (%d,%d) y=%d: %d != %d", x, z, y, a[y], b[y])
				}
			}
			if len(modsA) != len(modsB) {
				t.Fatalf("column (%d,%d): %d mods != %d mods", x, z, len(modsA), len(modsB))
			}
			for i := range modsA {
				if modsA[i] != modsB[i] {
					t.Fatalf("column (%d,%d) mod %d differs", x, z, i)
				}
			}
		}
	}
}

func TestTerrainColumnMatchesGetVoxel(t *testing.T) {
	g := NewTerrain(7, testSettings(), hillyBiomes())
	col := make([]gamedata.BlockID, 128)

	for _, xz := range [][2]int{{0, 0}, {17, 3}, {64, 90}, {127, 127}} {
		x, z := xz[0], xz[1]
		mods := g.Column(x, z, col)
		var fromVoxels []Modification
		for y := 0; y < 128; y++ {
			id, m := g.GetVoxel(Pos{x, y, z})
			if id != col[y] {
				t.Errorf("GetVoxel(%d,%d,%d) = %d, Column = %d", x, y, z, id, col[y])
			}
			fromVoxels = append(fromVoxels, m...)
		}
		if len(fromVoxels) != len(mods) {
			t.Errorf("column (%d,%d): GetVoxel mods = %d, Column mods = %d", x, z, len(fromVoxels), len(mods))
		}
	}
}

func TestTerrainBedrockAndBounds(t *testing.T) {
	g := NewTerrain(12345, testSettings(), hillyBiomes())
	size := testSettings().WorldSizeInVoxels()

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			if id, _ := g.GetVoxel(Pos{x, 0, z}); id != gamedata.BedrockID {
				t.Errorf("GetVoxel(%d,0,%d) = %d, want bedrock", x, z, id)
			}
		}
	}

	outside := []Pos{
		{-1, 10, 0},
		{0, 10, -1},
		{size, 10, 0},
		{0, 128, 0},
		{0, -1, 0},
	}
	for _, p := range outside {
		if id, mods := g.GetVoxel(p); id != gamedata.AirID || mods != nil {
			t.Errorf("GetVoxel(%v) = %d, %v; want air, nil", p, id, mods)
		}
	}
}

func TestTerrainFlatColumn(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 64
	g := NewTerrain(1, s, []gamedata.Biome{flatBiome()})

	if h := g.HeightAt(5, 5); h != 64 {
		t.Fatalf("HeightAt = %d, want 64", h)
	}

	tests := []struct {
		y    int
		want gamedata.BlockID
	}{
		{0, gamedata.BedrockID},
		{1, gamedata.StoneID},
		{60, gamedata.StoneID},
		{61, testDirt},
		{63, testDirt},
		{64, testGrass},
		{65, gamedata.AirID},
		{127, gamedata.AirID},
		{128, gamedata.AirID},
	}
	for _, tt := range tests {
		if got, _ := g.GetVoxel(Pos{5, tt.y, 5}); got != tt.want {
			t.Errorf("GetVoxel(5,%d,5) = %d, want %d", tt.y, got, tt.want)
		}
	}
}

func TestTerrainWaterFill(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 40
	g := NewTerrain(1, s, []gamedata.Biome{flatBiome()})

	for y := 41; y < s.WaterLevel; y++ {
		if got, _ := g.GetVoxel(Pos{3, y, 3}); got != testDirt {
			t.Errorf("GetVoxel(3,%d,3) = %d, want water fill %d", y, got, testDirt)
		}
	}
	if got, _ := g.GetVoxel(Pos{3, s.WaterLevel, 3}); got != gamedata.AirID {
		t.Errorf("GetVoxel at water level = %d, want air", got)
	}
}

func TestTerrainLodeBandExclusiveAndLastWins(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 64
	always := -1.0
	g := NewTerrain(1, s, []gamedata.Biome{flatBiome(
		gamedata.Lode{Name: "dirt", Block: testDirt, MinHeight: 10, MaxHeight: 30, Scale: 0.5, Threshold: always},
		gamedata.Lode{Name: "sand", Block: testSand, MinHeight: 20, MaxHeight: 40, Scale: 0.5, Threshold: always},
	)})

	tests := []struct {
		y    int
		want gamedata.BlockID
	}{
		{10, gamedata.StoneID},
		{11, testDirt},
		{20, testDirt},
		{21, testSand},
		{29, testSand},
		{39, testSand},
		{40, gamedata.StoneID},
	}
	for _, tt := range tests {
		if got, _ := g.GetVoxel(Pos{2, tt.y, 2}); got != tt.want {
			t.Errorf("GetVoxel(2,%d,2) = %d, want %d", tt.y, got, tt.want)
		}
	}
}

func TestTerrainLodesOnlyReplaceStone(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 64
	g := NewTerrain(1, s, []gamedata.Biome{flatBiome(
		gamedata.Lode{Name: "sand", Block: testSand, MinHeight: 0, MaxHeight: 127, Scale: 0.5, Threshold: -1},
	)})

	if got, _ := g.GetVoxel(Pos{1, 64, 1}); got != testGrass {
		t.Errorf("surface = %d, want grass", got)
	}
	if got, _ := g.GetVoxel(Pos{1, 62, 1}); got != testDirt {
		t.Errorf("subsurface = %d, want dirt", got)
	}
	if got, _ := g.GetVoxel(Pos{1, 0, 1}); got != gamedata.BedrockID {
		t.Errorf("y=0 = %d, want bedrock", got)
	}
	if got, _ := g.GetVoxel(Pos{1, 30, 1}); got != testSand {
		t.Errorf("y=30 = %d, want sand", got)
	}
}

func TestTerrainFloraGates(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 64

	biome := flatBiome()
	biome.Flora = &gamedata.Flora{
		Kind: gamedata.FloraTree, TrunkBlock: testWood, LeavesBlock: testLeaves,
		ZoneScale: 1, ZoneThreshold: -1, PlacementScale: 1, PlacementThreshold: -1,
		MinHeight: 4, MaxHeight: 6,
	}
	g := NewTerrain(1, s, []gamedata.Biome{biome})

	_, mods := g.GetVoxel(Pos{8, 64, 8})
	if len(mods) == 0 {
		t.Fatal("expected a tree at the surface with open gates")
	}
	if _, below := g.GetVoxel(Pos{8, 63, 8}); below != nil {
		t.Error("structures must only anchor at the surface voxel")
	}

	biome.Flora.ZoneThreshold = 1
	g = NewTerrain(1, s, []gamedata.Biome{biome})
	if _, mods := g.GetVoxel(Pos{8, 64, 8}); mods != nil {
		t.Errorf("closed zone gate produced %d mods", len(mods))
	}
}

func TestMakeTree(t *testing.T) {
	fl := &gamedata.Flora{TrunkBlock: testWood, LeavesBlock: testLeaves}
	root := Pos{10, 64, 10}
	mods := makeTree(root, fl, 5)

	trunk := map[Pos]bool{}
	for _, m := range mods {
		if m.Block == testWood {
			trunk[m.Pos] = true
		}
	}
	for dy := 1; dy <= 5; dy++ {
		if !trunk[root.Add(0, dy, 0)] {
			t.Errorf("missing trunk at dy=%d", dy)
		}
	}
	for _, m := range mods {
		if m.Block == testLeaves && trunk[m.Pos] {
			t.Errorf("leaves overwrite trunk at %v", m.Pos)
		}
	}
}

func TestStructureHeightWithinBounds(t *testing.T) {
	g := NewTerrain(3, testSettings(), hillyBiomes())
	fl := &gamedata.Flora{MinHeight: 5, MaxHeight: 12}
	for i := 0; i < 200; i++ {
		h := g.structureHeight(Pos{i * 7, 60, i * 3}, fl, treeHeightOffset, treeHeightScale)
		if h < 5 || h > 12 {
			t.Fatalf("structureHeight = %d, want 5..12", h)
		}
	}
}

func TestFlatGeneratorLayers(t *testing.T) {
	s := testSettings()
	s.GroundHeight = 4
	g := NewFlat(s, flatBiome())

	tests := []struct {
		y     int
		block gamedata.BlockID
		name  string
	}{
		{0, gamedata.BedrockID, "bedrock"},
		{1, testDirt, "dirt"},
		{3, testDirt, "dirt"},
		{4, testGrass, "grass"},
		{5, gamedata.AirID, "air"},
	}
	for _, tt := range tests {
		got, mods := g.GetVoxel(Pos{0, tt.y, 0})
		if got != tt.block {
			t.Errorf("y=%d: got %d, want %d (%s)", tt.y, got, tt.block, tt.name)
		}
		if mods != nil {
			t.Errorf("y=%d: flat generator returned structures", tt.y)
		}
	}
	if h := g.HeightAt(100, -3); h != 4 {
		t.Errorf("HeightAt = %d, want 4", h)
	}
}
