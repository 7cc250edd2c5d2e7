package gamedata

// FloraKind selects the structure a biome grows.
type FloraKind string

const (
	FloraTree   FloraKind = "tree"
	FloraCactus FloraKind = "cactus"
)

// Flora controls where a biome places its major flora structure. A column
// grows one when both the zone noise and the placement noise exceed their
// thresholds.
type Flora struct {
	Kind        FloraKind
	TrunkBlock  BlockID
	LeavesBlock BlockID

	ZoneScale          float64
	ZoneThreshold      float64
	PlacementScale     float64
	PlacementThreshold float64

	MinHeight int
	MaxHeight int
}

// Lode replaces stone with another block where 3D noise passes, between
// MinHeight and MaxHeight (both exclusive).
type Lode struct {
	Name        string
	Block       BlockID
	MinHeight   int
	MaxHeight   int
	Scale       float64
	Threshold   float64
	NoiseOffset float64
}

// Biome parameterizes terrain shape and decoration.
type Biome struct {
	Name string

	// Offset and Scale drive the biome's selection weight noise.
	Offset float64
	Scale  float64

	TerrainHeight int
	TerrainScale  float64

	SurfaceBlock    BlockID
	SubsurfaceBlock BlockID

	// Flora is nil for biomes without major flora.
	Flora *Flora

	// Lodes are evaluated in order; the last passing lode wins.
	Lodes []Lode
}
