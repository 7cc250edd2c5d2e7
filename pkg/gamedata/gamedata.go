// Package gamedata loads the content pack that drives world generation and
// meshing: the block type table and the biome definitions.
//
// Content packs are YAML documents validated against embedded JSON schemas.
// The table is immutable once loaded and safe for concurrent reads.
package gamedata

// GameData is a fully resolved content pack.
type GameData struct {
	Name   string
	Blocks *BlockTable
	Biomes []Biome
}

// Biome returns the biome with the given name.
func (gd *GameData) Biome(name string) (Biome, bool) {
	for _, b := range gd.Biomes {
		if b.Name == name {
			return b, true
		}
	}
	return Biome{}, false
}
