package gen

import "github.com/OCharnyshevich/voxel-engine/pkg/gamedata"

// Noise parameters for structure height. Fixed so a structure looks the same
// across sessions for a given seed.
const (
	treeHeightOffset   = 250
	treeHeightScale    = 3
	cactusHeightOffset = 23456
	cactusHeightScale  = 2
)

// structure builds the flora anchored on the surface voxel at root.
func (t *Terrain) structure(root Pos, fl *gamedata.Flora) []Modification {
	switch fl.Kind {
	case gamedata.FloraCactus:
		return makeCactus(root, fl, t.structureHeight(root, fl, cactusHeightOffset, cactusHeightScale))
	default:
		return makeTree(root, fl, t.structureHeight(root, fl, treeHeightOffset, treeHeightScale))
	}
}

func (t *Terrain) structureHeight(root Pos, fl *gamedata.Flora, offset, scale float64) int {
	h := int(float64(fl.MaxHeight) * t.noise.Get2D(float64(root.X), float64(root.Z), offset, scale))
	if h < fl.MinHeight {
		h = fl.MinHeight
	}
	return h
}

// makeTree emits a trunk of the given height above root and a rounded
// canopy around its top. The canopy never replaces the trunk.
func makeTree(root Pos, fl *gamedata.Flora, height int) []Modification {
	mods := make([]Modification, 0, height+48)
	for dy := 1; dy <= height; dy++ {
		mods = append(mods, Modification{Pos: root.Add(0, dy, 0), Block: fl.TrunkBlock})
	}

	leafBase := height - 1
	for dy := 0; dy < 4; dy++ {
		y := leafBase + dy
		radius := 2
		if dy >= 2 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				if dx == 0 && dz == 0 && y <= height {
					continue
				}
				// Square corners on the wide layers read as a cube.
				if radius == 2 && abs(dx) == 2 && abs(dz) == 2 {
					continue
				}
				mods = append(mods, Modification{Pos: root.Add(dx, y, dz), Block: fl.LeavesBlock})
			}
		}
	}
	return mods
}

// makeCactus emits a single column of the trunk block.
func makeCactus(root Pos, fl *gamedata.Flora, height int) []Modification {
	mods := make([]Modification, 0, height)
	for dy := 1; dy <= height; dy++ {
		mods = append(mods, Modification{Pos: root.Add(0, dy, 0), Block: fl.TrunkBlock})
	}
	return mods
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
