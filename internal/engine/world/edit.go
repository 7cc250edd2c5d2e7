package world

import (
	"github.com/OCharnyshevich/voxel-engine/internal/engine/light"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// QueueModifications files mods under their target chunks. Positions
// outside the world are dropped. Loaded targets are flagged for a rebuild,
// which applies the queued edits first.
func (s *Store) QueueModifications(mods []gen.Modification) {
	touched := map[ChunkCoord]bool{}

	s.pendingMu.Lock()
	for _, m := range mods {
		if !s.settings.InWorld(m.Pos) {
			continue
		}
		coord := CoordOf(m.Pos.X, m.Pos.Z, s.settings.ChunkWidth)
		s.pending[coord] = append(s.pending[coord], m)
		touched[coord] = true
	}
	s.pendingMu.Unlock()

	for coord := range touched {
		if s.Chunk(coord) != nil {
			s.requestRemesh(coord)
		}
	}
}

// PendingCount returns the number of queued modifications for coord.
func (s *Store) PendingCount(coord ChunkCoord) int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending[coord])
}

// ApplyPending drains the modifications queued for c and writes them. The
// caller must hold c via TryLock. It returns the number of voxels changed.
func (s *Store) ApplyPending(c *ChunkData) int {
	s.pendingMu.Lock()
	mods := s.pending[c.Coord]
	delete(s.pending, c.Coord)
	s.pendingMu.Unlock()
	if len(mods) == 0 {
		return 0
	}

	origin := c.Coord.Origin(c.width)
	changed := 0
	c.mu.Lock()
	for _, m := range mods {
		x, y, z := m.Pos.X-origin.X, m.Pos.Y, m.Pos.Z-origin.Z
		if !c.Contains(x, y, z) {
			continue
		}
		v := &c.voxels[c.index(x, y, z)]
		if v.ID == m.Block && v.Orientation == m.Orientation {
			continue
		}
		v.ID = m.Block
		v.Orientation = m.Orientation
		changed++
	}
	if changed > 0 {
		light.Recalculate(chunkGrid{c: c, blocks: s.blocks})
	}
	c.mu.Unlock()

	if changed > 0 {
		s.MarkModified(c.Coord)
	}
	return changed
}

// SetVoxel changes the block at world position p. If the owning chunk is
// busy or not loaded the edit is queued, ErrEditDeferred is returned and
// the edit lands before the chunk's next mesh build. SetVoxel never
// generates chunks.
func (s *Store) SetVoxel(p gen.Pos, id gamedata.BlockID, o voxel.Orientation) error {
	if !s.settings.InWorld(p) {
		return ErrOutOfWorld
	}
	coord, x, y, z := Local(p, s.settings.ChunkWidth)
	c, err := s.RequestChunk(coord, false)
	if err != nil {
		return err
	}
	if c == nil || !c.TryLock() {
		s.QueueModifications([]gen.Modification{{Pos: p, Block: id, Orientation: o}})
		return ErrEditDeferred
	}
	defer c.Unlock()
	s.ModifyVoxel(c, x, y, z, id, o)
	return nil
}

// ModifyVoxel changes one voxel of c by local coordinates. The caller must
// hold c via TryLock. Setting the block already present is a no-op. Light
// is recast only when the opacity changes.
func (s *Store) ModifyVoxel(c *ChunkData, x, y, z int, id gamedata.BlockID, o voxel.Orientation) bool {
	if !c.Contains(x, y, z) {
		return false
	}

	c.mu.Lock()
	v := &c.voxels[c.index(x, y, z)]
	if v.ID == id && v.Orientation == o {
		c.mu.Unlock()
		return false
	}
	oldOpacity := s.blocks.Opacity(v.ID)
	v.ID = id
	v.Orientation = o

	if newOpacity := s.blocks.Opacity(id); newOpacity != oldOpacity {
		g := chunkGrid{c: c, blocks: s.blocks}
		switch {
		case y == c.height-1 || c.voxels[c.index(x, y+1, z)].Light == MaxLight:
			light.RecastColumn(g, x, z, y+1)
		case newOpacity < oldOpacity:
			light.Refill(g, x, y, z)
		}
	}
	c.mu.Unlock()

	s.MarkModified(c.Coord)
	s.requestRemesh(c.Coord)
	s.remeshBorders(c, x, z)
	return true
}

// remeshBorders flags neighboring chunks whose boundary faces may have
// changed with an edit at local (x, z).
func (s *Store) remeshBorders(c *ChunkData, x, z int) {
	var dirs []ChunkCoord
	if x == 0 {
		dirs = append(dirs, c.Coord.Offset(-1, 0))
	}
	if x == c.width-1 {
		dirs = append(dirs, c.Coord.Offset(1, 0))
	}
	if z == 0 {
		dirs = append(dirs, c.Coord.Offset(0, -1))
	}
	if z == c.width-1 {
		dirs = append(dirs, c.Coord.Offset(0, 1))
	}
	for _, coord := range dirs {
		if n := s.Chunk(coord); n != nil && n.HasMesh() {
			s.requestRemesh(coord)
		}
	}
}

// GetVoxel returns the block id at world position p. Loaded chunks answer
// from their data; elsewhere the generator is consulted.
func (s *Store) GetVoxel(p gen.Pos) gamedata.BlockID {
	if !s.settings.InWorld(p) {
		return gamedata.AirID
	}
	if v, ok := s.VoxelAt(p); ok {
		return v.ID
	}
	id, _ := s.gen.GetVoxel(p)
	return id
}

// IsSolidAt reports whether the block at p is solid.
func (s *Store) IsSolidAt(p gen.Pos) bool {
	return s.blocks.Solid(s.GetVoxel(p))
}

// VoxelAt returns the voxel at p if its chunk is loaded and populated.
func (s *Store) VoxelAt(p gen.Pos) (VoxelState, bool) {
	if !s.settings.InWorld(p) {
		return VoxelState{}, false
	}
	coord, x, y, z := Local(p, s.settings.ChunkWidth)
	c := s.Chunk(coord)
	if c == nil || !c.IsPopulated() {
		return VoxelState{}, false
	}
	return c.At(x, y, z), true
}
