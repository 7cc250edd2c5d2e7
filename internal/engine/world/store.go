package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/light"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
)

// FormatVersion is written into world metadata.
const FormatVersion = 1

var (
	// ErrOutOfWorld is returned for positions outside the bounded world.
	ErrOutOfWorld = errors.New("position outside world")
	// ErrEditDeferred means the target chunk was busy or not yet loaded.
	// The edit has been queued and is applied before the chunk's next mesh.
	ErrEditDeferred = errors.New("edit deferred: chunk not editable")
)

// Metadata describes a saved world.
type Metadata struct {
	Name              string    `json:"name"`
	ID                uuid.UUID `json:"id"`
	Seed              int64     `json:"seed"`
	CreatedAt         time.Time `json:"created_at"`
	ChunkWidth        int       `json:"chunk_width"`
	ChunkHeight       int       `json:"chunk_height"`
	WorldSizeInChunks int       `json:"world_size_in_chunks"`
	FormatVersion     int       `json:"format_version"`
	// Pending holds queued modifications that had not reached a chunk when
	// the world was saved, such as tree parts that cross into a chunk
	// that was never generated.
	Pending []gen.Modification `json:"pending,omitempty"`
}

// NewMetadata creates metadata for a fresh world.
func NewMetadata(name string, seed int64, settings gen.Settings) Metadata {
	return Metadata{
		Name:              name,
		ID:                uuid.New(),
		Seed:              seed,
		CreatedAt:         time.Now().UTC(),
		ChunkWidth:        settings.ChunkWidth,
		ChunkHeight:       settings.ChunkHeight,
		WorldSizeInChunks: settings.WorldSizeInChunks,
		FormatVersion:     FormatVersion,
	}
}

// Compatible reports an error if m was saved with different dimensions.
func (m Metadata) Compatible(settings gen.Settings) error {
	if m.ChunkWidth != settings.ChunkWidth || m.ChunkHeight != settings.ChunkHeight {
		return fmt.Errorf("world %s uses %dx%d chunks, engine configured for %dx%d",
			m.Name, m.ChunkWidth, m.ChunkHeight, settings.ChunkWidth, settings.ChunkHeight)
	}
	if m.WorldSizeInChunks != settings.WorldSizeInChunks {
		return fmt.Errorf("world %s is %d chunks wide, engine configured for %d",
			m.Name, m.WorldSizeInChunks, settings.WorldSizeInChunks)
	}
	return nil
}

// Gateway persists worlds. Loads return nil, nil when nothing is stored.
type Gateway interface {
	SaveWorldMetadata(meta Metadata) error
	LoadWorldMetadata(name string) (*Metadata, error)
	SaveChunk(world string, c *ChunkData) error
	LoadChunk(world string, coord ChunkCoord, width, height int) (*ChunkData, error)
}

// saveConcurrency bounds parallel chunk writes during Save.
const saveConcurrency = 4

// Store is the session's world data.
type Store struct {
	log      *slog.Logger
	meta     Metadata
	settings gen.Settings
	blocks   *gamedata.BlockTable
	gen      gen.Generator
	gateway  Gateway

	mu       sync.Mutex
	chunks   map[ChunkCoord]*ChunkData
	modified map[ChunkCoord]struct{}
	creating singleflight.Group

	pendingMu sync.Mutex
	pending   map[ChunkCoord][]gen.Modification
	// generated records chunks whose structures have been queued, so
	// regenerating a chunk never plants its structures twice.
	generated map[ChunkCoord]bool

	hookMu sync.RWMutex
	remesh func(ChunkCoord)
}

// NewStore creates an empty store. gateway may be nil for a session that
// never touches disk.
func NewStore(meta Metadata, settings gen.Settings, blocks *gamedata.BlockTable, generator gen.Generator, gateway Gateway, log *slog.Logger) *Store {
	s := &Store{
		log:       log,
		meta:      meta,
		settings:  settings,
		blocks:    blocks,
		gen:       generator,
		gateway:   gateway,
		chunks:    make(map[ChunkCoord]*ChunkData),
		modified:  make(map[ChunkCoord]struct{}),
		pending:   make(map[ChunkCoord][]gen.Modification),
		generated: make(map[ChunkCoord]bool),
	}
	s.QueueModifications(meta.Pending)
	s.meta.Pending = nil
	return s
}

// Metadata returns the world's metadata.
func (s *Store) Metadata() Metadata { return s.meta }

// Settings returns the world dimensions.
func (s *Store) Settings() gen.Settings { return s.settings }

// Blocks returns the block type table.
func (s *Store) Blocks() *gamedata.BlockTable { return s.blocks }

// SetRemeshHook registers fn to be called when a loaded chunk's voxels
// change or gain queued edits. fn must not block.
func (s *Store) SetRemeshHook(fn func(ChunkCoord)) {
	s.hookMu.Lock()
	s.remesh = fn
	s.hookMu.Unlock()
}

func (s *Store) requestRemesh(coord ChunkCoord) {
	s.hookMu.RLock()
	fn := s.remesh
	s.hookMu.RUnlock()
	if fn != nil {
		fn(coord)
	}
}

// InWorld reports whether coord lies inside the bounded world.
func (s *Store) InWorld(coord ChunkCoord) bool {
	return coord.X >= 0 && coord.X < s.settings.WorldSizeInChunks &&
		coord.Z >= 0 && coord.Z < s.settings.WorldSizeInChunks
}

// Chunk returns the loaded chunk at coord, or nil.
func (s *Store) Chunk(coord ChunkCoord) *ChunkData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks[coord]
}

// Loaded returns the coordinates of every chunk in memory.
func (s *Store) Loaded() []ChunkCoord {
	s.mu.Lock()
	out := make([]ChunkCoord, 0, len(s.chunks))
	for c := range s.chunks {
		out = append(out, c)
	}
	s.mu.Unlock()
	sortCoords(out)
	return out
}

// RequestChunk returns the chunk at coord. When it is not in memory and
// create is false it returns nil, nil. Otherwise the chunk is loaded through
// the gateway or, failing that, generated and lit before it is returned.
// Concurrent requests for the same coordinate share a single creation.
func (s *Store) RequestChunk(coord ChunkCoord, create bool) (*ChunkData, error) {
	if !s.InWorld(coord) {
		return nil, ErrOutOfWorld
	}
	if c := s.Chunk(coord); c != nil || !create {
		return c, nil
	}

	v, err, _ := s.creating.Do(coord.String(), func() (any, error) {
		// Double-check after winning the flight.
		if c := s.Chunk(coord); c != nil {
			return c, nil
		}

		c, err := s.load(coord)
		if err != nil {
			return nil, err
		}
		if c == nil {
			c = NewChunkData(coord, s.settings.ChunkWidth, s.settings.ChunkHeight)
			s.Populate(c)
			s.MarkModified(coord)
		}

		s.mu.Lock()
		s.chunks[coord] = c
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ChunkData), nil
}

func (s *Store) load(coord ChunkCoord) (*ChunkData, error) {
	if s.gateway == nil {
		return nil, nil
	}
	c, err := s.gateway.LoadChunk(s.meta.Name, coord, s.settings.ChunkWidth, s.settings.ChunkHeight)
	if err != nil {
		s.log.Warn("load chunk", "chunk", coord, "error", err)
		return nil, fmt.Errorf("load chunk %s: %w", coord, err)
	}
	return c, nil
}

// Populate fills c from the generator and lights it. Structures anchored
// in c are queued the first time c is generated in this session.
func (s *Store) Populate(c *ChunkData) {
	origin := c.Coord.Origin(c.width)
	column := make([]gamedata.BlockID, c.height)
	var mods []gen.Modification

	c.mu.Lock()
	for x := 0; x < c.width; x++ {
		for z := 0; z < c.width; z++ {
			mods = append(mods, s.gen.Column(origin.X+x, origin.Z+z, column)...)
			for y := 0; y < c.height; y++ {
				c.voxels[c.index(x, y, z)] = VoxelState{ID: column[y]}
			}
		}
	}
	light.Recalculate(chunkGrid{c: c, blocks: s.blocks})
	c.mu.Unlock()
	c.populated.Store(true)

	s.pendingMu.Lock()
	first := !s.generated[c.Coord]
	s.generated[c.Coord] = true
	s.pendingMu.Unlock()
	if first && len(mods) > 0 {
		s.QueueModifications(mods)
	}
}

// Evict drops an idle, saved chunk without a live mesh from memory.
func (s *Store) Evict(coord ChunkCoord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[coord]
	if !ok {
		return false
	}
	if _, dirty := s.modified[coord]; dirty || c.HasMesh() || !c.IsEditable() {
		return false
	}
	delete(s.chunks, coord)
	return true
}

// MarkModified records that coord differs from its saved state.
func (s *Store) MarkModified(coord ChunkCoord) {
	s.mu.Lock()
	s.modified[coord] = struct{}{}
	s.mu.Unlock()
}

// ModifiedChunks returns the chunks changed since the last save.
func (s *Store) ModifiedChunks() []ChunkCoord {
	s.mu.Lock()
	out := make([]ChunkCoord, 0, len(s.modified))
	for c := range s.modified {
		out = append(out, c)
	}
	s.mu.Unlock()
	sortCoords(out)
	return out
}

// takeModified returns and clears the modified set.
func (s *Store) takeModified() []ChunkCoord {
	s.mu.Lock()
	out := make([]ChunkCoord, 0, len(s.modified))
	for c := range s.modified {
		out = append(out, c)
	}
	clear(s.modified)
	s.mu.Unlock()
	sortCoords(out)
	return out
}

// Save writes world metadata and every modified chunk. Chunks that fail to
// save stay marked modified.
func (s *Store) Save(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}

	s.flushPending()
	meta := s.meta
	meta.Pending = s.pendingSnapshot()
	if err := s.gateway.SaveWorldMetadata(meta); err != nil {
		return fmt.Errorf("save world metadata: %w", err)
	}

	coords := s.takeModified()
	var g errgroup.Group
	g.SetLimit(saveConcurrency)
	for _, coord := range coords {
		coord := coord
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				s.MarkModified(coord)
				return err
			}
			c := s.Chunk(coord)
			if c == nil {
				return nil
			}
			if err := s.gateway.SaveChunk(s.meta.Name, c); err != nil {
				s.MarkModified(coord)
				return fmt.Errorf("save chunk %s: %w", coord, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("world saved", "world", s.meta.Name, "chunks", len(coords))
	return nil
}

// flushPending applies queued modifications to loaded chunks that are free,
// so they reach disk with this save.
func (s *Store) flushPending() {
	s.pendingMu.Lock()
	targets := make([]ChunkCoord, 0, len(s.pending))
	for c := range s.pending {
		targets = append(targets, c)
	}
	s.pendingMu.Unlock()

	for _, coord := range targets {
		c := s.Chunk(coord)
		if c == nil || !c.IsPopulated() || !c.TryLock() {
			continue
		}
		s.ApplyPending(c)
		c.Unlock()
	}
}

// pendingSnapshot copies every queued modification in chunk order.
func (s *Store) pendingSnapshot() []gen.Modification {
	s.pendingMu.Lock()
	coords := make([]ChunkCoord, 0, len(s.pending))
	for c := range s.pending {
		coords = append(coords, c)
	}
	sortCoords(coords)
	var out []gen.Modification
	for _, c := range coords {
		out = append(out, s.pending[c]...)
	}
	s.pendingMu.Unlock()
	return out
}

func sortCoords(cs []ChunkCoord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].X != cs[j].X {
			return cs[i].X < cs[j].X
		}
		return cs[i].Z < cs[j].Z
	})
}
