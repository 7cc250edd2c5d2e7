// Package stream keeps the chunks around a viewer loaded, meshed and
// handed to the renderer, doing the heavy work on a worker pool.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/mesh"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

// ErrClosed is returned by operations on a closed Scheduler.
var ErrClosed = errors.New("scheduler closed")

// Options tune a Scheduler.
type Options struct {
	ViewDistance  int
	LoadDistance  int
	EvictDistance int // 0 never evicts
	Threading     bool
	Workers       int
	CreateRate    float64 // chunk creations per second, 0 = unlimited
	AtlasSize     int
}

// Stats is a point-in-time view of the scheduler's queues.
type Stats struct {
	Center    world.ChunkCoord
	Active    int
	Loaded    int
	Creating  int
	Updates   int
	Ready     int
	Stale     int
	Built     uint64
	Published uint64
	Discarded uint64
	Running   int64
	Waiting   uint64
}

// Scheduler streams chunks around a viewer. Tick must be called from a
// single goroutine; the remesh hook it installs on the store may fire from
// any goroutine.
type Scheduler struct {
	log      *slog.Logger
	store    *world.Store
	builder  *mesh.Builder
	renderer Renderer
	opts     Options

	pool    pond.Pool // nil runs jobs inline
	limiter *rate.Limiter
	closed  atomic.Bool

	// Tick goroutine only.
	center     world.ChunkCoord
	haveCenter bool
	toCreate   []world.ChunkCoord

	mu       sync.Mutex
	active   map[world.ChunkCoord]bool
	creating map[world.ChunkCoord]bool
	updates  []world.ChunkCoord
	queued   map[world.ChunkCoord]bool
	stale    map[world.ChunkCoord]bool

	readyMu sync.Mutex
	ready   []*mesh.Mesh

	built     atomic.Uint64
	published atomic.Uint64
	discarded atomic.Uint64
}

// New creates a Scheduler for store and registers it as the store's remesh
// hook.
func New(store *world.Store, renderer Renderer, opts Options, log *slog.Logger) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	limit := rate.Inf
	if opts.CreateRate > 0 {
		limit = rate.Limit(opts.CreateRate)
	}
	burst := max(1, int(math.Ceil(opts.CreateRate)))

	s := &Scheduler{
		log:      log,
		store:    store,
		builder:  mesh.NewBuilder(store.Blocks(), opts.AtlasSize),
		renderer: renderer,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, burst),
		active:   make(map[world.ChunkCoord]bool),
		creating: make(map[world.ChunkCoord]bool),
		queued:   make(map[world.ChunkCoord]bool),
		stale:    make(map[world.ChunkCoord]bool),
	}
	if opts.Threading {
		s.pool = pond.NewPool(opts.Workers)
	}
	store.SetRemeshHook(s.requestRemesh)
	return s
}

// Warmup synchronously loads or generates every chunk within the load
// distance of center. No meshes are built.
func (s *Scheduler) Warmup(ctx context.Context, center mgl32.Vec3) error {
	if s.closed.Load() {
		return ErrClosed
	}
	width := s.store.Settings().ChunkWidth
	coords := Region(ViewerChunk(center, width), s.opts.LoadDistance, s.store.Settings().WorldSizeInChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, coord := range coords {
		coord := coord
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.store.RequestChunk(coord, true)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("world warmed up", "chunks", len(coords), "center", ViewerChunk(center, width))
	return nil
}

// Tick advances streaming by one step for a viewer at p: the view region
// is refreshed when the viewer changes chunk, chunk creation is dispatched
// within the rate limit, at most one chunk update is dispatched and at most
// one finished mesh is published.
func (s *Scheduler) Tick(p mgl32.Vec3) {
	if s.closed.Load() {
		return
	}
	coord := ViewerChunk(p, s.store.Settings().ChunkWidth)
	if !s.haveCenter || coord != s.center {
		s.center, s.haveCenter = coord, true
		s.checkViewDistance(coord)
	}
	s.createChunks()
	s.dispatchUpdate()
	s.publishReady()
}

// checkViewDistance recomputes the active region around center.
func (s *Scheduler) checkViewDistance(center world.ChunkCoord) {
	settings := s.store.Settings()
	region := Region(center, s.opts.ViewDistance, settings.WorldSizeInChunks)

	var show, hide []world.ChunkCoord
	next := make(map[world.ChunkCoord]bool, len(region))
	s.toCreate = s.toCreate[:0]

	s.mu.Lock()
	for _, coord := range region {
		next[coord] = true
		c := s.store.Chunk(coord)
		switch {
		case c == nil:
			if !s.creating[coord] {
				s.toCreate = append(s.toCreate, coord)
			}
		case s.active[coord]:
		case c.HasMesh():
			show = append(show, coord)
			if s.stale[coord] {
				delete(s.stale, coord)
				s.enqueueLocked(coord)
			}
		default:
			s.enqueueLocked(coord)
		}
	}
	for coord := range s.active {
		if next[coord] {
			continue
		}
		if c := s.store.Chunk(coord); c != nil && c.HasMesh() {
			hide = append(hide, coord)
		}
	}
	s.active = next
	s.mu.Unlock()

	for _, coord := range show {
		s.renderer.SetActive(coord, true)
	}
	for _, coord := range hide {
		s.renderer.SetActive(coord, false)
	}
	s.log.Debug("view changed", "center", center, "active", len(region),
		"create", len(s.toCreate), "show", len(show), "hide", len(hide))

	if s.opts.EvictDistance > 0 {
		s.evictFar(center)
	}
}

// evictFar releases meshes and drops data for chunks beyond the eviction
// distance. Unsaved chunks keep their data until a save clears them.
func (s *Scheduler) evictFar(center world.ChunkCoord) {
	for _, coord := range s.store.Loaded() {
		if InViewDistance(coord, center, s.opts.EvictDistance) {
			continue
		}
		c := s.store.Chunk(coord)
		if c == nil || !c.IsEditable() {
			continue
		}
		if c.HasMesh() {
			s.renderer.Release(coord)
			c.SetHasMesh(false)
		}
		if s.store.Evict(coord) {
			s.mu.Lock()
			delete(s.stale, coord)
			s.mu.Unlock()
			s.log.Debug("chunk evicted", "chunk", coord)
		}
	}
}

// createChunks dispatches creation of missing chunks, as many as the rate
// limiter allows.
func (s *Scheduler) createChunks() {
	for len(s.toCreate) > 0 && s.limiter.Allow() {
		coord := s.toCreate[0]
		s.toCreate = s.toCreate[1:]

		s.mu.Lock()
		s.creating[coord] = true
		s.mu.Unlock()
		s.run(func() { s.create(coord) })
	}
}

// create loads or generates a chunk, then queues its first mesh.
func (s *Scheduler) create(coord world.ChunkCoord) {
	defer func() {
		s.mu.Lock()
		delete(s.creating, coord)
		s.mu.Unlock()
	}()
	if s.closed.Load() {
		return
	}
	if _, err := s.store.RequestChunk(coord, true); err != nil {
		s.log.Warn("create chunk", "chunk", coord, "error", err)
		return
	}
	s.requestRemesh(coord)
}

// dispatchUpdate starts a build for the first queued chunk that is
// editable. Queued chunks that are not loaded yet keep their place.
func (s *Scheduler) dispatchUpdate() {
	s.mu.Lock()
	var coord world.ChunkCoord
	found := false
	for i, cand := range s.updates {
		if c := s.store.Chunk(cand); c != nil && c.IsEditable() {
			coord, found = cand, true
			s.updates = append(s.updates[:i], s.updates[i+1:]...)
			delete(s.queued, cand)
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.run(func() { s.build(coord) })
	}
}

// build applies queued edits to a chunk and meshes it while holding the
// chunk's busy flag, then queues the mesh for publishing.
func (s *Scheduler) build(coord world.ChunkCoord) {
	if s.closed.Load() {
		return
	}
	c, err := s.store.RequestChunk(coord, true)
	if err != nil {
		s.log.Warn("build chunk", "chunk", coord, "error", err)
		return
	}
	if !c.TryLock() {
		s.requestRemesh(coord)
		return
	}
	s.store.ApplyPending(c)
	m := s.builder.Build(c, s.store)
	c.Unlock()
	s.built.Add(1)

	s.readyMu.Lock()
	s.ready = append(s.ready, m)
	s.readyMu.Unlock()
}

// publishReady hands the oldest finished mesh to the renderer once its
// chunk is editable. Meshes for chunks that left the view are discarded
// and the chunk is rebuilt when it comes back.
func (s *Scheduler) publishReady() {
	s.readyMu.Lock()
	if len(s.ready) == 0 {
		s.readyMu.Unlock()
		return
	}
	m := s.ready[0]
	c := s.store.Chunk(m.Coord)
	if c != nil && !c.IsEditable() {
		s.readyMu.Unlock()
		return
	}
	s.ready[0] = nil
	s.ready = s.ready[1:]
	s.readyMu.Unlock()

	if c == nil {
		s.discarded.Add(1)
		return
	}

	s.mu.Lock()
	active := s.active[m.Coord]
	if !active {
		s.stale[m.Coord] = true
	}
	s.mu.Unlock()
	if !active {
		s.discarded.Add(1)
		return
	}

	first := !c.HasMesh()
	s.renderer.Publish(Frame{Coord: m.Coord, Mesh: m, Transform: m.Transform()})
	c.SetHasMesh(true)
	s.published.Add(1)

	if first {
		s.remeshNeighbors(m.Coord)
	}
}

// remeshNeighbors rebuilds meshed neighbors of a newly meshed chunk so
// faces along the shared border are culled.
func (s *Scheduler) remeshNeighbors(coord world.ChunkCoord) {
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := coord.Offset(d[0], d[1])
		if c := s.store.Chunk(n); c != nil && c.HasMesh() {
			s.requestRemesh(n)
		}
	}
}

// requestRemesh queues a rebuild of an active chunk, or marks an inactive
// one for rebuild on reactivation.
func (s *Scheduler) requestRemesh(coord world.ChunkCoord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[coord] {
		s.enqueueLocked(coord)
	} else {
		s.stale[coord] = true
	}
}

func (s *Scheduler) enqueueLocked(coord world.ChunkCoord) {
	if s.queued[coord] {
		return
	}
	s.queued[coord] = true
	s.updates = append(s.updates, coord)
}

// run executes job on the pool, or inline when threading is off.
func (s *Scheduler) run(job func()) {
	if s.pool == nil {
		job()
		return
	}
	s.pool.Submit(job)
}

// Stats returns a snapshot of the scheduler's queues. Call it from the
// goroutine running Tick.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Center:    s.center,
		Loaded:    len(s.store.Loaded()),
		Built:     s.built.Load(),
		Published: s.published.Load(),
		Discarded: s.discarded.Load(),
	}
	s.mu.Lock()
	st.Active = len(s.active)
	st.Creating = len(s.creating)
	st.Updates = len(s.updates)
	st.Stale = len(s.stale)
	s.mu.Unlock()

	s.readyMu.Lock()
	st.Ready = len(s.ready)
	s.readyMu.Unlock()

	if s.pool != nil {
		st.Running = s.pool.RunningWorkers()
		st.Waiting = s.pool.WaitingTasks()
	}
	return st
}

// Close stops accepting work and waits for running jobs to finish. Queued
// jobs return without doing work.
func (s *Scheduler) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.pool != nil {
		s.pool.StopAndWait()
	}
	s.store.SetRemeshHook(nil)
}
