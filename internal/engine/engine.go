// Package engine ties the world store, streaming scheduler and persistence
// into one session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/config"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/stream"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// Engine is one running world session. It owns everything the session
// needs; there is no global state.
type Engine struct {
	cfg     *config.Config
	log     *slog.Logger
	content *gamedata.GameData
	store   *world.Store
	sched   *stream.Scheduler
}

// New creates an Engine. gateway may be nil for a session that is never
// saved. An existing save with the configured world name is reopened with
// its own seed.
func New(cfg *config.Config, content *gamedata.GameData, gateway world.Gateway, renderer stream.Renderer, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(content.Biomes) == 0 {
		return nil, fmt.Errorf("content pack %s has no biomes", content.Name)
	}
	settings := cfg.Settings()

	meta, err := openMetadata(cfg, settings, gateway)
	if err != nil {
		return nil, err
	}

	var generator gen.Generator
	switch cfg.GeneratorType {
	case config.GeneratorFlat:
		generator = gen.NewFlat(settings, content.Biomes[0])
	default:
		generator = gen.NewTerrain(meta.Seed, settings, content.Biomes)
	}

	store := world.NewStore(meta, settings, content.Blocks, generator, gateway, log)
	sched := stream.New(store, renderer, stream.Options{
		ViewDistance:  cfg.ViewDistance,
		LoadDistance:  cfg.LoadDistance,
		EvictDistance: cfg.EvictDistance,
		Threading:     cfg.EnableThreading,
		Workers:       cfg.Workers,
		CreateRate:    cfg.ChunkCreateRate,
		AtlasSize:     cfg.TextureAtlasSizeInBlocks,
	}, log)

	log.Info("engine started",
		"world", meta.Name,
		"id", meta.ID,
		"seed", meta.Seed,
		"generator", cfg.GeneratorType,
		"content", content.Name,
		"threading", cfg.EnableThreading,
	)
	return &Engine{cfg: cfg, log: log, content: content, store: store, sched: sched}, nil
}

func openMetadata(cfg *config.Config, settings gen.Settings, gateway world.Gateway) (world.Metadata, error) {
	if gateway == nil {
		return world.NewMetadata(cfg.WorldName, cfg.Seed, settings), nil
	}
	saved, err := gateway.LoadWorldMetadata(cfg.WorldName)
	if err != nil {
		return world.Metadata{}, fmt.Errorf("open world %s: %w", cfg.WorldName, err)
	}
	if saved == nil {
		return world.NewMetadata(cfg.WorldName, cfg.Seed, settings), nil
	}
	if err := saved.Compatible(settings); err != nil {
		return world.Metadata{}, err
	}
	if saved.FormatVersion > world.FormatVersion {
		return world.Metadata{}, fmt.Errorf("world %s has format version %d, newest supported is %d",
			saved.Name, saved.FormatVersion, world.FormatVersion)
	}
	return *saved, nil
}

// LoadContent loads a content pack by directory path, or by registered
// name when no such directory exists.
func LoadContent(pack string) (*gamedata.GameData, error) {
	if fi, err := os.Stat(pack); err == nil && fi.IsDir() {
		return gamedata.LoadDir(pack)
	}
	return gamedata.Load(pack)
}

// Store returns the session's world store.
func (e *Engine) Store() *world.Store { return e.store }

// Scheduler returns the session's streaming scheduler.
func (e *Engine) Scheduler() *stream.Scheduler { return e.sched }

// Content returns the loaded content pack.
func (e *Engine) Content() *gamedata.GameData { return e.content }

// Metadata returns the world's metadata.
func (e *Engine) Metadata() world.Metadata { return e.store.Metadata() }

// Spawn returns a standing position above the terrain at the world center.
func (e *Engine) Spawn() mgl32.Vec3 {
	s := e.store.Settings()
	mid := s.WorldSizeInVoxels() / 2
	y := s.ChunkHeight - 1
	for y > 0 && !e.store.IsSolidAt(gen.Pos{X: mid, Y: y - 1, Z: mid}) {
		y--
	}
	return mgl32.Vec3{float32(mid) + 0.5, float32(y), float32(mid) + 0.5}
}

// Warmup generates the chunks within load distance of p.
func (e *Engine) Warmup(ctx context.Context, p mgl32.Vec3) error {
	return e.sched.Warmup(ctx, p)
}

// Tick advances streaming for a viewer at p.
func (e *Engine) Tick(p mgl32.Vec3) {
	e.sched.Tick(p)
}

// SetVoxel edits the world. A deferred edit is not an error to the caller.
func (e *Engine) SetVoxel(p gen.Pos, id gamedata.BlockID, o voxel.Orientation) error {
	if _, ok := e.content.Blocks.ByID(id); !ok {
		return fmt.Errorf("set voxel %v: unknown block id %d", p, id)
	}
	err := e.store.SetVoxel(p, id, o)
	if errors.Is(err, world.ErrEditDeferred) {
		coord := world.CoordOf(p.X, p.Z, e.cfg.ChunkWidth)
		e.log.Debug("edit deferred", "pos", p, "block", id, "chunk", coord, "queued", e.store.PendingCount(coord))
		return nil
	}
	return err
}

// GetVoxel returns the block at p.
func (e *Engine) GetVoxel(p gen.Pos) gamedata.BlockID {
	return e.store.GetVoxel(p)
}

// Save writes every modified chunk.
func (e *Engine) Save(ctx context.Context) error {
	return e.store.Save(ctx)
}

// Run ticks the engine at the configured rate until ctx is cancelled,
// asking viewer for the viewer position each tick and saving at the
// configured interval.
func (e *Engine) Run(ctx context.Context, viewer func() mgl32.Vec3) error {
	ticker := time.NewTicker(e.cfg.TickRate)
	defer ticker.Stop()

	var saves <-chan time.Time
	if e.cfg.SaveInterval > 0 {
		st := time.NewTicker(e.cfg.SaveInterval)
		defer st.Stop()
		saves = st.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(viewer())
		case <-saves:
			if err := e.Save(ctx); err != nil {
				e.log.Error("periodic save", "error", err)
			}
		}
	}
}

// Close stops background work and saves the world.
func (e *Engine) Close(ctx context.Context) error {
	e.sched.Close()
	if err := e.store.Save(ctx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	e.log.Info("engine stopped", "world", e.store.Metadata().Name)
	return nil
}
