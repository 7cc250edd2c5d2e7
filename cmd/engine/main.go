package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/OCharnyshevich/voxel-engine/internal/engine"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/config"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/storage"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/storage/index"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
)

// shutdownTimeout bounds the final save after a signal.
const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "path to a YAML config file")
	walkRadius := flag.Float64("walk-radius", 48, "radius in voxels of the scripted viewer walk (0 stands still)")
	walkSpeed := flag.Float64("walk-speed", 8, "viewer speed in voxels per second")
	flag.IntVar(&cfg.ViewDistance, "view-distance", cfg.ViewDistance, "view distance in chunks")
	flag.IntVar(&cfg.LoadDistance, "load-distance", cfg.LoadDistance, "chunks generated before the first tick")
	flag.IntVar(&cfg.EvictDistance, "evict-distance", cfg.EvictDistance, "unload chunks beyond this distance (0 = never)")
	flag.BoolVar(&cfg.EnableThreading, "threading", cfg.EnableThreading, "build chunks on a worker pool")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker pool size")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed for new worlds")
	flag.StringVar(&cfg.WorldName, "world", cfg.WorldName, "world name")
	flag.StringVar(&cfg.GeneratorType, "generator", cfg.GeneratorType, `terrain generator: "default" or "flat"`)
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "save directory")
	flag.StringVar(&cfg.ContentPack, "content", cfg.ContentPack, "content pack name or directory")
	flag.StringVar(&cfg.IndexPath, "index", cfg.IndexPath, "sqlite save index path (empty disables)")
	flag.Float64Var(&cfg.ChunkCreateRate, "create-rate", cfg.ChunkCreateRate, "chunk creations per second (0 = unlimited)")
	flag.DurationVar(&cfg.TickRate, "tick", cfg.TickRate, "tick interval")
	flag.DurationVar(&cfg.SaveInterval, "save-interval", cfg.SaveInterval, "periodic save interval (0 = on exit only)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, log, float32(*walkRadius), float32(*walkSpeed)); err != nil {
		log.Error("engine error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, walkRadius, walkSpeed float32) error {
	content, err := engine.LoadContent(cfg.ContentPack)
	if err != nil {
		return fmt.Errorf("load content %q (built-in packs: %v): %w", cfg.ContentPack, gamedata.RegisteredVersions(), err)
	}

	files, err := storage.New(cfg.DataDir, log)
	if err != nil {
		return err
	}
	worlds, err := files.Worlds()
	if err != nil {
		return err
	}
	log.Info("save directory", "dir", cfg.DataDir, "worlds", worlds)

	var ix *index.Index
	if cfg.IndexPath != "" {
		ix, err = index.Open(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer ix.Close()
		files.SetRecorder(ix)

		st, err := ix.Stats(cfg.WorldName)
		if err != nil {
			return err
		}
		if st.Saves > 0 {
			log.Info("save history",
				"world", cfg.WorldName,
				"saves", st.Saves,
				"chunks", st.Chunks,
				"written", humanize.Bytes(uint64(st.Bytes)),
				"last", humanize.Time(st.LastSaved),
			)
		}
	}

	renderer := newLogRenderer(log)
	e, err := engine.New(cfg, content, files, renderer, log)
	if err != nil {
		return err
	}
	log.Info("content loaded",
		"pack", e.Content().Name,
		"blocks", e.Content().Blocks.Len(),
		"biomes", len(e.Content().Biomes),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spawn := e.Spawn()
	if err := e.Warmup(ctx, spawn); err != nil {
		e.Close(context.Background())
		return err
	}

	if ix != nil {
		coord := world.CoordOf(int(spawn.X()), int(spawn.Z()), cfg.ChunkWidth)
		rec, err := ix.LastSave(cfg.WorldName, coord)
		if err != nil {
			log.Warn("save history", "chunk", coord, "error", err)
		} else if rec != nil {
			log.Info("spawn chunk last saved", "chunk", coord, "size", humanize.Bytes(uint64(rec.Bytes)), "when", humanize.Time(rec.SavedAt))
		}
	}

	walk := newWalker(spawn, walkRadius, walkSpeed)
	runErr := e.Run(ctx, walk.Position)

	st := e.Scheduler().Stats()
	log.Info("streaming summary",
		"loaded", st.Loaded,
		"built", st.Built,
		"published", st.Published,
		"discarded", st.Discarded,
		"resident", renderer.Resident(),
		"unsaved", len(e.Store().ModifiedChunks()),
		"save_dir", filepath.Join(cfg.DataDir, "worlds", cfg.WorldName),
	)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := e.Close(closeCtx); err != nil {
		return err
	}
	return runErr
}
