// Package config holds the engine configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/voxel-engine/pkg/world/gen"
)

// Generator types.
const (
	GeneratorDefault = "default"
	GeneratorFlat    = "flat"
)

// Config holds the engine configuration.
type Config struct {
	ViewDistance    int  `yaml:"view_distance"`
	LoadDistance    int  `yaml:"load_distance"`
	EvictDistance   int  `yaml:"evict_distance"` // 0 keeps every chunk resident
	EnableThreading bool `yaml:"enable_threading"`
	Workers         int  `yaml:"workers"`

	Seed          int64  `yaml:"seed"`
	WorldName     string `yaml:"world_name"`
	GeneratorType string `yaml:"generator_type"` // "default" or "flat"

	ChunkWidth               int `yaml:"chunk_width"`
	ChunkHeight              int `yaml:"chunk_height"`
	WorldSizeInChunks        int `yaml:"world_size_in_chunks"`
	TextureAtlasSizeInBlocks int `yaml:"texture_atlas_size_in_blocks"`
	GroundHeight             int `yaml:"ground_height"`
	WaterLevel               int `yaml:"water_level"`

	DataDir     string `yaml:"data_dir"`
	ContentPack string `yaml:"content_pack"` // registered pack name or directory
	IndexPath   string `yaml:"index_path"`   // empty disables the save index

	ChunkCreateRate float64       `yaml:"chunk_create_rate"` // chunks per second, 0 = unlimited
	TickRate        time.Duration `yaml:"tick_rate"`
	SaveInterval    time.Duration `yaml:"save_interval"` // 0 saves only on shutdown
	LogLevel        string        `yaml:"log_level"`
}

// DefaultConfig returns a Config with the reference values.
func DefaultConfig() *Config {
	return &Config{
		ViewDistance:    5,
		LoadDistance:    4,
		EnableThreading: true,
		Workers:         1,

		WorldName:     "Prototype",
		GeneratorType: GeneratorDefault,

		ChunkWidth:               16,
		ChunkHeight:              128,
		WorldSizeInChunks:        100,
		TextureAtlasSizeInBlocks: 16,
		GroundHeight:             42,
		WaterLevel:               51,

		DataDir:     "data",
		ContentPack: "default",

		TickRate:     50 * time.Millisecond,
		SaveInterval: time.Minute,
		LogLevel:     "info",
	}
}

// Load reads a YAML config file. Keys absent from the file keep their
// default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line. World
// dimensions have no flags and always come from the file.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["load-distance"] {
		cfg.LoadDistance = fromFile.LoadDistance
	}
	if !explicitFlags["evict-distance"] {
		cfg.EvictDistance = fromFile.EvictDistance
	}
	if !explicitFlags["threading"] {
		cfg.EnableThreading = fromFile.EnableThreading
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["world"] {
		cfg.WorldName = fromFile.WorldName
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["data-dir"] {
		cfg.DataDir = fromFile.DataDir
	}
	if !explicitFlags["content"] {
		cfg.ContentPack = fromFile.ContentPack
	}
	if !explicitFlags["index"] {
		cfg.IndexPath = fromFile.IndexPath
	}
	if !explicitFlags["create-rate"] {
		cfg.ChunkCreateRate = fromFile.ChunkCreateRate
	}
	if !explicitFlags["tick"] {
		cfg.TickRate = fromFile.TickRate
	}
	if !explicitFlags["save-interval"] {
		cfg.SaveInterval = fromFile.SaveInterval
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}

	cfg.ChunkWidth = fromFile.ChunkWidth
	cfg.ChunkHeight = fromFile.ChunkHeight
	cfg.WorldSizeInChunks = fromFile.WorldSizeInChunks
	cfg.TextureAtlasSizeInBlocks = fromFile.TextureAtlasSizeInBlocks
	cfg.GroundHeight = fromFile.GroundHeight
	cfg.WaterLevel = fromFile.WaterLevel
}

// Validate reports the first impossible value in c.
func (c *Config) Validate() error {
	switch {
	case c.ViewDistance < 1:
		return fmt.Errorf("view distance %d: must be at least 1", c.ViewDistance)
	case c.LoadDistance < 0:
		return fmt.Errorf("load distance %d: must not be negative", c.LoadDistance)
	case c.EvictDistance != 0 && c.EvictDistance <= c.ViewDistance:
		return fmt.Errorf("evict distance %d: must exceed view distance %d", c.EvictDistance, c.ViewDistance)
	case c.Workers < 1:
		return fmt.Errorf("workers %d: must be at least 1", c.Workers)
	case c.ChunkWidth < 1 || c.ChunkWidth > 1<<15:
		return fmt.Errorf("chunk width %d: out of range", c.ChunkWidth)
	case c.ChunkHeight < 2 || c.ChunkHeight > 1<<15:
		return fmt.Errorf("chunk height %d: out of range", c.ChunkHeight)
	case c.WorldSizeInChunks < 1:
		return fmt.Errorf("world size %d: must be at least 1 chunk", c.WorldSizeInChunks)
	case c.TextureAtlasSizeInBlocks < 1:
		return fmt.Errorf("texture atlas size %d: must be at least 1", c.TextureAtlasSizeInBlocks)
	case c.GroundHeight < 1 || c.GroundHeight >= c.ChunkHeight:
		return fmt.Errorf("ground height %d: must lie inside chunk height %d", c.GroundHeight, c.ChunkHeight)
	case c.WaterLevel < 0 || c.WaterLevel >= c.ChunkHeight:
		return fmt.Errorf("water level %d: must lie inside chunk height %d", c.WaterLevel, c.ChunkHeight)
	case c.GeneratorType != GeneratorDefault && c.GeneratorType != GeneratorFlat:
		return fmt.Errorf("generator %q: want %q or %q", c.GeneratorType, GeneratorDefault, GeneratorFlat)
	case c.ChunkCreateRate < 0:
		return fmt.Errorf("chunk create rate %v: must not be negative", c.ChunkCreateRate)
	case c.TickRate <= 0:
		return fmt.Errorf("tick rate %v: must be positive", c.TickRate)
	case c.SaveInterval < 0:
		return fmt.Errorf("save interval %v: must not be negative", c.SaveInterval)
	}
	if err := validWorldName(c.WorldName); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func validWorldName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:`) {
		return fmt.Errorf("world name %q: not usable as a directory name", name)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Settings returns the world dimensions and generation constants.
func (c *Config) Settings() gen.Settings {
	return gen.Settings{
		ChunkWidth:        c.ChunkWidth,
		ChunkHeight:       c.ChunkHeight,
		WorldSizeInChunks: c.WorldSizeInChunks,
		GroundHeight:      c.GroundHeight,
		WaterLevel:        c.WaterLevel,
	}
}
