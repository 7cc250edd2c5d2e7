package gamedata

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Pack file names inside a content pack directory.
const (
	BlocksFile = "blocks.yaml"
	BiomesFile = "biomes.yaml"
)

//go:embed packs
var builtinPacks embed.FS

var (
	versionsMu sync.RWMutex
	versions   = map[string]func() (*GameData, error){}
)

func init() {
	entries, err := fs.ReadDir(builtinPacks, "packs")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		sub, err := fs.Sub(builtinPacks, path.Join("packs", name))
		if err != nil {
			panic(err)
		}
		Register(name, func() (*GameData, error) {
			return LoadFS(sub, name)
		})
	}
}

// Register makes a content pack available to Load under name.
func Register(name string, factory func() (*GameData, error)) {
	versionsMu.Lock()
	defer versionsMu.Unlock()
	versions[name] = factory
}

// Load returns the registered content pack with the given name.
func Load(name string) (*GameData, error) {
	versionsMu.RLock()
	f, ok := versions[name]
	versionsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown content pack: %s", name)
	}
	return f()
}

// RegisteredVersions returns the names of all registered packs, sorted.
func RegisteredVersions() []string {
	versionsMu.RLock()
	defer versionsMu.RUnlock()
	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir reads a content pack from a directory on disk.
func LoadDir(dir string) (*GameData, error) {
	return LoadFS(os.DirFS(dir), filepath.Base(dir))
}

// LoadFS reads blocks.yaml and biomes.yaml from fsys.
func LoadFS(fsys fs.FS, name string) (*GameData, error) {
	blocksRaw, err := fs.ReadFile(fsys, BlocksFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", BlocksFile, err)
	}
	biomesRaw, err := fs.ReadFile(fsys, BiomesFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", BiomesFile, err)
	}
	gd, err := Parse(blocksRaw, biomesRaw)
	if err != nil {
		return nil, fmt.Errorf("content pack %s: %w", name, err)
	}
	gd.Name = name
	return gd, nil
}

// Parse validates and resolves raw pack documents.
func Parse(blocksRaw, biomesRaw []byte) (*GameData, error) {
	if err := validateDocument(blocksSchemaURL, blocksRaw); err != nil {
		return nil, fmt.Errorf("validate %s: %w", BlocksFile, err)
	}
	if err := validateDocument(biomesSchemaURL, biomesRaw); err != nil {
		return nil, fmt.Errorf("validate %s: %w", BiomesFile, err)
	}

	var bf blocksFile
	if err := decodeStrict(blocksRaw, &bf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", BlocksFile, err)
	}
	var mf biomesFile
	if err := decodeStrict(biomesRaw, &mf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", BiomesFile, err)
	}

	types := make([]BlockType, 0, len(bf.Blocks))
	for _, rb := range bf.Blocks {
		bt, err := rb.resolve()
		if err != nil {
			return nil, err
		}
		types = append(types, bt)
	}
	table, err := NewBlockTable(types)
	if err != nil {
		return nil, err
	}

	if len(mf.Biomes) == 0 {
		return nil, errors.New("no biomes defined")
	}
	biomes := make([]Biome, 0, len(mf.Biomes))
	seen := map[string]bool{}
	for _, rb := range mf.Biomes {
		if seen[rb.Name] {
			return nil, fmt.Errorf("duplicate biome name %q", rb.Name)
		}
		seen[rb.Name] = true
		b, err := rb.resolve(table)
		if err != nil {
			return nil, fmt.Errorf("biome %q: %w", rb.Name, err)
		}
		biomes = append(biomes, b)
	}

	return &GameData{Blocks: table, Biomes: biomes}, nil
}

func decodeStrict(raw []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(v)
}
