// Package storage persists worlds to disk: world metadata as JSON and one
// binary file per chunk.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

const (
	metadataFile = "world.json"
	chunkExt     = ".chunk"
)

// SaveRecorder is told about every chunk file written.
type SaveRecorder interface {
	RecordChunkSave(world string, coord world.ChunkCoord, size int, checksum uint64) error
}

// FileStore implements world.Gateway on a directory tree:
//
//	<dir>/worlds/<name>/world.json
//	<dir>/worlds/<name>/chunks/<x>.<z>.chunk
type FileStore struct {
	dir      string
	log      *slog.Logger
	recorder SaveRecorder
}

var _ world.Gateway = (*FileStore)(nil)

// New creates a FileStore rooted at dir, creating it if needed.
func New(dir string, log *slog.Logger) (*FileStore, error) {
	root := filepath.Join(dir, "worlds")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", root, err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// SetRecorder attaches a recorder notified after each chunk save.
func (s *FileStore) SetRecorder(r SaveRecorder) {
	s.recorder = r
}

func (s *FileStore) worldDir(name string) string {
	return filepath.Join(s.dir, "worlds", name)
}

func (s *FileStore) chunkPath(name string, coord world.ChunkCoord) string {
	return filepath.Join(s.worldDir(name), "chunks", coord.String()+chunkExt)
}

// Worlds lists the names of saved worlds.
func (s *FileStore) Worlds() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "worlds"))
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.worldDir(e.Name()), metadataFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveWorldMetadata writes world.json atomically.
func (s *FileStore) SaveWorldMetadata(meta world.Metadata) error {
	dir := s.worldDir(meta.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return atomicWriteJSON(filepath.Join(dir, metadataFile), meta)
}

// LoadWorldMetadata reads world.json, or returns nil if the world has never
// been saved.
func (s *FileStore) LoadWorldMetadata(name string) (*world.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.worldDir(name), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read world %s: %w", name, err)
	}
	var meta world.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse world %s: %w", name, err)
	}
	return &meta, nil
}

// SaveChunk encodes c and replaces its chunk file atomically.
func (s *FileStore) SaveChunk(name string, c *world.ChunkData) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	path := s.chunkPath(name, c.Coord)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := atomicWrite(path, data); err != nil {
		return err
	}
	s.log.Debug("chunk saved", "world", name, "chunk", c.Coord, "size", humanize.Bytes(uint64(len(data))))

	if s.recorder != nil {
		sum := binary.BigEndian.Uint64(data[len(data)-8:])
		if err := s.recorder.RecordChunkSave(name, c.Coord, len(data), sum); err != nil {
			s.log.Warn("record chunk save", "chunk", c.Coord, "error", err)
		}
	}
	return nil
}

// LoadChunk reads a chunk file, or returns nil if none exists.
func (s *FileStore) LoadChunk(name string, coord world.ChunkCoord, width, height int) (*world.ChunkData, error) {
	data, err := os.ReadFile(s.chunkPath(name, coord))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chunk %s: %w", coord, err)
	}
	c, err := Decode(data, width, height)
	if err != nil {
		return nil, fmt.Errorf("decode chunk %s: %w", coord, err)
	}
	if c.Coord != coord {
		return nil, fmt.Errorf("decode chunk %s: %w: file holds %s", coord, ErrCorrupt, c.Coord)
	}
	return c, nil
}

func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// atomicWrite writes data to a unique temp file in path's directory, syncs
// it and renames it over path. Concurrent writers to one path never share a
// temp file; the last rename wins.
func atomicWrite(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	fail := func(op string, err error) error {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s temp file: %w", op, err)
	}
	if _, err := f.Write(data); err != nil {
		return fail("write", err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fail("chmod", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
