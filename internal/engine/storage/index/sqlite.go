// Package index keeps a SQLite log of chunk saves alongside the chunk
// files, used for save statistics.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Index is a SQLite-backed save log. It is safe for concurrent use.
type Index struct {
	db *sql.DB
}

// Record is one logged chunk save.
type Record struct {
	World    string
	Coord    world.ChunkCoord
	Bytes    int
	Checksum uint64
	SavedAt  time.Time
}

// Stats summarizes the saves of one world.
type Stats struct {
	Saves     int
	Chunks    int
	Bytes     int64
	LastSaved time.Time
}

// Open opens or creates the index database at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunk_saves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			checksum INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS chunk_saves_world_coord ON chunk_saves(world, x, z);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// RecordChunkSave logs one chunk save.
func (ix *Index) RecordChunkSave(worldName string, coord world.ChunkCoord, size int, checksum uint64) error {
	_, err := ix.db.Exec(
		`INSERT INTO chunk_saves(world, x, z, bytes, checksum, saved_at) VALUES(?, ?, ?, ?, ?, ?)`,
		worldName, coord.X, coord.Z, size, int64(checksum), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record chunk save %s: %w", coord, err)
	}
	return nil
}

// LastSave returns the most recent save of coord, or nil if it was never
// saved.
func (ix *Index) LastSave(worldName string, coord world.ChunkCoord) (*Record, error) {
	row := ix.db.QueryRow(
		`SELECT bytes, checksum, saved_at FROM chunk_saves
		 WHERE world = ? AND x = ? AND z = ? ORDER BY id DESC LIMIT 1`,
		worldName, coord.X, coord.Z,
	)
	var (
		size     int
		checksum int64
		savedAt  string
	)
	if err := row.Scan(&size, &checksum, &savedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query last save %s: %w", coord, err)
	}
	t, err := time.Parse(timeLayout, savedAt)
	if err != nil {
		return nil, fmt.Errorf("parse save time: %w", err)
	}
	return &Record{World: worldName, Coord: coord, Bytes: size, Checksum: uint64(checksum), SavedAt: t}, nil
}

// Stats summarizes every save recorded for worldName.
func (ix *Index) Stats(worldName string) (Stats, error) {
	row := ix.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(bytes), 0), COALESCE(MAX(saved_at), '')
		 FROM chunk_saves WHERE world = ?`,
		worldName,
	)
	var (
		st   Stats
		last string
	)
	if err := row.Scan(&st.Saves, &st.Bytes, &last); err != nil {
		return Stats{}, fmt.Errorf("query save stats: %w", err)
	}
	if err := ix.db.QueryRow(
		`SELECT COUNT(*) FROM (SELECT DISTINCT x, z FROM chunk_saves WHERE world = ?)`,
		worldName,
	).Scan(&st.Chunks); err != nil {
		return Stats{}, fmt.Errorf("query saved chunks: %w", err)
	}
	if last != "" {
		t, err := time.Parse(timeLayout, last)
		if err != nil {
			return Stats{}, fmt.Errorf("parse save time: %w", err)
		}
		st.LastSaved = t
	}
	return st, nil
}
