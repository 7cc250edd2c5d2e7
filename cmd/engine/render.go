package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/stream"
	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

// logRenderer stands in for a GPU renderer in headless runs: it logs what
// it would upload and keeps totals.
type logRenderer struct {
	log *slog.Logger

	meshes    map[world.ChunkCoord]uint64
	resident  atomic.Uint64
	published atomic.Uint64
}

func newLogRenderer(log *slog.Logger) *logRenderer {
	return &logRenderer{log: log, meshes: make(map[world.ChunkCoord]uint64)}
}

func (r *logRenderer) Publish(f stream.Frame) {
	if f.Mesh.Empty() {
		// Nothing to draw; a previous mesh for the chunk is dropped.
		r.Release(f.Coord)
		r.published.Add(1)
		return
	}
	size := f.Mesh.SizeBytes()
	prev := r.meshes[f.Coord]
	r.meshes[f.Coord] = size
	r.resident.Add(size - prev)
	r.published.Add(1)

	r.log.Debug("mesh published",
		"chunk", f.Coord,
		"vertices", f.Mesh.VertexCount(),
		"opaque", len(f.Mesh.Opaque)/3,
		"transparent", len(f.Mesh.Transparent)/3,
		"size", humanize.Bytes(size),
	)
}

func (r *logRenderer) SetActive(coord world.ChunkCoord, active bool) {
	r.log.Debug("chunk visibility", "chunk", coord, "active", active)
}

func (r *logRenderer) Release(coord world.ChunkCoord) {
	r.resident.Add(-r.meshes[coord])
	delete(r.meshes, coord)
	r.log.Debug("mesh released", "chunk", coord)
}

// Resident returns the total size of resident meshes.
func (r *logRenderer) Resident() string {
	return humanize.Bytes(r.resident.Load())
}
