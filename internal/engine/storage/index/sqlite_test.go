package index

import (
	"path/filepath"
	"testing"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
)

func openTest(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "db", "index.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") error = nil")
	}
}

func TestRecordAndStats(t *testing.T) {
	ix := openTest(t)

	st, err := ix.Stats("w")
	if err != nil {
		t.Fatal(err)
	}
	if st.Saves != 0 || !st.LastSaved.IsZero() {
		t.Errorf("empty Stats = %+v", st)
	}

	saves := []struct {
		coord world.ChunkCoord
		size  int
		sum   uint64
	}{
		{world.ChunkCoord{X: 0, Z: 0}, 100, 1},
		{world.ChunkCoord{X: 0, Z: 1}, 200, 2},
		{world.ChunkCoord{X: 0, Z: 0}, 150, 1<<63 + 5},
	}
	for _, s := range saves {
		if err := ix.RecordChunkSave("w", s.coord, s.size, s.sum); err != nil {
			t.Fatalf("RecordChunkSave: %v", err)
		}
	}
	if err := ix.RecordChunkSave("other", world.ChunkCoord{}, 999, 0); err != nil {
		t.Fatal(err)
	}

	st, err = ix.Stats("w")
	if err != nil {
		t.Fatal(err)
	}
	if st.Saves != 3 || st.Chunks != 2 || st.Bytes != 450 || st.LastSaved.IsZero() {
		t.Errorf("Stats = %+v, want 3 saves of 2 chunks totalling 450 bytes", st)
	}

	rec, err := ix.LastSave("w", world.ChunkCoord{})
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Bytes != 150 || rec.Checksum != 1<<63+5 {
		t.Errorf("LastSave = %+v, want the 150 byte save", rec)
	}

	rec, err = ix.LastSave("w", world.ChunkCoord{X: 9, Z: 9})
	if err != nil || rec != nil {
		t.Errorf("LastSave(never saved) = %+v, %v; want nil, nil", rec, err)
	}
}
