package light

import "testing"

// testGrid is a dense grid of opacities and light levels.
type testGrid struct {
	w, h    int
	opacity []uint8
	light   []uint8
}

func newTestGrid(w, h int) *testGrid {
	return &testGrid{w: w, h: h, opacity: make([]uint8, w*w*h), light: make([]uint8, w*w*h)}
}

func (g *testGrid) idx(x, y, z int) int             { return x + g.w*(z+g.w*y) }
func (g *testGrid) Size() (int, int)                { return g.w, g.h }
func (g *testGrid) Opacity(x, y, z int) uint8       { return g.opacity[g.idx(x, y, z)] }
func (g *testGrid) Light(x, y, z int) uint8         { return g.light[g.idx(x, y, z)] }
func (g *testGrid) SetLight(x, y, z int, l uint8)   { g.light[g.idx(x, y, z)] = l }
func (g *testGrid) setOpacity(x, y, z int, o uint8) { g.opacity[g.idx(x, y, z)] = o }

// fillBelow makes every voxel at or below y fully opaque.
func (g *testGrid) fillBelow(y int) {
	for x := 0; x < g.w; x++ {
		for z := 0; z < g.w; z++ {
			for yy := 0; yy <= y; yy++ {
				g.setOpacity(x, yy, z, Max)
			}
		}
	}
}

func TestRecalculateOpenSky(t *testing.T) {
	g := newTestGrid(4, 16)
	g.fillBelow(5)
	Recalculate(g)

	for y := 0; y < 16; y++ {
		want := uint8(Max)
		if y <= 5 {
			want = 0
		}
		if got := g.Light(1, y, 2); got != want {
			t.Errorf("Light(1,%d,2) = %d, want %d", y, got, want)
		}
	}
}

func TestRecalculateColumnBelowOpaqueIsDark(t *testing.T) {
	g := newTestGrid(1, 16)
	g.setOpacity(0, 10, 0, Max)
	Recalculate(g)

	if got := g.Light(0, 11, 0); got != Max {
		t.Errorf("above roof = %d, want %d", got, Max)
	}
	for y := 0; y <= 10; y++ {
		if got := g.Light(0, y, 0); got != 0 {
			t.Errorf("Light(0,%d,0) = %d, want 0", y, got)
		}
	}
}

func TestRecalculatePartialOpacityCapsLight(t *testing.T) {
	g := newTestGrid(1, 16)
	g.setOpacity(0, 10, 0, 4)
	Recalculate(g)

	// In a one-column grid nothing spills sideways; the flood from above
	// still raises the leaf voxel to one step below its upper neighbor.
	if got := g.Light(0, 10, 0); got != Max-Falloff {
		t.Errorf("leaf voxel light = %d, want %d", got, Max-Falloff)
	}
	if got := g.Light(0, 9, 0); got != Max-2*Falloff {
		t.Errorf("below leaf light = %d, want %d", got, Max-2*Falloff)
	}
}

func TestRecalculateOverhangFlood(t *testing.T) {
	g := newTestGrid(8, 16)
	g.fillBelow(3)
	// A roof over x<4 at y=8.
	for x := 0; x < 4; x++ {
		for z := 0; z < 8; z++ {
			g.setOpacity(x, 8, z, Max)
		}
	}
	Recalculate(g)

	// Under the roof, light falls off by one per voxel from the open edge.
	for x := 0; x < 4; x++ {
		want := uint8(Max - Falloff*(4-x))
		if got := g.Light(x, 5, 3); got != want {
			t.Errorf("Light(%d,5,3) = %d, want %d", x, got, want)
		}
	}
}

func TestRecalculateMonotonic(t *testing.T) {
	g := newTestGrid(8, 32)
	g.fillBelow(4)
	// Scatter some caves, walls and leaves.
	for i := 0; i < 200; i++ {
		x, y, z := (i*7)%8, 5+(i*13)%27, (i*5)%8
		op := uint8(Max)
		if i%3 == 0 {
			op = 4
		}
		g.setOpacity(x, y, z, op)
	}
	Recalculate(g)
	checkMonotonic(t, g)
}

func TestRecastColumnAfterEdit(t *testing.T) {
	g := newTestGrid(8, 16)
	g.fillBelow(3)
	Recalculate(g)

	// Place an opaque block at (4,10,4) under open sky.
	g.setOpacity(4, 10, 4, Max)
	RecastColumn(g, 4, 4, 11)

	if got := g.Light(4, 10, 4); got != 0 {
		t.Errorf("placed block light = %d, want 0", got)
	}
	// The voxel below is shaded but still lit from the sides.
	if got := g.Light(4, 9, 4); got != Max-Falloff {
		t.Errorf("below placed block = %d, want %d", got, Max-Falloff)
	}

	// Remove it again.
	g.setOpacity(4, 10, 4, 0)
	RecastColumn(g, 4, 4, 11)
	if got := g.Light(4, 9, 4); got != Max {
		t.Errorf("after removal = %d, want %d", got, Max)
	}
	checkMonotonic(t, g)
}

func TestRefill(t *testing.T) {
	g := newTestGrid(4, 16)
	g.fillBelow(15)
	// Carve a tunnel at y=5 lit from one end by hand.
	for x := 0; x < 4; x++ {
		g.setOpacity(x, 5, 0, 0)
	}
	g.SetLight(0, 5, 0, 10)
	g.setOpacity(1, 5, 0, 0)
	Refill(g, 1, 5, 0)

	for x := 1; x < 4; x++ {
		want := uint8(10 - Falloff*x)
		if got := g.Light(x, 5, 0); got != want {
			t.Errorf("Light(%d,5,0) = %d, want %d", x, got, want)
		}
	}
}

func checkMonotonic(t *testing.T, g *testGrid) {
	t.Helper()
	for x := 0; x < g.w; x++ {
		for y := 0; y < g.h; y++ {
			for z := 0; z < g.w; z++ {
				if g.Opacity(x, y, z) >= Max {
					continue
				}
				a := int(g.Light(x, y, z))
				for _, n := range neighbors {
					nx, ny, nz := x+n.x, y+n.y, z+n.z
					if nx < 0 || nx >= g.w || ny < 0 || ny >= g.h || nz < 0 || nz >= g.w {
						continue
					}
					if g.Opacity(nx, ny, nz) >= Max {
						continue
					}
					b := int(g.Light(nx, ny, nz))
					if d := a - b; d > Falloff || d < -Falloff {
						t.Fatalf("light jump between (%d,%d,%d)=%d and (%d,%d,%d)=%d", x, y, z, a, nx, ny, nz, b)
					}
				}
			}
		}
	}
}
