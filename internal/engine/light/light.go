// Package light computes per-voxel sky light inside a chunk: a vertical cast
// from the top of each column followed by a breadth-first flood that lets
// light spill sideways under overhangs.
package light

// Max is the light level of a voxel open to the sky.
const Max = 15

// Falloff is how much light drops per voxel of flood distance. Voxels at or
// below Falloff do not spread further.
const Falloff = 1

// Grid is the chunk-local voxel volume lighting operates on. Callers hold
// whatever lock protects the underlying data for the whole call.
type Grid interface {
	Size() (width, height int)
	Opacity(x, y, z int) uint8
	Light(x, y, z int) uint8
	SetLight(x, y, z int, level uint8)
}

type cell struct{ x, y, z int }

var neighbors = [6]cell{
	{0, 0, -1}, {0, 0, 1}, {0, 1, 0}, {0, -1, 0}, {-1, 0, 0}, {1, 0, 0},
}

// Recalculate relights the whole grid.
func Recalculate(g Grid) {
	w, h := g.Size()
	var seeds []cell
	for x := 0; x < w; x++ {
		for z := 0; z < w; z++ {
			seeds = castColumn(g, x, z, h-1, seeds)
		}
	}
	spread(g, seeds)
}

// RecastColumn recasts one column after an opacity change at or below
// startY, then floods from that column and its four lateral neighbors so
// surrounding voxels pick up or lose spill light.
func RecastColumn(g Grid, x, z, startY int) {
	w, h := g.Size()
	if startY > h-1 {
		startY = h - 1
	}
	seeds := castColumn(g, x, z, startY, nil)
	for _, n := range neighbors {
		if n.y != 0 {
			continue
		}
		nx, nz := x+n.x, z+n.z
		if nx < 0 || nx >= w || nz < 0 || nz >= w {
			continue
		}
		for y := startY; y >= 0; y-- {
			if g.Light(nx, y, nz) > Falloff {
				seeds = append(seeds, cell{nx, y, nz})
			}
		}
	}
	spread(g, seeds)
}

// Refill raises the voxel at (x, y, z) from its brightest neighbor and
// floods outward. Used when a voxel that is not under open sky becomes
// transparent.
func Refill(g Grid, x, y, z int) {
	if g.Opacity(x, y, z) >= Max {
		return
	}
	w, h := g.Size()
	var seeds []cell
	for _, n := range neighbors {
		nx, ny, nz := x+n.x, y+n.y, z+n.z
		if nx < 0 || nx >= w || ny < 0 || ny >= h || nz < 0 || nz >= w {
			continue
		}
		if g.Light(nx, ny, nz) > Falloff {
			seeds = append(seeds, cell{nx, ny, nz})
		}
	}
	spread(g, seeds)
}

// castColumn walks down from startY. The running light is capped by each
// voxel's transparency; a fully opaque voxel darkens everything beneath it.
// Voxels bright enough to spread are appended to seeds.
func castColumn(g Grid, x, z, startY int, seeds []cell) []cell {
	_, h := g.Size()
	if startY > h-1 {
		startY = h - 1
	}
	running := uint8(Max)
	obstructed := false
	for y := startY; y >= 0; y-- {
		if obstructed {
			g.SetLight(x, y, z, 0)
			continue
		}
		op := g.Opacity(x, y, z)
		if op >= Max {
			obstructed = true
			g.SetLight(x, y, z, 0)
			continue
		}
		if limit := Max - op; running > limit {
			running = limit
		}
		g.SetLight(x, y, z, running)
		if running > Falloff {
			seeds = append(seeds, cell{x, y, z})
		}
	}
	return seeds
}

// spread floods light from seeds: every non-opaque neighbor darker than
// seed-Falloff is raised to it and queued in turn.
func spread(g Grid, queue []cell) {
	w, h := g.Size()
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		level := g.Light(c.x, c.y, c.z)
		if level <= Falloff {
			continue
		}
		next := level - Falloff
		for _, n := range neighbors {
			nx, ny, nz := c.x+n.x, c.y+n.y, c.z+n.z
			if nx < 0 || nx >= w || ny < 0 || ny >= h || nz < 0 || nz >= w {
				continue
			}
			if g.Opacity(nx, ny, nz) >= Max {
				continue
			}
			if g.Light(nx, ny, nz) < next {
				g.SetLight(nx, ny, nz, next)
				if next > Falloff {
					queue = append(queue, cell{nx, ny, nz})
				}
			}
		}
	}
}
