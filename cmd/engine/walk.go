package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// walker moves a headless viewer in a slow circle around a start point so
// chunks stream in and out.
type walker struct {
	origin mgl32.Vec3
	radius float32
	speed  float32 // voxels per second
	start  time.Time
}

func newWalker(origin mgl32.Vec3, radius, speed float32) *walker {
	return &walker{origin: origin, radius: radius, speed: speed, start: time.Now()}
}

// Position returns the viewer position for the current moment.
func (w *walker) Position() mgl32.Vec3 {
	if w.radius <= 0 {
		return w.origin
	}
	elapsed := float32(time.Since(w.start).Seconds())
	angle := float64(elapsed * w.speed / w.radius)
	return w.origin.Add(mgl32.Vec3{
		w.radius*float32(math.Cos(angle)) - w.radius,
		0,
		w.radius * float32(math.Sin(angle)),
	})
}
