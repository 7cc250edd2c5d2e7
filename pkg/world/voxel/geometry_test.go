package voxel

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFaceChecksMatchNormals(t *testing.T) {
	for f := Face(0); f < FaceCount; f++ {
		c := FaceChecks[f]
		want := mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
		if Normals[f] != want {
			t.Errorf("Normals[%v] = %v, want %v", f, Normals[f], want)
		}
	}
}

func TestFaceCornersLieOnFace(t *testing.T) {
	for f := Face(0); f < FaceCount; f++ {
		n := Normals[f]
		// Every corner of a face sits on the cube plane the normal points at.
		want := float32(0)
		if n.X()+n.Y()+n.Z() > 0 {
			want = 1
		}
		for i := 0; i < 4; i++ {
			c := f.Corner(i)
			if got := c.Dot(mgl32.Vec3{abs32(n.X()), abs32(n.Y()), abs32(n.Z())}); got != want {
				t.Errorf("face %v corner %d = %v, not on plane %v", f, i, c, want)
			}
		}
	}
}

func TestOrientationRemapIsPermutation(t *testing.T) {
	for o := Orientation(0); o < OrientationCount; o++ {
		seen := map[Face]bool{}
		for f := Face(0); f < FaceCount; f++ {
			seen[o.Geometric(f)] = true
		}
		if len(seen) != FaceCount {
			t.Errorf("orientation %v remap is not a permutation", o)
		}
		if o.Geometric(FaceTop) != FaceTop || o.Geometric(FaceBottom) != FaceBottom {
			t.Errorf("orientation %v moves top/bottom", o)
		}
	}
}

func TestOrientationRemapMatchesRotation(t *testing.T) {
	for o := Orientation(0); o < OrientationCount; o++ {
		for f := Face(0); f < FaceCount; f++ {
			rotated := mgl32.Rotate3DY(o.Yaw()).Mul3x1(Normals[f])
			g := o.Geometric(f)
			if !near(rotated, Normals[g]) {
				t.Errorf("%v: face %v rotates to %v, table says %v", o, f, rotated, g)
			}
		}
	}
}

func TestRotateAboutCenter(t *testing.T) {
	v := mgl32.Vec3{0.5, 0.5, 1}
	if got := RotateAboutCenter(v, Front); got != v {
		t.Errorf("RotateAboutCenter(front) = %v, want %v", got, v)
	}
	got := RotateAboutCenter(v, Back)
	if !near(got, mgl32.Vec3{0.5, 0.5, 0}) {
		t.Errorf("RotateAboutCenter(back) = %v, want (0.5,0.5,0)", got)
	}
}

// near compares component-wise with an absolute tolerance. The mgl32
// helpers switch to a much tighter bound when one side is exactly zero.
func near(a, b mgl32.Vec3) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) >= 1e-5 {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
