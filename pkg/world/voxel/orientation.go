package voxel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Orientation is the facing direction of a placed block. The zero value is
// the unrotated orientation.
type Orientation uint8

const (
	Front Orientation = iota
	Back
	Left
	Right
	Up
	Down
)

// OrientationCount is the number of valid orientations.
const OrientationCount = 6

var orientationNames = [OrientationCount]string{"front", "back", "left", "right", "up", "down"}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("orientation(%d)", o)
	}
	return orientationNames[o]
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return int(o) < OrientationCount
}

// faceRemap maps a logical face (the face as authored, e.g. the furnace
// front) to the geometric face it occupies once rotated. Rotation is a yaw
// about the vertical axis, so top and bottom never move.
var faceRemap = [OrientationCount][FaceCount]Face{
	Front: {FaceBack, FaceFront, FaceTop, FaceBottom, FaceLeft, FaceRight},
	Back:  {FaceFront, FaceBack, FaceTop, FaceBottom, FaceRight, FaceLeft},
	Left:  {FaceLeft, FaceRight, FaceTop, FaceBottom, FaceFront, FaceBack},
	Right: {FaceRight, FaceLeft, FaceTop, FaceBottom, FaceBack, FaceFront},
	Up:    {FaceBack, FaceFront, FaceTop, FaceBottom, FaceLeft, FaceRight},
	Down:  {FaceBack, FaceFront, FaceTop, FaceBottom, FaceLeft, FaceRight},
}

var yawDegrees = [OrientationCount]float32{
	Front: 0,
	Back:  180,
	Left:  90,
	Right: 270,
	Up:    0,
	Down:  0,
}

// Geometric returns the geometric face that logical face f occupies under
// orientation o. Invalid orientations are treated as unrotated.
func (o Orientation) Geometric(f Face) Face {
	if !o.Valid() {
		return f
	}
	return faceRemap[o][f]
}

// Yaw returns the rotation about the vertical axis in radians.
func (o Orientation) Yaw() float32 {
	if !o.Valid() {
		return 0
	}
	return mgl32.DegToRad(yawDegrees[o])
}

var center = mgl32.Vec3{0.5, 0.5, 0.5}

// RotateAboutCenter rotates a position inside the unit cube by the
// orientation's yaw around the cube center.
func RotateAboutCenter(v mgl32.Vec3, o Orientation) mgl32.Vec3 {
	yaw := o.Yaw()
	if yaw == 0 {
		return v
	}
	return mgl32.Rotate3DY(yaw).Mul3x1(v.Sub(center)).Add(center)
}
