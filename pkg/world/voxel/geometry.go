// Package voxel holds the static geometry tables shared by terrain
// generation, lighting and meshing: cube corners, face directions,
// per-face winding and block orientation.
package voxel

import "github.com/go-gl/mathgl/mgl32"

// Face indexes one side of a voxel cube.
type Face int

// Face order is fixed: texture tables, culling and persisted data rely on it.
const (
	FaceBack Face = iota
	FaceFront
	FaceTop
	FaceBottom
	FaceLeft
	FaceRight
)

// FaceCount is the number of faces on a voxel cube.
const FaceCount = 6

var faceNames = [FaceCount]string{"back", "front", "top", "bottom", "left", "right"}

func (f Face) String() string {
	if f < 0 || int(f) >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}

// Offset is an integer step between adjacent voxels.
type Offset struct{ X, Y, Z int }

// Verts are the eight corners of a unit cube.
var Verts = [8]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// FaceChecks is the offset to the neighbor across each face.
var FaceChecks = [FaceCount]Offset{
	FaceBack:   {0, 0, -1},
	FaceFront:  {0, 0, 1},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
	FaceLeft:   {-1, 0, 0},
	FaceRight:  {1, 0, 0},
}

// Normals is FaceChecks as float vectors.
var Normals = [FaceCount]mgl32.Vec3{
	FaceBack:   {0, 0, -1},
	FaceFront:  {0, 0, 1},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
	FaceLeft:   {-1, 0, 0},
	FaceRight:  {1, 0, 0},
}

// Tris lists, per face, the four corner indices into Verts. The quad is
// drawn as triangles (0,1,2) and (2,1,3).
var Tris = [FaceCount][4]int{
	FaceBack:   {0, 3, 1, 2},
	FaceFront:  {5, 6, 4, 7},
	FaceTop:    {3, 7, 2, 6},
	FaceBottom: {1, 5, 0, 4},
	FaceLeft:   {4, 7, 0, 3},
	FaceRight:  {1, 2, 5, 6},
}

// QuadIndices is the triangle index pattern for one quad, relative to its
// first vertex.
var QuadIndices = [6]uint32{0, 1, 2, 2, 1, 3}

// UVs are the texture coordinates of a quad's four corners, in Tris order.
var UVs = [4]mgl32.Vec2{
	{0, 0},
	{0, 1},
	{1, 0},
	{1, 1},
}

// Corner returns the position of corner i (0..3) of face f.
func (f Face) Corner(i int) mgl32.Vec3 {
	return Verts[Tris[f][i]]
}
