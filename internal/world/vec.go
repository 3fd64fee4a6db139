package world

import "math"

// Vec3 is a position or direction in world space
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the euclidean length of v
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the euclidean distance between v and o
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// WithinCube reports whether o lies in the axis-aligned cube of the given
// half-extent centered on v
func (v Vec3) WithinCube(o Vec3, halfExtent float64) bool {
	return math.Abs(v.X-o.X) <= halfExtent &&
		math.Abs(v.Y-o.Y) <= halfExtent &&
		math.Abs(v.Z-o.Z) <= halfExtent
}

// BlockPos is the integer block coordinate containing a position
type BlockPos struct {
	X, Y, Z int
}

// Block returns the block coordinate containing v
func (v Vec3) Block() BlockPos {
	return BlockPos{int(math.Floor(v.X)), int(math.Floor(v.Y)), int(math.Floor(v.Z))}
}

// Center returns the center of the block
func (b BlockPos) Center() Vec3 {
	return Vec3{float64(b.X) + 0.5, float64(b.Y) + 0.5, float64(b.Z) + 0.5}
}
