package common

import (
	"github.com/chewxy/math32"
)

// Vec2 is a two-component float32 vector used for positions, scales and sizes
// in world or screen space.
type Vec2 struct {
	X, Y float32
}

// Add returns the component-wise sum of v and other.
//
// Parameters:
//   - other: the vector to add
//
// Returns:
//   - Vec2: the component-wise sum
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the component-wise difference of v and other.
//
// Parameters:
//   - other: the vector to subtract
//
// Returns:
//   - Vec2: the component-wise difference
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v with both components multiplied by s.
//
// Parameters:
//   - s: the scalar factor
//
// Returns:
//   - Vec2: the scaled vector
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Length returns the Euclidean length of v.
//
// Returns:
//   - float32: the vector length
func (v Vec2) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Color is an RGBA color with float32 components in the [0, 1] range.
// Components outside the range are passed to the GPU unclamped.
type Color struct {
	R, G, B, A float32
}

// White is the default entity tint (no color modulation).
var White = Color{R: 1, G: 1, B: 1, A: 1}
