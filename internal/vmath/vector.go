// Package vmath provides the 2D vector math used by physics and rendering.
package vmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for near-zero checks.
const Epsilon = 1e-9

// Vector2 is a 2D vector value. Methods return new values unless they take a pointer.
type Vector2 struct {
	X, Y float64
}

// Zero is the zero vector.
var Zero = Vector2{}

// Vec creates a vector from components.
func Vec(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * s.
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Mul returns the component-wise product.
func (v Vector2) Mul(o Vector2) Vector2 {
	return Vector2{v.X * o.X, v.Y * o.Y}
}

// Div returns v / s. Dividing by zero yields the zero vector.
func (v Vector2) Div(s float64) Vector2 {
	if s == 0 {
		return Zero
	}
	return Vector2{v.X / s, v.Y / s}
}

// Neg returns -v.
func (v Vector2) Neg() Vector2 {
	return Vector2{-v.X, -v.Y}
}

// Dot returns the dot product.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Perp returns v rotated by 90 degrees.
func (v Vector2) Perp() Vector2 {
	return Vector2{-v.Y, v.X}
}

// LenSqr returns the squared length.
// Use this when comparing lengths to avoid the sqrt cost.
func (v Vector2) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len returns the Euclidean length.
func (v Vector2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsAlmostZero reports whether both components are within tol of zero.
func (v Vector2) IsAlmostZero(tol float64) bool {
	return within(v.X, 0, tol) && within(v.Y, 0, tol)
}

// IsNormalized reports whether v has unit length.
func (v Vector2) IsNormalized() bool {
	return within(v.LenSqr(), 1, 1e-6)
}

// SafeNormalize returns the unit vector in the direction of v.
// A near-zero vector yields the zero vector and false.
func (v Vector2) SafeNormalize() (Vector2, bool) {
	l := v.Len()
	if l < Epsilon {
		return Zero, false
	}
	return Vector2{v.X / l, v.Y / l}, true
}

// Normalized returns the unit vector of v, or zero for a near-zero vector.
func (v Vector2) Normalized() Vector2 {
	n, _ := v.SafeNormalize()
	return n
}

// Clamp clamps each component into [lo, hi].
func (v Vector2) Clamp(lo, hi Vector2) Vector2 {
	return Vector2{mgl64.Clamp(v.X, lo.X, hi.X), mgl64.Clamp(v.Y, lo.Y, hi.Y)}
}

// ApproxEqual reports whether both components differ by at most tol.
func (v Vector2) ApproxEqual(o Vector2, tol float64) bool {
	return within(v.X, o.X, tol) && within(v.Y, o.Y, tol)
}

// within compares absolutely, unlike mgl64.FloatEqualThreshold.
func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// String implements fmt.Stringer.
func (v Vector2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// AddInPlace adds o to v.
func (v *Vector2) AddInPlace(o Vector2) {
	v.X += o.X
	v.Y += o.Y
}

// ScaleInPlace multiplies v by s.
func (v *Vector2) ScaleInPlace(s float64) {
	v.X *= s
	v.Y *= s
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vector2) float64 {
	return b.Sub(a).Len()
}

// DistanceSquared calculates the squared distance between two points.
func DistanceSquared(a, b Vector2) float64 {
	return b.Sub(a).LenSqr()
}

// PointInCircle checks if a point is within radius of a center.
func PointInCircle(p, center Vector2, radius float64) bool {
	return DistanceSquared(p, center) <= radius*radius
}
