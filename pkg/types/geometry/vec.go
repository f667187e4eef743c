// Package geometry defines the small set of 3D value types shared by the scene
// planner, the view framer and the transport layers: vectors, unit
// quaternions and axis-aligned boxes. Every operation returns a new value;
// nothing here mutates its receiver.
package geometry

import "math"

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Canonical axes.
var (
	Zero  = Vec3{}
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the scalar product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Len returns the Euclidean norm. Components whose squares would overflow are
// rescaled first, so any finite vector has a finite length.
func (v Vec3) Len() float64 {
	sq := v.Dot(v)
	if !math.IsInf(sq, 0) {
		return math.Sqrt(sq)
	}
	m := v.Abs().MaxComponent()
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return m
	}
	u := v.Scale(1 / m)
	return m * math.Sqrt(u.Dot(u))
}

// Normalize returns v scaled to unit length. A zero vector is returned as is;
// callers that can see degenerate input check Len first.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Abs returns the component-wise absolute value.
func (v Vec3) Abs() Vec3 { return Vec3{math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)} }

// Min returns the component-wise minimum.
func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{math.Min(v.X, o.X), math.Min(v.Y, o.Y), math.Min(v.Z, o.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

// MaxComponent returns the largest of X, Y and Z.
func (v Vec3) MaxComponent() float64 { return math.Max(v.X, math.Max(v.Y, v.Z)) }

// Midpoint returns the point halfway between v and o.
func (v Vec3) Midpoint(o Vec3) Vec3 { return v.Scale(0.5).Add(o.Scale(0.5)) }

// IsFinite reports whether no component is NaN or ±Inf.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// ApproxEqual compares component-wise within eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

//Personal.AI order the ending
