package geometry

import "math"

// Quaternion is a rotation stored as (X, Y, Z, W) with W the scalar part.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the no-op rotation.
var Identity = Quaternion{W: 1}

// FromUnitVectors returns the minimal rotation taking unit vector from onto
// unit vector to. When the two are antiparallel the rotation is a half turn
// about an axis perpendicular to from: +X, or +Z when from lies on X.
func FromUnitVectors(from, to Vec3) Quaternion {
	r := from.Dot(to) + 1
	if r < 1e-12 {
		axis := UnitX
		if math.Abs(from.X) > math.Abs(from.Z) {
			axis = UnitZ
		}
		axis = from.Cross(axis).Cross(from).Normalize()
		if axis.Len() == 0 {
			axis = UnitX
		}
		return Quaternion{X: axis.X, Y: axis.Y, Z: axis.Z, W: 0}
	}
	c := from.Cross(to)
	return Quaternion{X: c.X, Y: c.Y, Z: c.Z, W: r}.Normalize()
}

// Len returns the quaternion norm.
func (q Quaternion) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns q scaled to unit norm; the zero quaternion maps to Identity.
func (q Quaternion) Normalize() Quaternion {
	l := q.Len()
	if l == 0 {
		return Identity
	}
	return Quaternion{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Rotate applies q to v. q must be unit length.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// IsFinite reports whether no component is NaN or ±Inf.
func (q Quaternion) IsFinite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

//Personal.AI order the ending
