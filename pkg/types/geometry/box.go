package geometry

import (
	"encoding/json"
	"math"
)

// Box is an axis-aligned bounding box. The zero value is NOT empty; use
// EmptyBox to start a union.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// EmptyBox returns the identity element of Union.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// BoxAround returns the box centred on c with half extents h.
func BoxAround(c, h Vec3) Box {
	h = h.Abs()
	return Box{Min: c.Sub(h), Max: c.Add(h)}
}

// Empty reports whether the box encloses no point.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box enclosing b and o.
func (b Box) Union(o Box) Box {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return Box{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Contains reports whether o lies inside b, allowing eps of slack.
func (b Box) Contains(o Box, eps float64) bool {
	if o.Empty() {
		return true
	}
	if b.Empty() {
		return false
	}
	return o.Min.X >= b.Min.X-eps && o.Min.Y >= b.Min.Y-eps && o.Min.Z >= b.Min.Z-eps &&
		o.Max.X <= b.Max.X+eps && o.Max.Y <= b.Max.Y+eps && o.Max.Z <= b.Max.Z+eps
}

// ContainsPoint reports whether p lies inside b, allowing eps of slack.
func (b Box) ContainsPoint(p Vec3, eps float64) bool {
	return b.Contains(Box{Min: p, Max: p}, eps)
}

// Center returns the box midpoint. Callers must check Empty first.
func (b Box) Center() Vec3 { return b.Min.Midpoint(b.Max) }

// Size returns Max − Min. Callers must check Empty first.
func (b Box) Size() Vec3 { return b.Max.Sub(b.Min) }

type boxJSON struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// MarshalJSON encodes an empty box as null so the infinite sentinels never
// reach the wire.
func (b Box) MarshalJSON() ([]byte, error) {
	if b.Empty() {
		return []byte("null"), nil
	}
	return json.Marshal(boxJSON{Min: b.Min, Max: b.Max})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *Box) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = EmptyBox()
		return nil
	}
	var raw boxJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Box{Min: raw.Min, Max: raw.Max}
	return nil
}

//Personal.AI order the ending
