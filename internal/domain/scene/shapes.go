package scene

import (
	"math"

	"github.com/turtacn/molscope/pkg/types/geometry"
)

// ShapeKind tags which primitive a Shape carries.
type ShapeKind string

const (
	KindSphere   ShapeKind = "sphere"
	KindCylinder ShapeKind = "cylinder"
)

// Sphere is one atom.
type Sphere struct {
	Center    geometry.Vec3 `json:"center"`
	Radius    float64       `json:"radius"`
	Color     Color         `json:"color"`
	Element   string        `json:"element"`
	AtomIndex int           `json:"atom_index"`
}

// Bounds returns the sphere's axis-aligned extent.
func (s Sphere) Bounds() geometry.Box {
	return geometry.BoxAround(s.Center, geometry.V(s.Radius, s.Radius, s.Radius))
}

// Cylinder is one stroke of a bond. Axis is the unit principal direction and
// Rotation the quaternion that takes +Y onto it. Offset is the signed lateral
// displacement from the bond's own midpoint line.
type Cylinder struct {
	Center    geometry.Vec3       `json:"center"`
	Axis      geometry.Vec3       `json:"axis"`
	Rotation  geometry.Quaternion `json:"rotation"`
	Length    float64             `json:"length"`
	Radius    float64             `json:"radius"`
	Color     Color               `json:"color"`
	BondIndex int                 `json:"bond_index"`
	Offset    float64             `json:"offset"`
}

// Bounds returns the exact axis-aligned extent of the capped cylinder.
func (c Cylinder) Bounds() geometry.Box {
	a := c.Axis
	half := geometry.V(
		cylinderHalfExtent(a.X, c.Length, c.Radius),
		cylinderHalfExtent(a.Y, c.Length, c.Radius),
		cylinderHalfExtent(a.Z, c.Length, c.Radius),
	)
	return geometry.BoxAround(c.Center, half)
}

func cylinderHalfExtent(axisComponent, length, radius float64) float64 {
	return length/2*math.Abs(axisComponent) + radius*math.Sqrt(math.Max(0, 1-axisComponent*axisComponent))
}

// Shape holds exactly one of Sphere or Cylinder, selected by Kind.
type Shape struct {
	Kind     ShapeKind `json:"kind"`
	Sphere   *Sphere   `json:"sphere,omitempty"`
	Cylinder *Cylinder `json:"cylinder,omitempty"`
}

// Bounds returns the extent of whichever primitive the shape carries.
func (s Shape) Bounds() geometry.Box {
	switch s.Kind {
	case KindSphere:
		if s.Sphere != nil {
			return s.Sphere.Bounds()
		}
	case KindCylinder:
		if s.Cylinder != nil {
			return s.Cylinder.Bounds()
		}
	}
	return geometry.EmptyBox()
}

// Geometry is the planner's output: shapes in draw order (spheres in atom
// order, then cylinders in bond order) and the union of their extents.
type Geometry struct {
	Shapes []Shape      `json:"shapes"`
	Bounds geometry.Box `json:"bounds"`
}

// Spheres returns the sphere primitives in order.
func (g *Geometry) Spheres() []Sphere {
	var out []Sphere
	for _, s := range g.Shapes {
		if s.Kind == KindSphere && s.Sphere != nil {
			out = append(out, *s.Sphere)
		}
	}
	return out
}

// Cylinders returns the cylinder primitives in order.
func (g *Geometry) Cylinders() []Cylinder {
	var out []Cylinder
	for _, s := range g.Shapes {
		if s.Kind == KindCylinder && s.Cylinder != nil {
			out = append(out, *s.Cylinder)
		}
	}
	return out
}

// CylindersForBond returns the strokes of one bond.
func (g *Geometry) CylindersForBond(bondIndex int) []Cylinder {
	var out []Cylinder
	for _, c := range g.Cylinders() {
		if c.BondIndex == bondIndex {
			out = append(out, c)
		}
	}
	return out
}

// Counts returns the number of shapes per kind.
func (g *Geometry) Counts() map[ShapeKind]int {
	out := map[ShapeKind]int{KindSphere: 0, KindCylinder: 0}
	for _, s := range g.Shapes {
		out[s.Kind]++
	}
	return out
}

// Release drops the geometry's shapes. Called when a viewer swaps scenes.
func (g *Geometry) Release() {
	if g == nil {
		return
	}
	g.Shapes = nil
	g.Bounds = geometry.EmptyBox()
}

//Personal.AI order the ending
