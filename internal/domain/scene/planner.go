package scene

import (
	"github.com/turtacn/molscope/internal/domain/molecule"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

// Reference axes. Cylinders are modelled along ReferenceAxis; lateral offsets
// are taken perpendicular to the bond and ReferenceAxis, or to
// SecondaryReferenceAxis when the bond runs along ReferenceAxis.
var (
	ReferenceAxis          = geometry.UnitY
	SecondaryReferenceAxis = geometry.UnitZ
	degenerateLateralAxis  = geometry.UnitX
)

// PlannerOptions tunes bond drawing. Zero fields take the defaults.
type PlannerOptions struct {
	BondRadius float64
	// BondColor is nil for DefaultBondColor; any colour, black included,
	// can be set explicitly.
	BondColor    *Color
	DoubleOffset float64
	TripleOffset float64

	// ParallelEpsilon is the |unit direction × ReferenceAxis| below which the
	// secondary axis is used for offsets.
	ParallelEpsilon float64
	// DegenerateEpsilon is the bond length below which a bond is drawn as a
	// zero-length cylinder with identity rotation.
	DegenerateEpsilon float64
}

// Defaults.
const (
	DefaultBondRadius        = 0.03
	DefaultBondColor         = ColorWhite
	DefaultDoubleOffset      = 0.05
	DefaultTripleOffset      = 0.1
	DefaultParallelEpsilon   = 1e-9
	DefaultDegenerateEpsilon = 1e-12
)

// DefaultPlannerOptions returns the stock bond style.
func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{
		BondRadius:        DefaultBondRadius,
		BondColor:         ColorRef(DefaultBondColor),
		DoubleOffset:      DefaultDoubleOffset,
		TripleOffset:      DefaultTripleOffset,
		ParallelEpsilon:   DefaultParallelEpsilon,
		DegenerateEpsilon: DefaultDegenerateEpsilon,
	}
}

func (o *PlannerOptions) applyDefaults() {
	d := DefaultPlannerOptions()
	if o.BondRadius <= 0 {
		o.BondRadius = d.BondRadius
	}
	if o.BondColor == nil {
		o.BondColor = d.BondColor
	} else {
		o.BondColor = ColorRef(*o.BondColor)
	}
	if o.DoubleOffset <= 0 {
		o.DoubleOffset = d.DoubleOffset
	}
	if o.TripleOffset <= 0 {
		o.TripleOffset = d.TripleOffset
	}
	if o.ParallelEpsilon <= 0 {
		o.ParallelEpsilon = d.ParallelEpsilon
	}
	if o.DegenerateEpsilon <= 0 {
		o.DegenerateEpsilon = d.DegenerateEpsilon
	}
}

// Planner builds Geometry from snapshots. It is stateless after construction
// and safe for concurrent use.
type Planner struct {
	opts    PlannerOptions
	palette *Palette
}

// NewPlanner returns a planner. A nil palette means DefaultPalette.
func NewPlanner(opts PlannerOptions, palette *Palette) *Planner {
	opts.applyDefaults()
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Planner{opts: opts, palette: palette}
}

// Options returns the effective options.
func (p *Planner) Options() PlannerOptions { return p.opts }

// Palette returns the element palette in use.
func (p *Planner) Palette() *Palette { return p.palette }

// Plan converts a snapshot into shapes and their bounding box. The snapshot's
// bond indices must be valid, as ParseRecord guarantees.
func (p *Planner) Plan(snap *molecule.Snapshot) *Geometry {
	g := &Geometry{Bounds: geometry.EmptyBox()}
	if snap == nil {
		return g
	}
	g.Shapes = make([]Shape, 0, len(snap.Atoms)+len(snap.Bonds))

	for i, atom := range snap.Atoms {
		style := p.palette.Lookup(atom.Element)
		g.Shapes = append(g.Shapes, Shape{
			Kind: KindSphere,
			Sphere: &Sphere{
				Center:    atom.Position,
				Radius:    style.Radius,
				Color:     style.Color,
				Element:   atom.Element,
				AtomIndex: i,
			},
		})
	}

	for i, bond := range snap.Bonds {
		start, end := snap.Endpoints(bond)
		for _, c := range p.bondCylinders(start, end, bond.Multiplicity()) {
			c := c
			c.BondIndex = i
			g.Shapes = append(g.Shapes, Shape{Kind: KindCylinder, Cylinder: &c})
		}
	}

	for _, s := range g.Shapes {
		g.Bounds = g.Bounds.Union(s.Bounds())
	}
	return g
}

// Offsets returns the signed lateral offsets for a bond drawn with n strokes.
func (p *Planner) Offsets(n int) []float64 {
	switch n {
	case 2:
		return []float64{p.opts.DoubleOffset, -p.opts.DoubleOffset}
	case 3:
		return []float64{p.opts.TripleOffset, 0, -p.opts.TripleOffset}
	default:
		return []float64{0}
	}
}

func (p *Planner) bondCylinders(start, end geometry.Vec3, strokes int) []Cylinder {
	dir := end.Sub(start)
	length := dir.Len()
	mid := start.Midpoint(end)

	axis := ReferenceAxis
	rot := geometry.Identity
	lateral := degenerateLateralAxis
	if length < p.opts.DegenerateEpsilon {
		length = 0
	} else {
		axis = dir.Scale(1 / length)
		rot = geometry.FromUnitVectors(ReferenceAxis, axis)
		lateral = p.LateralAxis(axis)
	}

	offsets := p.Offsets(strokes)
	out := make([]Cylinder, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, Cylinder{
			Center:   mid.Add(lateral.Scale(off)),
			Axis:     axis,
			Rotation: rot,
			Length:   length,
			Radius:   p.opts.BondRadius,
			Color:    *p.opts.BondColor,
			Offset:   off,
		})
	}
	return out
}

// LateralAxis returns the unit offset direction for a bond along unit axis:
// axis × ReferenceAxis, or axis × SecondaryReferenceAxis when the first
// product vanishes.
func (p *Planner) LateralAxis(axis geometry.Vec3) geometry.Vec3 {
	c := axis.Cross(ReferenceAxis)
	if c.Len() < p.opts.ParallelEpsilon {
		c = axis.Cross(SecondaryReferenceAxis)
	}
	if c.Len() == 0 {
		return degenerateLateralAxis
	}
	return c.Normalize()
}

//Personal.AI order the ending
