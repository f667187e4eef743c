package scene

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/domain/molecule"
	"github.com/turtacn/molscope/internal/testutil"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

const tol = 1e-9

func plan(t *testing.T, record string) *Geometry {
	t.Helper()
	snap, err := molecule.ParseRecord(record)
	require.NoError(t, err)
	return NewPlanner(DefaultPlannerOptions(), nil).Plan(snap)
}

func pair(a, b geometry.Vec3, order int) *molecule.Snapshot {
	return &molecule.Snapshot{
		Atoms: []molecule.Atom{{Position: a, Element: "C"}, {Position: b, Element: "C"}},
		Bonds: []molecule.Bond{{A: 0, B: 1, Order: order}},
	}
}

func TestPlan_SingleBondScenario(t *testing.T) {
	g := plan(t, testutil.TwoAtomRecord(1))

	require.Len(t, g.Shapes, 3)
	assert.Equal(t, map[ShapeKind]int{KindSphere: 2, KindCylinder: 1}, g.Counts())

	cyl := g.Cylinders()[0]
	assert.True(t, cyl.Center.ApproxEqual(geometry.V(0.5, 0, 0), tol))
	assert.InDelta(t, 1.0, cyl.Length, tol)
	assert.InDelta(t, DefaultBondRadius, cyl.Radius, 0)
	assert.Equal(t, ColorWhite, cyl.Color)
	assert.True(t, cyl.Axis.ApproxEqual(geometry.UnitX, tol))
	assert.True(t, cyl.Rotation.Rotate(geometry.UnitY).ApproxEqual(geometry.UnitX, tol))
}

func TestPlan_DoubleBondScenario(t *testing.T) {
	g := plan(t, testutil.TwoAtomRecord(2))

	cyls := g.Cylinders()
	require.Len(t, cyls, 2)
	mid := geometry.V(0.5, 0, 0)
	for _, c := range cyls {
		assert.InDelta(t, 1.0, c.Length, tol)
	}
	// +X × +Y = +Z, so the strokes sit at z = ±0.05.
	assert.True(t, cyls[0].Center.ApproxEqual(geometry.V(0.5, 0, 0.05), tol), "%+v", cyls[0].Center)
	assert.True(t, cyls[1].Center.ApproxEqual(geometry.V(0.5, 0, -0.05), tol), "%+v", cyls[1].Center)
	assert.True(t, cyls[0].Center.Add(cyls[1].Center).Scale(0.5).ApproxEqual(mid, tol))
}

func TestPlan_CylinderCountByOrder(t *testing.T) {
	planner := NewPlanner(DefaultPlannerOptions(), nil)
	cases := map[int]int{1: 1, 2: 2, 3: 3, 0: 1, 4: 1, 5: 1, -2: 1, 99: 1}
	for order, want := range cases {
		g := planner.Plan(pair(geometry.Zero, geometry.V(1, 1, 0), order))
		assert.Len(t, g.Cylinders(), want, "order %d", order)
		assert.Len(t, g.Spheres(), 2)
	}
}

func TestPlan_ShapeOrder(t *testing.T) {
	g := plan(t, testutil.EtheneRecord())

	require.Len(t, g.Shapes, 6+2+4)
	for i := 0; i < 6; i++ {
		require.Equal(t, KindSphere, g.Shapes[i].Kind)
		assert.Equal(t, i, g.Shapes[i].Sphere.AtomIndex)
		assert.Nil(t, g.Shapes[i].Cylinder)
	}
	wantBonds := []int{0, 0, 1, 2, 3, 4}
	for i, b := range wantBonds {
		s := g.Shapes[6+i]
		require.Equal(t, KindCylinder, s.Kind)
		assert.Nil(t, s.Sphere)
		assert.Equal(t, b, s.Cylinder.BondIndex)
	}
	assert.Len(t, g.CylindersForBond(0), 2)
}

func TestPlan_TripleOffsetsSymmetric(t *testing.T) {
	p := NewPlanner(DefaultPlannerOptions(), nil)
	start, end := geometry.V(1, 2, 3), geometry.V(2.2, 1.1, 3.7)
	g := p.Plan(pair(start, end, 3))

	cyls := g.Cylinders()
	require.Len(t, cyls, 3)
	mid := start.Midpoint(end)
	assert.True(t, cyls[1].Center.ApproxEqual(mid, tol), "middle stroke is unoffset")

	up := cyls[0].Center.Sub(mid)
	down := cyls[2].Center.Sub(mid)
	assert.True(t, up.Add(down).ApproxEqual(geometry.Zero, tol), "equal and opposite")
	assert.InDelta(t, DefaultTripleOffset, up.Len(), tol)
	assert.InDelta(t, 0, up.Dot(end.Sub(start)), tol, "offset perpendicular to bond")
	for _, c := range cyls {
		assert.InDelta(t, end.Sub(start).Len(), c.Length, tol)
	}
}

func TestPlan_OffsetsPerpendicularForAllDirections(t *testing.T) {
	p := NewPlanner(DefaultPlannerOptions(), nil)
	dirs := []geometry.Vec3{
		geometry.UnitX, geometry.UnitY, geometry.UnitZ,
		geometry.V(0, -1, 0), geometry.V(0, 3, 0), geometry.V(1, 1, 1),
		geometry.V(-2, 0.5, 0), geometry.V(1e-12, 1, 0),
	}
	for _, d := range dirs {
		g := p.Plan(pair(geometry.Zero, d, 2))
		cyls := g.Cylinders()
		require.Len(t, cyls, 2)
		off := cyls[0].Center.Sub(cyls[1].Center)
		assert.InDelta(t, 2*DefaultDoubleOffset, off.Len(), tol, "dir %+v", d)
		assert.InDelta(t, 0, off.Dot(d.Normalize()), tol, "dir %+v", d)
		for _, c := range cyls {
			assert.True(t, c.Center.IsFinite())
			assert.True(t, c.Rotation.IsFinite())
			assert.True(t, c.Rotation.Rotate(geometry.UnitY).ApproxEqual(d.Normalize(), 1e-9), "dir %+v", d)
		}
	}
}

func TestPlan_ParallelToUpUsesSecondaryAxis(t *testing.T) {
	p := NewPlanner(DefaultPlannerOptions(), nil)
	g := p.Plan(pair(geometry.Zero, geometry.V(0, 2, 0), 2))

	cyls := g.Cylinders()
	// +Y × +Z = +X.
	assert.True(t, cyls[0].Center.ApproxEqual(geometry.V(0.05, 1, 0), tol), "%+v", cyls[0].Center)
	assert.True(t, cyls[1].Center.ApproxEqual(geometry.V(-0.05, 1, 0), tol))
	assert.True(t, p.LateralAxis(geometry.V(0, -1, 0)).ApproxEqual(geometry.V(-1, 0, 0), tol))
}

func TestPlan_AntiparallelRotationIsHalfTurnAboutX(t *testing.T) {
	g := NewPlanner(DefaultPlannerOptions(), nil).Plan(pair(geometry.V(0, 1, 0), geometry.Zero, 1))
	assert.Equal(t, geometry.Quaternion{X: 1}, g.Cylinders()[0].Rotation)
}

func TestPlan_ZeroLengthBond(t *testing.T) {
	p := NewPlanner(DefaultPlannerOptions(), nil)
	g := p.Plan(pair(geometry.V(1, 1, 1), geometry.V(1, 1, 1), 2))

	cyls := g.Cylinders()
	require.Len(t, cyls, 2)
	for _, c := range cyls {
		assert.Equal(t, 0.0, c.Length)
		assert.Equal(t, geometry.Identity, c.Rotation)
		assert.Equal(t, geometry.UnitY, c.Axis)
	}
	assert.True(t, cyls[0].Center.ApproxEqual(geometry.V(1.05, 1, 1), tol))
	assert.True(t, cyls[1].Center.ApproxEqual(geometry.V(0.95, 1, 1), tol))
	assert.False(t, g.Bounds.Empty())
}

func TestPlan_BoundsContainEveryPrimitive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := NewPlanner(DefaultPlannerOptions(), nil)
	elements := []string{"C", "H", "O", "N", "Xx"}

	for iter := 0; iter < 50; iter++ {
		n := 1 + rng.Intn(12)
		snap := &molecule.Snapshot{}
		for i := 0; i < n; i++ {
			snap.Atoms = append(snap.Atoms, molecule.Atom{
				Position: geometry.V(rng.NormFloat64()*5, rng.NormFloat64()*5, rng.NormFloat64()*5),
				Element:  elements[rng.Intn(len(elements))],
			})
		}
		for i := 0; i < n; i++ {
			snap.Bonds = append(snap.Bonds, molecule.Bond{A: rng.Intn(n), B: rng.Intn(n), Order: rng.Intn(5)})
		}

		g := p.Plan(snap)
		require.False(t, g.Bounds.Empty())
		assert.True(t, g.Bounds.Min.IsFinite() && g.Bounds.Max.IsFinite())
		for _, s := range g.Shapes {
			assert.True(t, g.Bounds.Contains(s.Bounds(), 1e-12))
		}
		for _, sp := range g.Spheres() {
			r := geometry.V(sp.Radius, sp.Radius, sp.Radius)
			assert.True(t, g.Bounds.ContainsPoint(sp.Center.Add(r), 1e-12))
			assert.True(t, g.Bounds.ContainsPoint(sp.Center.Sub(r), 1e-12))
		}
		for _, c := range g.Cylinders() {
			for _, end := range []float64{-0.5, 0.5} {
				capCenter := c.Center.Add(c.Axis.Scale(end * c.Length))
				assert.True(t, g.Bounds.ContainsPoint(capCenter, 1e-12))
			}
		}
	}
}

func TestCylinder_BoundsAxisAligned(t *testing.T) {
	c := Cylinder{Center: geometry.Zero, Axis: geometry.UnitX, Length: 2, Radius: 0.5}
	b := c.Bounds()
	assert.True(t, b.Min.ApproxEqual(geometry.V(-1, -0.5, -0.5), tol))
	assert.True(t, b.Max.ApproxEqual(geometry.V(1, 0.5, 0.5), tol))

	diag := Cylinder{Axis: geometry.V(1, 1, 0).Normalize(), Length: 2, Radius: 0}
	h := diag.Bounds().Max
	assert.InDelta(t, math.Sqrt2/2, h.X, tol)
	assert.InDelta(t, 0, h.Z, tol)
}

func TestPlan_EmptySnapshot(t *testing.T) {
	p := NewPlanner(PlannerOptions{}, nil)
	g := p.Plan(&molecule.Snapshot{})
	assert.Empty(t, g.Shapes)
	assert.True(t, g.Bounds.Empty())
	assert.True(t, p.Plan(nil).Bounds.Empty())
}

func TestPlan_CustomOptions(t *testing.T) {
	opts := PlannerOptions{BondRadius: 0.05, BondColor: ColorRef(0x00FF00), DoubleOffset: 0.2}
	p := NewPlanner(opts, DefaultPalette().WithRadii(0.4, 0.2))
	assert.Equal(t, DefaultTripleOffset, p.Options().TripleOffset)

	g := p.Plan(pair(geometry.Zero, geometry.UnitX, 2))
	c := g.Cylinders()[0]
	assert.Equal(t, 0.05, c.Radius)
	assert.Equal(t, Color(0x00FF00), c.Color)
	assert.InDelta(t, 0.2, c.Offset, 0)
	assert.Equal(t, 0.4, g.Spheres()[0].Radius)
}

func TestPlan_BlackBondColor(t *testing.T) {
	p := NewPlanner(PlannerOptions{BondColor: ColorRef(0)}, nil)
	g := p.Plan(pair(geometry.Zero, geometry.UnitX, 1))
	assert.Equal(t, Color(0), g.Cylinders()[0].Color)
	assert.Equal(t, Color(0), *p.Options().BondColor)

	assert.Equal(t, ColorWhite, NewPlanner(PlannerOptions{}, nil).Plan(pair(geometry.Zero, geometry.UnitX, 1)).Cylinders()[0].Color)
}

func TestPlan_HugeCoordinatesStayFinite(t *testing.T) {
	g := NewPlanner(DefaultPlannerOptions(), nil).Plan(pair(geometry.V(-1e200, 0, 0), geometry.V(1e200, 0, 0), 2))

	cyls := g.Cylinders()
	require.Len(t, cyls, 2)
	for _, c := range cyls {
		assert.Equal(t, 2e200, c.Length)
		assert.True(t, c.Axis.ApproxEqual(geometry.UnitX, 1e-12), "axis %v", c.Axis)
		assert.True(t, c.Center.IsFinite())
	}
	assert.True(t, g.Bounds.Min.IsFinite())
	assert.True(t, g.Bounds.Max.IsFinite())
	assert.InDelta(t, -1e200, g.Bounds.Min.X, 1e186)

	pose := NewFramer(DefaultFramerOptions()).Frame(g.Bounds, 75)
	assert.False(t, math.IsInf(pose.Distance, 0) || math.IsNaN(pose.Distance))
	assert.Greater(t, pose.Distance, 1e200)

	_, err := json.Marshal(g)
	assert.NoError(t, err)
}

func TestPlan_LargestParsedCoordinates(t *testing.T) {
	rec := "big\n\n\n  2  1\n  -1.0e150    0.0000    0.0000 C\n   1.0e150    0.0000    0.0000 C\n  1  2  3\n"
	g := plan(t, rec)

	_, err := json.Marshal(g)
	require.NoError(t, err)
	require.Len(t, g.Cylinders(), 3)
	assert.InDelta(t, 2e150, g.Cylinders()[0].Length, 1e136)
}

func TestPlan_BlankElementUsesFallback(t *testing.T) {
	g := plan(t, "x\n\n\n  1  0\n    0.0000    0.0000    0.0000    \n")

	require.Len(t, g.Spheres(), 1)
	fb := DefaultPalette().Fallback()
	assert.Equal(t, fb.Color, g.Spheres()[0].Color)
	assert.Equal(t, fb.Radius, g.Spheres()[0].Radius)
}

func TestPlan_HydrogenSpheres(t *testing.T) {
	g := plan(t, testutil.WaterRecord())
	sp := g.Spheres()
	require.Len(t, sp, 3)
	assert.Equal(t, 0.2, sp[0].Radius)
	assert.Equal(t, Color(0xFF0D0D), sp[0].Color)
	assert.Equal(t, 0.1, sp[1].Radius)
	assert.Equal(t, ColorWhite, sp[1].Color)
}

func TestGeometry_Release(t *testing.T) {
	g := plan(t, testutil.WaterRecord())
	g.Release()
	assert.Nil(t, g.Shapes)
	assert.True(t, g.Bounds.Empty())

	var nilGeom *Geometry
	assert.NotPanics(t, nilGeom.Release)
}

//Personal.AI order the ending
