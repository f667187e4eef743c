// Package molecule holds the parsed form of a structure record: an immutable
// snapshot of atoms and bonds in file order, the fixed-column record parser
// that produces it, and composition summaries derived from it.
package molecule

import (
	"strings"

	"github.com/turtacn/molscope/pkg/types/geometry"
)

// Atom is one atom line of a record.
type Atom struct {
	Position geometry.Vec3 `json:"position"`
	Element  string        `json:"element"`
}

// IsHydrogen reports whether the atom is a hydrogen (including the D and T
// isotope symbols).
func (a Atom) IsHydrogen() bool {
	switch NormalizeSymbol(a.Element) {
	case "H", "D", "T":
		return true
	}
	return false
}

// Bond connects two atoms by their 0-based index. Order is kept exactly as
// read; consumers map it through Multiplicity.
type Bond struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Order int `json:"order"`
}

// Multiplicity returns the number of parallel strokes the bond is drawn with.
// Orders outside 1..3 render as single bonds.
func (b Bond) Multiplicity() int {
	switch b.Order {
	case 2:
		return 2
	case 3:
		return 3
	default:
		return 1
	}
}

// Snapshot is the unit of ownership handed from the parser to the planner.
// It is replaced wholesale, never patched.
type Snapshot struct {
	Name  string `json:"name,omitempty"`
	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds"`
}

// Endpoints returns the positions of a bond's atoms. The parser guarantees the
// indices are in range.
func (s *Snapshot) Endpoints(b Bond) (geometry.Vec3, geometry.Vec3) {
	return s.Atoms[b.A].Position, s.Atoms[b.B].Position
}

// NormalizeSymbol canonicalises an element symbol: "CL", "cl" and " Cl " all
// become "Cl".
func NormalizeSymbol(sym string) string {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		return ""
	}
	return strings.ToUpper(sym[:1]) + strings.ToLower(sym[1:])
}

//Personal.AI order the ending
