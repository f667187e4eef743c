package testutil

import (
	"fmt"
	"strings"
)

// RecordAtom is one atom of a test record.
type RecordAtom struct {
	X, Y, Z float64
	Element string
}

// RecordBond is one bond of a test record. A and B are 1-based, as on disk.
type RecordBond struct {
	A, B, Order int
}

// MolBlock renders a V2000 record with the canonical column layout.
func MolBlock(name string, atoms []RecordAtom, bonds []RecordBond) string {
	var sb strings.Builder
	sb.WriteString(name + "\n")
	sb.WriteString("  molscope-test\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(atoms), len(bonds))
	for _, a := range atoms {
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n", a.X, a.Y, a.Z, a.Element)
	}
	for _, b := range bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.A, b.B, b.Order)
	}
	sb.WriteString("M  END\n")
	return sb.String()
}

// TwoAtomRecord is the two-carbon record along +X with a single bond of the
// given order.
func TwoAtomRecord(order int) string {
	return MolBlock("pair",
		[]RecordAtom{{0, 0, 0, "C"}, {1, 0, 0, "C"}},
		[]RecordBond{{1, 2, order}},
	)
}

// WaterRecord is H2O with realistic coordinates.
func WaterRecord() string {
	return MolBlock("water",
		[]RecordAtom{
			{0.0000, 0.0000, 0.1173, "O"},
			{0.0000, 0.7572, -0.4692, "H"},
			{0.0000, -0.7572, -0.4692, "H"},
		},
		[]RecordBond{{1, 2, 1}, {1, 3, 1}},
	)
}

// EtheneRecord is C2H4 with one double bond.
func EtheneRecord() string {
	return MolBlock("ethene",
		[]RecordAtom{
			{-0.6695, 0.0000, 0.0000, "C"},
			{0.6695, 0.0000, 0.0000, "C"},
			{-1.2321, 0.9289, 0.0000, "H"},
			{-1.2321, -0.9289, 0.0000, "H"},
			{1.2321, 0.9289, 0.0000, "H"},
			{1.2321, -0.9289, 0.0000, "H"},
		},
		[]RecordBond{{1, 2, 2}, {1, 3, 1}, {1, 4, 1}, {2, 5, 1}, {2, 6, 1}},
	)
}

// WithCRLF converts a record to CRLF line endings.
func WithCRLF(record string) string {
	return strings.ReplaceAll(record, "\n", "\r\n")
}

//Personal.AI order the ending
