package molecule

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/molscope/pkg/errors"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

// Fixed column layout of a V2000 chemical-table record, 0-based byte offsets.
const (
	headerLines    = 3
	countsLineIdx  = 3
	countsMinWidth = 6

	atomXStart, atomXEnd = 0, 10
	atomYStart, atomYEnd = 10, 20
	atomZStart, atomZEnd = 20, 30
	atomSymStart         = 31
	atomSymEnd           = 34
	atomMinWidth         = atomSymStart + 1

	bondMinWidth = 9
)

// ParseRecord parses an MDL V2000 structure record.
//
// Carriage returns are stripped before any column is sliced. On failure the
// returned error is a MalformedRecord AppError whose detail names the 1-based
// line number, and no snapshot is returned.
func ParseRecord(text string) (*Snapshot, error) {
	lines := splitLines(text)
	if len(lines) < headerLines+1 {
		return nil, errors.MalformedRecord("record has no counts line").
			WithDetail(fmt.Sprintf("lines=%d", len(lines)))
	}

	atomCount, bondCount, err := parseCounts(lines[countsLineIdx])
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Name:  strings.TrimSpace(lines[0]),
		Atoms: make([]Atom, 0, atomCount),
		Bonds: make([]Bond, 0, bondCount),
	}

	for i := 0; i < atomCount; i++ {
		idx := countsLineIdx + 1 + i
		if idx >= len(lines) {
			return nil, malformed(idx, "missing atom line %d of %d", i+1, atomCount)
		}
		atom, err := parseAtom(idx, lines[idx])
		if err != nil {
			return nil, err
		}
		snap.Atoms = append(snap.Atoms, atom)
	}

	for j := 0; j < bondCount; j++ {
		idx := countsLineIdx + 1 + atomCount + j
		if idx >= len(lines) {
			return nil, malformed(idx, "missing bond line %d of %d", j+1, bondCount)
		}
		bond, err := parseBond(idx, lines[idx], atomCount)
		if err != nil {
			return nil, err
		}
		snap.Bonds = append(snap.Bonds, bond)
	}

	return snap, nil
}

// StripCR removes every carriage return from text.
func StripCR(text string) string {
	return strings.ReplaceAll(text, "\r", "")
}

func splitLines(text string) []string {
	return strings.Split(StripCR(text), "\n")
}

func parseCounts(line string) (int, int, error) {
	if len(line) < countsMinWidth {
		return 0, 0, malformed(countsLineIdx, "counts line shorter than %d characters", countsMinWidth)
	}
	if strings.Contains(line, "V3000") {
		return 0, 0, malformed(countsLineIdx, "V3000 records are not supported")
	}
	atoms, err := parseCount(line[0:3])
	if err != nil {
		return 0, 0, malformed(countsLineIdx, "invalid atom count %q", line[0:3]).WithCause(err)
	}
	bonds, err := parseCount(line[3:6])
	if err != nil {
		return 0, 0, malformed(countsLineIdx, "invalid bond count %q", line[3:6]).WithCause(err)
	}
	return atoms, bonds, nil
}

func parseCount(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func parseAtom(idx int, line string) (Atom, error) {
	if len(line) < atomMinWidth {
		return Atom{}, malformed(idx, "atom line shorter than %d characters", atomMinWidth)
	}
	x, err := parseCoord(line[atomXStart:atomXEnd])
	if err != nil {
		return Atom{}, malformed(idx, "invalid x coordinate %q", line[atomXStart:atomXEnd]).WithCause(err)
	}
	y, err := parseCoord(line[atomYStart:atomYEnd])
	if err != nil {
		return Atom{}, malformed(idx, "invalid y coordinate %q", line[atomYStart:atomYEnd]).WithCause(err)
	}
	z, err := parseCoord(line[atomZStart:atomZEnd])
	if err != nil {
		return Atom{}, malformed(idx, "invalid z coordinate %q", line[atomZStart:atomZEnd]).WithCause(err)
	}
	end := atomSymEnd
	if end > len(line) {
		end = len(line)
	}
	// A blank symbol is kept; the palette styles it with the fallback.
	sym := strings.TrimSpace(line[atomSymStart:end])
	return Atom{Position: geometry.V(x, y, z), Element: sym}, nil
}

// MaxCoordinate bounds accepted coordinate magnitudes. Within it, bond
// vectors, box extents and camera distances stay finite.
const MaxCoordinate = 1e150

func parseCoord(field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite coordinate")
	}
	if math.Abs(f) > MaxCoordinate {
		return 0, fmt.Errorf("coordinate magnitude exceeds %g", MaxCoordinate)
	}
	return f, nil
}

func parseBond(idx int, line string, atomCount int) (Bond, error) {
	if len(line) < bondMinWidth {
		return Bond{}, malformed(idx, "bond line shorter than %d characters", bondMinWidth)
	}
	var fields [3]int
	for k := range fields {
		raw := line[k*3 : k*3+3]
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Bond{}, malformed(idx, "invalid bond field %q", raw).WithCause(err)
		}
		fields[k] = n
	}
	a, b := fields[0]-1, fields[1]-1
	if a < 0 || a >= atomCount || b < 0 || b >= atomCount {
		return Bond{}, malformed(idx, "bond references atom outside 1..%d", atomCount).
			WithDetail(fmt.Sprintf("line %d: atoms %d-%d", idx+1, fields[0], fields[1]))
	}
	return Bond{A: a, B: b, Order: fields[2]}, nil
}

func malformed(idx int, format string, args ...interface{}) *errors.AppError {
	return errors.MalformedRecord(fmt.Sprintf(format, args...)).
		WithDetail(fmt.Sprintf("line %d", idx+1))
}

//Personal.AI order the ending
