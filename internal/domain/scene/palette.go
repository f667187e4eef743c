// Package scene turns a parsed molecule snapshot into renderable geometry and
// fits a camera to it. Everything here is pure: no I/O, no shared state, and
// no NaN or Inf output for finite input.
package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/molscope/internal/domain/molecule"
)

// Color is a 24-bit RGB value, 0xRRGGBB.
type Color uint32

// Well-known colours.
const (
	ColorWhite Color = 0xFFFFFF
	ColorGrey  Color = 0x808080
)

// ColorRef returns a pointer to a copy of c, for optional colour fields.
func ColorRef(c Color) *Color { return &c }

// Hex renders the colour as "#rrggbb".
func (c Color) Hex() string { return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF) }

// ParseColor accepts "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return 0, fmt.Errorf("colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q: %w", s, err)
	}
	return Color(v), nil
}

// MarshalJSON encodes the colour as a "#rrggbb" string.
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.Hex())), nil
}

// UnmarshalJSON accepts the string forms ParseColor does, or a bare number.
func (c *Color) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] != '"' {
		v, err := strconv.ParseUint(string(data), 10, 32)
		if err != nil {
			return fmt.Errorf("colour: %w", err)
		}
		*c = Color(v)
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("colour: %w", err)
	}
	v, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Default radii, in model units.
const (
	DefaultAtomRadius     = 0.2
	DefaultHydrogenRadius = 0.1
)

// ElementStyle is how one element is drawn.
type ElementStyle struct {
	Color  Color   `json:"color"`
	Radius float64 `json:"radius"`
}

// Palette is a total element → style table: every symbol resolves, unknown
// ones to the fallback entry. A Palette is immutable once built; the With*
// methods return copies.
type Palette struct {
	styles   map[string]ElementStyle
	fallback ElementStyle
}

// cpkColors is the subset of CPK/Jmol colours the viewer recognises. Carbon
// keeps the historical grey.
var cpkColors = map[string]Color{
	"H":  0xFFFFFF,
	"D":  0xFFFFC0,
	"T":  0xFFFFA0,
	"He": 0xD9FFFF,
	"Li": 0xCC80FF,
	"B":  0xFFB5B5,
	"C":  0x808080,
	"N":  0x3050F8,
	"O":  0xFF0D0D,
	"F":  0x90E050,
	"Na": 0xAB5CF2,
	"Mg": 0x8AFF00,
	"Al": 0xBFA6A6,
	"Si": 0xF0C8A0,
	"P":  0xFF8000,
	"S":  0xFFFF30,
	"Cl": 0x1FF01F,
	"K":  0x8F40D4,
	"Ca": 0x3DFF00,
	"Fe": 0xE06633,
	"Cu": 0xC88033,
	"Zn": 0x7D80B0,
	"Se": 0xFFA100,
	"Br": 0xA62929,
	"Sn": 0x668080,
	"I":  0x940094,
	"Pt": 0xD0D0E0,
	"Hg": 0xB8B8D0,
}

// DefaultPalette returns the CPK palette with hydrogen at half the radius of
// every other element and grey as the fallback.
func DefaultPalette() *Palette {
	p := &Palette{
		styles:   make(map[string]ElementStyle, len(cpkColors)),
		fallback: ElementStyle{Color: ColorGrey, Radius: DefaultAtomRadius},
	}
	for sym, c := range cpkColors {
		p.styles[sym] = ElementStyle{Color: c, Radius: radiusFor(sym, DefaultAtomRadius, DefaultHydrogenRadius)}
	}
	return p
}

// NewPalette builds a palette from explicit entries. Keys are normalised.
func NewPalette(fallback ElementStyle, styles map[string]ElementStyle) *Palette {
	p := &Palette{styles: make(map[string]ElementStyle, len(styles)), fallback: fallback}
	for sym, st := range styles {
		p.styles[molecule.NormalizeSymbol(sym)] = st
	}
	return p
}

// Lookup returns the style for sym. It never fails.
func (p *Palette) Lookup(sym string) ElementStyle {
	if st, ok := p.styles[molecule.NormalizeSymbol(sym)]; ok {
		return st
	}
	return p.fallback
}

// Known reports whether sym has its own entry.
func (p *Palette) Known(sym string) bool {
	_, ok := p.styles[molecule.NormalizeSymbol(sym)]
	return ok
}

// Fallback returns the style used for unknown symbols.
func (p *Palette) Fallback() ElementStyle { return p.fallback }

// Symbols lists the symbols with their own entry, sorted.
func (p *Palette) Symbols() []string {
	out := make([]string, 0, len(p.styles))
	for sym := range p.styles {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// WithRadii returns a copy where hydrogen isotopes use hydrogen and every
// other entry, the fallback included, uses heavy. Non-positive values leave
// the current radii alone.
func (p *Palette) WithRadii(heavy, hydrogen float64) *Palette {
	cp := p.clone()
	for sym, st := range cp.styles {
		if r := radiusFor(sym, heavy, hydrogen); r > 0 {
			st.Radius = r
			cp.styles[sym] = st
		}
	}
	if heavy > 0 {
		cp.fallback.Radius = heavy
	}
	return cp
}

// WithColor returns a copy with sym drawn in c. The fallback radius is used
// when sym had no entry.
func (p *Palette) WithColor(sym string, c Color) *Palette {
	cp := p.clone()
	key := molecule.NormalizeSymbol(sym)
	st, ok := cp.styles[key]
	if !ok {
		st = ElementStyle{Radius: radiusFor(key, cp.fallback.Radius, cp.fallback.Radius/2)}
	}
	st.Color = c
	cp.styles[key] = st
	return cp
}

// WithFallbackColor returns a copy whose unknown-element colour is c.
func (p *Palette) WithFallbackColor(c Color) *Palette {
	cp := p.clone()
	cp.fallback.Color = c
	return cp
}

func (p *Palette) clone() *Palette {
	cp := &Palette{styles: make(map[string]ElementStyle, len(p.styles)), fallback: p.fallback}
	for k, v := range p.styles {
		cp.styles[k] = v
	}
	return cp
}

func radiusFor(sym string, heavy, hydrogen float64) float64 {
	if (molecule.Atom{Element: sym}).IsHydrogen() {
		return hydrogen
	}
	return heavy
}

//Personal.AI order the ending
