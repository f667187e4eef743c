package molecule

import (
	"sort"
	"strconv"
	"strings"
)

// CompositionSummary is the properties-panel view of a snapshot.
type CompositionSummary struct {
	Formula        string         `json:"formula"`
	AtomCount      int            `json:"atom_count"`
	BondCount      int            `json:"bond_count"`
	HeavyAtomCount int            `json:"heavy_atom_count"`
	Elements       map[string]int `json:"elements"`
	BondOrders     map[int]int    `json:"bond_orders"`
}

// Composition summarises a snapshot. The formula is in Hill order: C then H
// when carbon is present, everything else alphabetical.
func Composition(snap *Snapshot) CompositionSummary {
	out := CompositionSummary{
		Elements:   make(map[string]int),
		BondOrders: make(map[int]int),
	}
	if snap == nil {
		return out
	}
	out.AtomCount = len(snap.Atoms)
	out.BondCount = len(snap.Bonds)

	for _, a := range snap.Atoms {
		out.Elements[NormalizeSymbol(a.Element)]++
		if !a.IsHydrogen() {
			out.HeavyAtomCount++
		}
	}
	for _, b := range snap.Bonds {
		out.BondOrders[b.Order]++
	}
	out.Formula = HillFormula(out.Elements)
	return out
}

// HillFormula renders element counts in Hill order.
func HillFormula(counts map[string]int) string {
	symbols := make([]string, 0, len(counts))
	for sym, n := range counts {
		if n > 0 && sym != "" {
			symbols = append(symbols, sym)
		}
	}
	hasCarbon := counts["C"] > 0
	sort.Slice(symbols, func(i, j int) bool {
		ri, rj := hillRank(symbols[i], hasCarbon), hillRank(symbols[j], hasCarbon)
		if ri != rj {
			return ri < rj
		}
		return symbols[i] < symbols[j]
	})

	var sb strings.Builder
	for _, sym := range symbols {
		sb.WriteString(sym)
		if n := counts[sym]; n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	return sb.String()
}

func hillRank(sym string, hasCarbon bool) int {
	if !hasCarbon {
		return 2
	}
	switch sym {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

//Personal.AI order the ending
