package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/molscope/internal/domain/molecule"
)

type inspection struct {
	Molecule    *molecule.Snapshot          `json:"molecule"`
	Composition molecule.CompositionSummary `json:"composition"`
}

// NewInspectCmd creates the inspect command. It parses the record without
// building geometry.
func NewInspectCmd() *cobra.Command {
	var showBonds bool

	cmd := &cobra.Command{
		Use:   "inspect <file|->",
		Short: "Show the atoms, bonds and composition of a structure record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			record, err := readRecord(cmd, args[0])
			if err != nil {
				return err
			}
			snap, err := molecule.ParseRecord(record)
			if err != nil {
				return err
			}
			result := inspection{Molecule: snap, Composition: molecule.Composition(snap)}

			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, result)
			}
			return printInspection(cmd, result, showBonds)
		},
	}

	cmd.Flags().BoolVar(&showBonds, "bonds", true, "include the bond table")
	return cmd
}

func printInspection(cmd *cobra.Command, r inspection, showBonds bool) error {
	out := cmd.OutOrStdout()
	name := r.Molecule.Name
	if name == "" {
		name = "(unnamed)"
	}
	c := r.Composition
	fmt.Fprintf(out, "%s  %s\n", color.CyanString(name), color.GreenString(c.Formula))
	fmt.Fprintf(out, "atoms: %d (heavy %d)  bonds: %d\n\n", c.AtomCount, c.HeavyAtomCount, c.BondCount)

	atomRows := make([][]string, 0, len(r.Molecule.Atoms))
	for i, a := range r.Molecule.Atoms {
		atomRows = append(atomRows, []string{
			strconv.Itoa(i + 1),
			a.Element,
			formatFloat(a.Position.X),
			formatFloat(a.Position.Y),
			formatFloat(a.Position.Z),
		})
	}
	if err := FormatTable(out, []string{"#", "Element", "X", "Y", "Z"}, atomRows); err != nil {
		return err
	}

	if !showBonds || len(r.Molecule.Bonds) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	bondRows := make([][]string, 0, len(r.Molecule.Bonds))
	for i, b := range r.Molecule.Bonds {
		bondRows = append(bondRows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(b.A + 1),
			strconv.Itoa(b.B + 1),
			strconv.Itoa(b.Order),
			strconv.Itoa(b.Multiplicity()),
		})
	}
	if err := FormatTable(out, []string{"#", "From", "To", "Order", "Strokes"}, bondRows); err != nil {
		return err
	}

	orders := make([]int, 0, len(c.BondOrders))
	for o := range c.BondOrders {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	for _, o := range orders {
		fmt.Fprintf(out, "order %d: %d\n", o, c.BondOrders[o])
	}
	return nil
}

//Personal.AI order the ending
