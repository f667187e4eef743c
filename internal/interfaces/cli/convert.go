package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molscope/pkg/errors"
)

// NewConvertCmd creates the convert command, which prints the record the
// configured converter returns for a SMILES string.
func NewConvertCmd() *cobra.Command {
	var smiles string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a SMILES string to an MDL record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(smiles) == "" {
				return errors.New(errors.ErrCodeValidation, "--smiles is required")
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			record, err := cliCtx.Service.Convert(ctx, smiles)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, map[string]string{"smiles": smiles, "mol_block": record})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), record)
			return err
		},
	}

	cmd.Flags().StringVar(&smiles, "smiles", "", "SMILES string to convert")
	return cmd
}

//Personal.AI order the ending
