package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/domain/scene"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/client"
	"github.com/turtacn/molscope/pkg/errors"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

// sceneSummary is the text and table view of a built scene. JSON output
// prints the full scene document instead.
type sceneSummary struct {
	Name      string
	Digest    string
	Formula   string
	Atoms     int
	Bonds     int
	Spheres   int
	Cylinders int
	Camera    scene.CameraPose
}

func (s sceneSummary) TableHeaders() []string {
	return []string{"Property", "Value"}
}

func (s sceneSummary) TableRows() [][]string {
	return [][]string{
		{"Name", s.Name},
		{"Digest", s.Digest},
		{"Formula", s.Formula},
		{"Atoms", strconv.Itoa(s.Atoms)},
		{"Bonds", strconv.Itoa(s.Bonds)},
		{"Spheres", strconv.Itoa(s.Spheres)},
		{"Cylinders", strconv.Itoa(s.Cylinders)},
		{"Camera", formatVec(s.Camera.Position)},
		{"Target", formatVec(s.Camera.Target)},
		{"Distance", formatFloat(s.Camera.Distance)},
		{"FOV", formatFloat(s.Camera.FOV)},
	}
}

func (s sceneSummary) String() string {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "%s  %s\n", color.CyanString(name), color.GreenString(s.Formula))
	fmt.Fprintf(&b, "  digest:    %s\n", s.Digest)
	fmt.Fprintf(&b, "  atoms:     %d  bonds: %d\n", s.Atoms, s.Bonds)
	fmt.Fprintf(&b, "  shapes:    %d spheres, %d cylinders\n", s.Spheres, s.Cylinders)
	fmt.Fprintf(&b, "  camera:    %s -> %s  (distance %s, fov %s)",
		formatVec(s.Camera.Position), formatVec(s.Camera.Target),
		formatFloat(s.Camera.Distance), formatFloat(s.Camera.FOV))
	return b.String()
}

func summarizeLocal(sc *viewer.Scene) sceneSummary {
	return sceneSummary{
		Name:      sc.Name,
		Digest:    sc.Digest,
		Formula:   sc.Composition.Formula,
		Atoms:     sc.Composition.AtomCount,
		Bonds:     sc.Composition.BondCount,
		Spheres:   len(sc.Spheres()),
		Cylinders: len(sc.Cylinders()),
		Camera:    sc.Camera,
	}
}

func summarizeRemote(sc *client.Scene) sceneSummary {
	return sceneSummary{
		Name:      sc.Name,
		Digest:    sc.Digest,
		Formula:   sc.Composition.Formula,
		Atoms:     sc.Composition.AtomCount,
		Bonds:     sc.Composition.BondCount,
		Spheres:   len(sc.Spheres()),
		Cylinders: len(sc.Cylinders()),
		Camera: scene.CameraPose{
			Position: sc.Camera.Position,
			Target:   sc.Camera.Target,
			Up:       sc.Camera.Up,
			Distance: sc.Camera.Distance,
			FOV:      sc.Camera.FOV,
		},
	}
}

// NewSceneCmd creates the scene command.
func NewSceneCmd() *cobra.Command {
	var (
		fov    float64
		smiles string
	)

	cmd := &cobra.Command{
		Use:   "scene [file|-]",
		Short: "Build a ball-and-stick scene from a structure record",
		Long: "Build a scene from an MDL V2000 record read from a file, or from stdin\n" +
			"when the argument is \"-\". With --smiles the record is fetched from the\n" +
			"configured converter instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			var record string
			if len(args) == 1 {
				record, err = readRecord(cmd, args[0])
				if err != nil {
					return err
				}
			}
			if record == "" && smiles == "" {
				return errors.New(errors.ErrCodeValidation, "a record file or --smiles is required")
			}

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			if cliCtx.Client != nil {
				sc, err := cliCtx.Client.Scenes().Build(ctx, &client.BuildRequest{MolBlock: record, SMILES: smiles, FOV: fov})
				if err != nil {
					return err
				}
				if cliCtx.OutputFormat == "json" {
					return PrintResult(cmd, sc)
				}
				return PrintResult(cmd, summarizeRemote(sc))
			}

			sc, err := cliCtx.Service.BuildScene(ctx, &viewer.BuildInput{Record: record, SMILES: smiles, FOV: fov})
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("scene built",
				logging.String("digest", sc.Digest),
				logging.Int("shapes", len(sc.Shapes)))
			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, sc)
			}
			return PrintResult(cmd, summarizeLocal(sc))
		},
	}

	cmd.Flags().Float64Var(&fov, "fov", 0, "vertical field of view in degrees (0 uses the configured default)")
	cmd.Flags().StringVar(&smiles, "smiles", "", "SMILES string to convert instead of reading a record")
	return cmd
}

// readRecord reads a record file, or stdin for "-".
func readRecord(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read record")
	}
	return string(data), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func formatVec(v geometry.Vec3) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}

//Personal.AI order the ending
