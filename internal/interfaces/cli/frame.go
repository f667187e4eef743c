package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/domain/scene"
	"github.com/turtacn/molscope/pkg/errors"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

type framedPose struct {
	Bounds geometry.Box     `json:"bounds"`
	Camera scene.CameraPose `json:"camera"`
}

func (p framedPose) TableHeaders() []string { return []string{"Property", "Value"} }

func (p framedPose) TableRows() [][]string {
	return [][]string{
		{"Bounds min", formatVec(p.Bounds.Min)},
		{"Bounds max", formatVec(p.Bounds.Max)},
		{"Position", formatVec(p.Camera.Position)},
		{"Target", formatVec(p.Camera.Target)},
		{"Up", formatVec(p.Camera.Up)},
		{"Distance", formatFloat(p.Camera.Distance)},
		{"FOV", formatFloat(p.Camera.FOV)},
	}
}

func (p framedPose) String() string {
	return fmt.Sprintf("position %s  target %s  up %s  distance %s  fov %s",
		formatVec(p.Camera.Position), formatVec(p.Camera.Target), formatVec(p.Camera.Up),
		formatFloat(p.Camera.Distance), formatFloat(p.Camera.FOV))
}

// NewFrameCmd creates the frame command.
func NewFrameCmd() *cobra.Command {
	var (
		fov                  float64
		minCorner, maxCorner string
	)

	cmd := &cobra.Command{
		Use:   "frame [file]",
		Short: "Fit a camera to a record's scene or to an explicit box",
		Long: "Compute the camera pose that frames a scene. The box is taken from the\n" +
			"record's built scene, or from --min and --max given as x,y,z.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var bounds geometry.Box
			switch {
			case minCorner != "" || maxCorner != "":
				if len(args) > 0 {
					return errors.New(errors.ErrCodeValidation, "use either a record file or --min/--max")
				}
				if bounds.Min, err = parseVec(minCorner); err != nil {
					return err
				}
				if bounds.Max, err = parseVec(maxCorner); err != nil {
					return err
				}
			case len(args) == 1:
				record, err := readRecord(cmd, args[0])
				if err != nil {
					return err
				}
				ctx, cancel := cliCtx.commandContext(cmd)
				defer cancel()
				sc, err := cliCtx.Service.BuildScene(ctx, &viewer.BuildInput{Record: record})
				if err != nil {
					return err
				}
				bounds = sc.Bounds
			default:
				return errors.New(errors.ErrCodeValidation, "a record file or --min/--max is required")
			}

			return PrintResult(cmd, framedPose{Bounds: bounds, Camera: cliCtx.Service.Frame(bounds, fov)})
		},
	}

	cmd.Flags().Float64Var(&fov, "fov", 0, "vertical field of view in degrees (0 uses the configured default)")
	cmd.Flags().StringVar(&minCorner, "min", "", "box minimum corner as x,y,z")
	cmd.Flags().StringVar(&maxCorner, "max", "", "box maximum corner as x,y,z")
	return cmd
}

func parseVec(s string) (geometry.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vec3{}, errors.New(errors.ErrCodeValidation, "expected x,y,z").
			WithDetail(fmt.Sprintf("got %q", s))
	}
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vec3{}, errors.Wrap(err, errors.ErrCodeValidation, "invalid coordinate")
		}
		xyz[i] = f
	}
	return geometry.V(xyz[0], xyz[1], xyz[2]), nil
}

//Personal.AI order the ending
