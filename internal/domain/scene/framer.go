package scene

import (
	"math"

	"github.com/turtacn/molscope/pkg/types/geometry"
)

// CameraPose is a perspective camera looking at Target from Position.
type CameraPose struct {
	Position geometry.Vec3 `json:"position"`
	Target   geometry.Vec3 `json:"target"`
	Up       geometry.Vec3 `json:"up"`
	Distance float64       `json:"distance"`
	FOV      float64       `json:"fov"`
}

// FramerOptions tunes camera fitting. Zero fields take the defaults.
type FramerOptions struct {
	// DefaultFOV is the vertical field of view in degrees used when the
	// caller's value is outside (0, 180).
	DefaultFOV float64
	// Padding multiplies the fitted distance; must exceed 1.
	Padding float64
	// MinDimension is the epsilon maxDim is clamped to, so a zero-size box
	// still gets a finite, non-zero distance.
	MinDimension float64
	// MinExtent is an optional visual floor on the framed dimension. Zero
	// disables it and frames every box by its own size.
	MinExtent float64
	// ViewAxis is the direction from the target to the camera.
	ViewAxis geometry.Vec3
}

// Defaults.
const (
	DefaultFOV          = 75.0
	DefaultPadding      = 1.5
	DefaultMinDimension = 1e-6
	DefaultMinExtent    = 0.0
	// EmptyBoxExtent is framed at the origin when there is nothing to fit.
	EmptyBoxExtent = 1.0
)

// DefaultFramerOptions returns the stock framing.
func DefaultFramerOptions() FramerOptions {
	return FramerOptions{
		DefaultFOV:   DefaultFOV,
		Padding:      DefaultPadding,
		MinDimension: DefaultMinDimension,
		MinExtent:    DefaultMinExtent,
		ViewAxis:     geometry.UnitZ,
	}
}

func (o *FramerOptions) applyDefaults() {
	d := DefaultFramerOptions()
	if !validFOV(o.DefaultFOV) {
		o.DefaultFOV = d.DefaultFOV
	}
	if !(o.Padding > 1) || math.IsInf(o.Padding, 0) {
		o.Padding = d.Padding
	}
	if !(o.MinDimension > 0) || math.IsInf(o.MinDimension, 0) {
		o.MinDimension = d.MinDimension
	}
	if !(o.MinExtent >= 0) || math.IsInf(o.MinExtent, 0) {
		o.MinExtent = d.MinExtent
	}
	if !o.ViewAxis.IsFinite() || o.ViewAxis.Len() == 0 {
		o.ViewAxis = d.ViewAxis
	}
	o.ViewAxis = o.ViewAxis.Normalize()
}

func validFOV(deg float64) bool {
	return deg > 0 && deg < 180 && !math.IsNaN(deg)
}

// Framer fits a camera to a bounding box.
type Framer struct {
	opts FramerOptions
	up   geometry.Vec3
}

// NewFramer returns a framer with opts normalised.
func NewFramer(opts FramerOptions) *Framer {
	opts.applyDefaults()
	up := geometry.UnitY
	// Looking straight along ±Y needs another up vector.
	if opts.ViewAxis.Cross(up).Len() < DefaultParallelEpsilon {
		up = geometry.UnitZ
		if opts.ViewAxis.Y > 0 {
			up = geometry.V(0, 0, -1)
		}
	}
	return &Framer{opts: opts, up: up}
}

// Options returns the effective options.
func (f *Framer) Options() FramerOptions { return f.opts }

// Frame places the camera on the view axis through the box centre, far enough
// back that the largest box dimension fits the vertical field of view, times
// the padding factor. An empty or non-finite box frames the origin at
// EmptyBoxExtent.
func (f *Framer) Frame(bounds geometry.Box, fovDegrees float64) CameraPose {
	fov := fovDegrees
	if !validFOV(fov) {
		fov = f.opts.DefaultFOV
	}

	center := geometry.Zero
	maxDim := EmptyBoxExtent
	if !bounds.Empty() {
		c, size := bounds.Center(), bounds.Size().MaxComponent()
		if c.IsFinite() && !math.IsNaN(size) && !math.IsInf(size, 0) {
			center, maxDim = c, size
		}
	}
	maxDim = math.Max(maxDim, math.Max(f.opts.MinExtent, f.opts.MinDimension))

	half := fov * math.Pi / 360
	distance := (maxDim / 2) / math.Tan(half) * f.opts.Padding

	return CameraPose{
		Position: center.Add(f.opts.ViewAxis.Scale(distance)),
		Target:   center,
		Up:       f.up,
		Distance: distance,
		FOV:      fov,
	}
}

//Personal.AI order the ending
