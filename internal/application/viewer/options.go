package viewer

import (
	"fmt"
	"time"

	"github.com/turtacn/molscope/internal/config"
	"github.com/turtacn/molscope/internal/domain/scene"
)

// Options configures the scene pipeline.
type Options struct {
	Planner scene.PlannerOptions
	Framer  scene.FramerOptions
	Palette *scene.Palette
	// CacheTTL is how long a built scene stays cached; 0 uses the cache's
	// default.
	CacheTTL time.Duration
}

// DefaultOptions returns the stock pipeline.
func DefaultOptions() Options {
	return Options{
		Planner: scene.DefaultPlannerOptions(),
		Framer:  scene.DefaultFramerOptions(),
		Palette: scene.DefaultPalette(),
	}
}

// OptionsFromConfig maps the render section onto planner, framer and palette
// options. Empty colours keep the defaults.
func OptionsFromConfig(r config.RenderConfig) (Options, error) {
	opts := DefaultOptions()

	opts.Planner.BondRadius = r.BondRadius
	opts.Planner.DoubleOffset = r.DoubleBondOffset
	opts.Planner.TripleOffset = r.TripleBondOffset
	opts.Planner.ParallelEpsilon = r.ParallelEpsilon
	opts.Planner.DegenerateEpsilon = r.DegenerateEpsilon
	if r.BondColor != "" {
		c, err := scene.ParseColor(r.BondColor)
		if err != nil {
			return Options{}, fmt.Errorf("render.bond_color: %w", err)
		}
		opts.Planner.BondColor = scene.ColorRef(c)
	}

	opts.Framer.DefaultFOV = r.FOV
	opts.Framer.Padding = r.Padding
	opts.Framer.MinExtent = r.MinExtent
	opts.Framer.MinDimension = r.MinDimension

	palette := opts.Palette.WithRadii(r.AtomRadius, r.HydrogenRadius)
	if r.FallbackColor != "" {
		c, err := scene.ParseColor(r.FallbackColor)
		if err != nil {
			return Options{}, fmt.Errorf("render.fallback_color: %w", err)
		}
		palette = palette.WithFallbackColor(c)
	}
	for sym, hex := range r.ElementColors {
		c, err := scene.ParseColor(hex)
		if err != nil {
			return Options{}, fmt.Errorf("render.element_colors.%s: %w", sym, err)
		}
		palette = palette.WithColor(sym, c)
	}
	opts.Palette = palette
	return opts, nil
}

// pipeline is one immutable planner/framer pair. Render reloads swap it whole.
type pipeline struct {
	planner *scene.Planner
	framer  *scene.Framer
}

func newPipeline(opts Options) *pipeline {
	return &pipeline{
		planner: scene.NewPlanner(opts.Planner, opts.Palette),
		framer:  scene.NewFramer(opts.Framer),
	}
}

//Personal.AI order the ending
