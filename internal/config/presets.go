package config

import (
	"sort"

	"github.com/san-kum/dynsm/internal/bc"
	"github.com/san-kum/dynsm/internal/mesh"
	"github.com/san-kum/dynsm/internal/model"
)

var steel = model.Material{Density: 1, YoungsModulus: 1e4}

func fixed(block, face string) []bc.Condition {
	conds := make([]bc.Condition, 0, 3)
	for _, c := range []string{"x", "y", "z"} {
		conds = append(conds, bc.Condition{Kind: bc.PrescribedVelocity, Block: block, Face: face, Component: c})
	}
	return conds
}

var Presets = map[string]func() *Config{
	// A cube dropped on a plate clamped at its base.
	"impact": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "impact"
		cfg.FinalTime = 0.2
		cfg.NumLoadSteps = 400
		cfg.OutputFrequency = 20
		cfg.Blocks = []mesh.BlockSpec{
			{Name: "plate", Size: [3]float64{4, 4, 0.5}, Divisions: [3]int{8, 8, 1}},
			{Name: "ball", Origin: [3]float64{1.5, 1.5, 0.55}, Size: [3]float64{1, 1, 1}, Divisions: [3]int{2, 2, 2}},
		}
		cfg.Materials = map[string]model.Material{"plate": steel, "ball": steel}
		cfg.BoundaryConditions = fixed("plate", "z_min")
		cfg.InitialVelocities = []bc.InitialVelocity{{Block: "ball", Velocity: [3]float64{0, 0, -10}}}
		cfg.Contact = "contact primary_blocks plate secondary_blocks ball penalty_parameter 1.0e4"
		return cfg
	},
	// A bar clamped at one end and pulled at the other.
	"tension": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "tension"
		cfg.FinalTime = 1.0
		cfg.NumLoadSteps = 2000
		cfg.OutputFrequency = 50
		cfg.Blocks = []mesh.BlockSpec{
			{Name: "bar", Size: [3]float64{4, 1, 1}, Divisions: [3]int{8, 2, 2}},
		}
		cfg.Materials = map[string]model.Material{"bar": {Density: 1, YoungsModulus: 1e4, Damping: 2e-4}}
		cfg.BoundaryConditions = append(fixed("bar", "x_min"), bc.Condition{
			Kind: bc.PrescribedDisplacement, Block: "bar", Face: "x_max", Component: "x", Value: 0.04, RampTime: 0.5,
		})
		return cfg
	},
	// A bar pushed at one end; the compression wave travels to the free end.
	"wave": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "wave"
		cfg.FinalTime = 2.0
		cfg.NumLoadSteps = 4000
		cfg.OutputFrequency = 100
		cfg.Blocks = []mesh.BlockSpec{
			{Name: "bar", Size: [3]float64{8, 1, 1}, Divisions: [3]int{32, 4, 4}},
		}
		cfg.Materials = map[string]model.Material{"bar": steel}
		cfg.BoundaryConditions = []bc.Condition{
			{Kind: bc.PrescribedVelocity, Block: "bar", Face: "x_min", Component: "x", Value: 0.1, RampTime: 0.01},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
