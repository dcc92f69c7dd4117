package sim

import (
	"fmt"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/mastercactapus/gprobe/surface"
	"github.com/rs/zerolog"
)

// Presets lists the names accepted by Preset.
var Presets = []string{"box", "bore", "plane", "fence"}

// Preset builds a simulated machine with a workpiece sized from opt and the
// tool parked where the matching job expects to start.
//
//   - box:   a block of opt.Width x opt.Length, tool 10mm left of it (size)
//   - bore:  a hole of opt.Diameter, tool slightly off center (center)
//   - plane: a slightly tilted bed, tool above the origin (spiral, angle, pos)
//   - fence: a Y face skewed 0.5mm over 100mm, tool in front of it (align)
func Preset(name string, opt *machine.Options, log zerolog.Logger) (*Controller, error) {
	cfg := Config{
		ToolDiameter: opt.ToolDiameter,
		Banner:       "Smoothie",
	}

	switch name {
	case "box":
		cfg.Workpieces = []Workpiece{Box{
			Min: coord.Point{Z: -20},
			Max: coord.Point{X: opt.Width, Y: opt.Length},
		}}
		cfg.Start = coord.Point{X: -10, Y: opt.Length / 2, Z: -5}
	case "bore":
		cfg.Workpieces = []Workpiece{Bore{Radius: opt.Diameter / 2, Depth: 20}}
		cfg.Start = coord.Point{X: 1, Y: -1.5, Z: -5}
	case "plane":
		cfg.Workpieces = []Workpiece{Surface{Z: coord.Plane{
			{X: 0, Y: 0, Z: -1},
			{X: 100, Y: 0, Z: -0.9},
			{X: 0, Y: 100, Z: -1.05},
		}}}
		cfg.Start = coord.Point{Z: opt.SafeZ - 1}
	case "fence":
		cfg.Workpieces = []Workpiece{
			Fence{A: coord.Point{X: -10, Y: 10}, B: coord.Point{X: 90, Y: 10.5}},
			Surface{Z: surface.Flat(-20)},
		}
		cfg.Start = coord.Point{Z: -5}
	default:
		return nil, fmt.Errorf("unknown simulation %q", name)
	}

	return New(cfg, log), nil
}
