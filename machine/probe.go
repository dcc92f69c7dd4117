package machine

import (
	"github.com/mastercactapus/gprobe/coord"
)

// ProbeResult is the contact location reported after a probe move.
type ProbeResult struct {
	coord.Point
	Triggered bool
}

// Frame selects which coordinate origin a position is reported in.
type Frame int

const (
	// WorkFrame is relative to the active work coordinate system (WPos).
	WorkFrame Frame = iota
	// MachineFrame is the absolute machine position (MPos).
	MachineFrame
)

func (f Frame) String() string {
	if f == MachineFrame {
		return "MPos"
	}
	return "WPos"
}

// Position is a location tagged with the frame it was reported in.
type Position struct {
	coord.Point
	Frame Frame
}

// StepsPerUnit is the controller's actuator calibration in steps per mm (or per degree).
type StepsPerUnit struct{ X, Y, Z float64 }
