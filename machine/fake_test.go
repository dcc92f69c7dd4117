package machine

import (
	"fmt"
	"regexp"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/gcode"
)

// fakeAdapter records commands and replays canned measurements.
type fakeAdapter struct {
	log []string

	probes    []coord.Point
	positions []coord.Point
	angles    []float64
	steps     StepsPerUnit

	// failOn makes Send or SendExpect fail for an exact command.
	failOn map[string]error
}

var _ Adapter = &fakeAdapter{}

func (f *fakeAdapter) Send(cmd string) error {
	f.log = append(f.log, cmd)
	return f.failOn[cmd]
}

func (f *fakeAdapter) SendExpect(cmd string, expect *regexp.Regexp) (string, error) {
	f.log = append(f.log, cmd)
	if err := f.failOn[cmd]; err != nil {
		return "", err
	}
	return "Z:1.0000 C:100", nil
}

func (f *fakeAdapter) Position(frame Frame) (*Position, error) {
	f.log = append(f.log, "?"+frame.String())
	if len(f.positions) == 0 {
		return nil, ErrProtocolViolation
	}
	p := f.positions[0]
	f.positions = f.positions[1:]
	return &Position{Point: p, Frame: frame}, nil
}

func (f *fakeAdapter) ProbeAxis(axis byte, distance, feed float64) (*ProbeResult, error) {
	cmd := gcode.Block{{W: 'G', Arg: 38.3}, {W: axis, Arg: distance}, {W: 'F', Arg: feed}}.String()
	f.log = append(f.log, cmd)
	if len(f.probes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProbeFailed, cmd)
	}
	p := f.probes[0]
	f.probes = f.probes[1:]
	return &ProbeResult{Point: p, Triggered: true}, nil
}

func (f *fakeAdapter) Angle() (float64, error) {
	f.log = append(f.log, "M114.3")
	a := f.angles[0]
	f.angles = f.angles[1:]
	return a, nil
}

func (f *fakeAdapter) Steps() (*StepsPerUnit, error) {
	f.log = append(f.log, "M92")
	s := f.steps
	return &s, nil
}

func (f *fakeAdapter) Drain() error {
	f.log = append(f.log, "drain")
	return f.failOn["drain"]
}

func (f *fakeAdapter) count(cmd string) int {
	var n int
	for _, l := range f.log {
		if l == cmd {
			n++
		}
	}
	return n
}
