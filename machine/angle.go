package machine

import (
	"fmt"
	"math"
	"regexp"

	"github.com/mastercactapus/gprobe/gcode"
)

// angleReferenceDelta is the actuator angle change expected between the two
// reference probes on a correctly scaled rotary delta.
const angleReferenceDelta = 27.917376257801326

// angleLift is the Z displacement between the two reference probes.
const angleLift = 1

var rxProbeZ = regexp.MustCompile(`Z:`)

// AngleResult is the rotary actuator scale calibration.
type AngleResult struct {
	A1, A2 float64
	Delta  float64
	Scale  float64

	OldSteps, NewSteps float64

	// Command is the recommended calibration; it is never sent.
	Command string
}

func (r AngleResult) String() string {
	return fmt.Sprintf("angle delta= %g, scale= %g\nsteps/degree %g -> %g\nrecommended: %s",
		r.Delta, r.Scale, r.OldSteps, r.NewSteps, r.Command)
}

// ProbeReference runs a G30 reference probe (G30 R1 when relative) and
// returns the actuator angle afterwards.
func (m *Machine) ProbeReference(relative bool) (float64, error) {
	b := gcode.Block{{W: 'G', Arg: 30}}
	if relative {
		b = append(b, gcode.Word{W: 'R', Arg: 1})
	}
	err := b.Validate()
	if err != nil {
		return 0, err
	}
	_, err = m.SendExpect(b.String(), rxProbeZ)
	if err != nil {
		return 0, err
	}
	return m.Angle()
}

// ProbeAngle calibrates rotary actuator steps-per-degree from the angle change
// between two reference probes a fixed Z distance apart.
func (m *Machine) ProbeAngle() (*AngleResult, error) {
	err := m.MoveTo(Target{X: ptr(0), Y: ptr(0)}, false, false)
	if err != nil {
		return nil, err
	}

	var res AngleResult
	res.A1, err = m.ProbeReference(false)
	if err != nil {
		return nil, fmt.Errorf("reference probe: %w", err)
	}
	err = m.MoveBy(0, 0, angleLift, false, false)
	if err != nil {
		return nil, err
	}
	res.A2, err = m.ProbeReference(true)
	if err != nil {
		return nil, fmt.Errorf("relative probe: %w", err)
	}

	steps, err := m.Steps()
	if err != nil {
		return nil, err
	}

	res.Delta = math.Abs(res.A2 - res.A1)
	res.Scale = 1
	if res.Delta != 0 {
		res.Scale = res.Delta / angleReferenceDelta
	}
	res.OldSteps = steps.X
	res.NewSteps = steps.X * res.Scale
	res.Command = gcode.Block{
		{W: 'M', Arg: 92},
		{W: 'X', Arg: res.NewSteps},
		{W: 'Y', Arg: res.NewSteps},
		{W: 'Z', Arg: res.NewSteps},
	}.String()
	m.log.Info().Float64("a1", res.A1).Float64("a2", res.A2).Float64("scale", res.Scale).Msg("angle calibration")

	return &res, m.WaitIdle()
}
