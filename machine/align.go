package machine

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gprobe/gcode"
)

const (
	alignProbeDistance = 20
	alignBackoff       = 5

	// nudgeRate is the step rate used for the raw actuator move.
	nudgeRate = 200
)

// Actuator adjustment directions reported by Align.
const (
	AlignRightPlusY = "Right hand actuator needs to be moved in +Y direction"
	AlignLeftPlusY  = "Left hand actuator needs to be moved in +Y direction"
	AlignedOK       = "Actuators are aligned"
)

// AlignResult is the measured skew between the two Y actuators.
type AlignResult struct {
	// Skew is r2.Y - r1.Y in mm.
	Skew float64

	// Steps is the magnitude of the correction in actuator steps.
	Steps int

	Direction string

	// Adjusted is true if the correction was sent to the controller.
	Adjusted bool
}

func (r AlignResult) String() string {
	s := fmt.Sprintf("Skew= %g mm, %d steps\n%s", r.Skew, r.Steps, r.Direction)
	if r.Adjusted {
		s += "\nadjustment applied"
	}
	return s
}

// alignDirection maps the sign of the skew to the actuator that needs moving.
//
// The mapping is tied to the machine wiring and has not been derived from
// the protocol; keep it in sync with the hardware.
func alignDirection(skew float64) string {
	switch {
	case skew < 0:
		return AlignRightPlusY
	case skew > 0:
		return AlignLeftPlusY
	}
	return AlignedOK
}

// ProbeAlign measures the skew of a dual-actuator Y gantry by probing the same
// Y face at both ends of the configured width.
//
// The probe must start in front of the Y face at the left end.
func (m *Machine) ProbeAlign() (*AlignResult, error) {
	width := m.opt.Width

	_, err := m.Probe('Y', alignProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe to normalize: %w", err)
	}
	err = m.MoveBy(0, -alignBackoff, 0, false, false)
	if err != nil {
		return nil, err
	}
	r1, err := m.Probe('Y', alignProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe first end: %w", err)
	}
	err = m.MoveBy(0, -alignBackoff, 0, false, false)
	if err != nil {
		return nil, err
	}
	err = m.MoveBy(width, 0, 0, false, false)
	if err != nil {
		return nil, err
	}
	r2, err := m.Probe('Y', alignProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe second end: %w", err)
	}

	steps, err := m.Steps()
	if err != nil {
		return nil, err
	}

	res := &AlignResult{Skew: r2.Y - r1.Y}
	res.Steps = int(math.Round(math.Abs(res.Skew) * steps.Y))
	res.Direction = alignDirection(res.Skew)
	m.log.Info().Float64("skew", res.Skew).Int("steps", res.Steps).Msg(res.Direction)

	if m.opt.AutoAdjust && res.Steps != 0 {
		signed := -int(math.Round(res.Skew * steps.Y))
		err = m.run(gcode.Block{
			{W: 'M', Arg: 1910.1},
			{W: 'Y', Arg: float64(signed)},
			{W: 'F', Arg: nudgeRate},
		})
		if err != nil {
			return nil, fmt.Errorf("adjust actuator: %w", err)
		}
		res.Adjusted = true
	}

	err = m.MoveBy(0, -alignBackoff, 0, false, false)
	if err != nil {
		return nil, err
	}
	err = m.MoveBy(-width, 0, 0, false, false)
	if err != nil {
		return nil, err
	}

	return res, m.WaitIdle()
}
