package machine

import "fmt"

// CenterResult is the measured bore of a hole.
type CenterResult struct {
	// Center is the work position the probe was left at.
	Center Position

	// Diameters include the tool diameter.
	DiameterX, DiameterY float64
}

func (r CenterResult) String() string {
	return fmt.Sprintf("Diameter is %g mm (X %g mm)\nCenter= %s", r.DiameterY, r.DiameterX, r.Center.Point)
}

// ProbeCenter finds the center of a hole by probing its walls along X then Y,
// leaving the probe at the center.
//
// The probe must start inside the hole, roughly centered.
func (m *Machine) ProbeCenter() (*CenterResult, error) {
	m.log.Info().Msg("position tool approx in the center of the hole")
	reach := m.opt.Diameter + 20

	start, err := m.Position(WorkFrame)
	if err != nil {
		return nil, err
	}

	right, err := m.Probe('X', reach)
	if err != nil {
		return nil, fmt.Errorf("probe right wall: %w", err)
	}
	err = m.MoveTo(Target{X: ptr(start.X)}, false, false)
	if err != nil {
		return nil, err
	}
	left, err := m.Probe('X', -reach)
	if err != nil {
		return nil, fmt.Errorf("probe left wall: %w", err)
	}
	dx := right.X - left.X
	err = m.MoveBy(dx/2, 0, 0, false, false)
	if err != nil {
		return nil, err
	}

	back, err := m.Probe('Y', reach)
	if err != nil {
		return nil, fmt.Errorf("probe back wall: %w", err)
	}
	// starting Y is close to center, skip most of the return travel
	err = m.MoveTo(Target{Y: ptr(start.Y)}, false, false)
	if err != nil {
		return nil, err
	}
	front, err := m.Probe('Y', -reach)
	if err != nil {
		return nil, fmt.Errorf("probe front wall: %w", err)
	}
	dy := back.Y - front.Y
	err = m.MoveBy(0, dy/2, 0, false, false)
	if err != nil {
		return nil, err
	}

	err = m.WaitIdle()
	if err != nil {
		return nil, err
	}
	center, err := m.Position(WorkFrame)
	if err != nil {
		return nil, err
	}

	res := &CenterResult{
		Center:    *center,
		DiameterX: dx + m.opt.ToolDiameter,
		DiameterY: dy + m.opt.ToolDiameter,
	}
	m.log.Info().Float64("diameter", res.DiameterY).Float64("diameterX", res.DiameterX).Msg("hole measured")
	return res, nil
}
