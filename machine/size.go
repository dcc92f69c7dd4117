package machine

import "fmt"

// sizeProbeDistance is how far each edge probe travels looking for contact.
const sizeProbeDistance = 20

// SizeResult is the measured size of a rectangular workpiece.
type SizeResult struct {
	Width, Length float64

	// Differences are expected minus measured.
	WidthDiff, LengthDiff float64
}

func (r SizeResult) String() string {
	return fmt.Sprintf("Width= %g, difference= %g\nLength= %g, difference= %g\nSize= %g x %g",
		r.Width, r.WidthDiff, r.Length, r.LengthDiff, r.Length, r.Width)
}

// ProbeSize measures a rectangular workpiece edge to edge along X then Y, leaving
// the probe centered over it.
//
// The probe must start about 10mm to the left of the workpiece, centered in
// Y and below its top surface.
func (m *Machine) ProbeSize() (*SizeResult, error) {
	m.log.Info().Msg("position tool about 10mm to the left of the object to measure")
	opt := m.opt
	tool := opt.ToolDiameter

	x1, err := m.Probe('X', sizeProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe left face: %w", err)
	}
	err = m.MoveBy(opt.Width+10, 0, 0, true, true)
	if err != nil {
		return nil, err
	}
	x2, err := m.Probe('X', -sizeProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe right face: %w", err)
	}

	var res SizeResult
	res.Width = x2.X - x1.X - tool
	res.WidthDiff = opt.Width - res.Width
	m.log.Info().Float64("width", res.Width).Float64("expected", opt.Width).Float64("difference", res.WidthDiff).Msg("measured width")

	// center in X and in front of the Y face
	err = m.MoveBy(-res.Width/2-tool/2, -opt.Length/2-10, 0, true, true)
	if err != nil {
		return nil, err
	}
	y1, err := m.Probe('Y', sizeProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe front face: %w", err)
	}
	err = m.MoveBy(0, opt.Length+10, 0, true, true)
	if err != nil {
		return nil, err
	}
	y2, err := m.Probe('Y', -sizeProbeDistance)
	if err != nil {
		return nil, fmt.Errorf("probe back face: %w", err)
	}

	res.Length = y2.Y - y1.Y - tool
	res.LengthDiff = opt.Length - res.Length
	m.log.Info().Float64("length", res.Length).Float64("expected", opt.Length).Float64("difference", res.LengthDiff).Msg("measured length")

	// center in Y, staying above the workpiece
	err = m.MoveBy(0, -res.Length/2-tool/2, 0, true, false)
	if err != nil {
		return nil, err
	}

	return &res, m.WaitIdle()
}
