package machine

// Options is the immutable configuration for a single run.
type Options struct {
	Job string

	// Width and Length are the expected workpiece dimensions.
	Width, Length float64

	// Diameter is the approximate hole diameter, or the spiral scan diameter.
	Diameter float64

	ToolDiameter float64

	// SafeZ is the relative lift used when travelling over the workpiece.
	SafeZ float64

	FeedRate float64

	// Points is the number of spiral scan steps.
	Points int

	// DryRun skips every acknowledgement and expectation read. Data lines
	// (probe, status, steps and angle reports) are still read, so a dry run
	// of a probing job needs a controller that answers them; otherwise it
	// stops at the first probe.
	DryRun bool

	// AutoAdjust lets the align job correct actuator skew itself.
	AutoAdjust bool

	Verbose bool
}

// DefaultOptions match the probe script defaults: a 3"x2" block, 4mm probe tip.
func DefaultOptions() Options {
	return Options{
		Job:          JobSize,
		Width:        3 * 25.4,
		Length:       2 * 25.4,
		Diameter:     50,
		ToolDiameter: 4,
		SafeZ:        10,
		FeedRate:     1200,
		Points:       50,
	}
}
