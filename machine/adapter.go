package machine

import "regexp"

// An Adapter is the protocol client a Machine drives.
//
// Every method is one complete exchange with the controller.
type Adapter interface {
	// Send writes a command and waits for its acknowledgement.
	Send(cmd string) error
	// SendExpect writes a command, reads one line that must match expect,
	// then waits for the acknowledgement. It returns the matched line.
	SendExpect(cmd string, expect *regexp.Regexp) (string, error)

	Position(Frame) (*Position, error)
	ProbeAxis(axis byte, distance, feed float64) (*ProbeResult, error)
	Angle() (float64, error)
	Steps() (*StepsPerUnit, error)

	// Drain discards any stale controller output.
	Drain() error
}
