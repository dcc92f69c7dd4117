package machine

import "errors"

var (
	// ErrChannelClosed is returned when the controller stream ends.
	ErrChannelClosed = errors.New("channel closed")

	// ErrChannelTimeout is returned when no line arrives before the read deadline.
	ErrChannelTimeout = errors.New("channel timeout")

	// ErrProtocolViolation is returned when a line does not match what
	// the current exchange expects.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrProbeFailed is returned when a probe move completes without contact.
	ErrProbeFailed = errors.New("probe failed")

	// ErrControllerAlarm is returned when the controller reports an alarm, error or halt.
	ErrControllerAlarm = errors.New("controller alarm")

	// ErrUnsupportedJob is returned by Session.Run for an unknown job name.
	ErrUnsupportedJob = errors.New("unsupported job")
)
