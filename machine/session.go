package machine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mastercactapus/gprobe/gcode"
	"github.com/rs/zerolog"
)

// Job names accepted by Session.Run.
const (
	JobSize   = "size"
	JobCenter = "center"
	JobSpiral = "spiral"
	JobAlign  = "align"
	JobAngle  = "angle"
	JobPos    = "pos"
)

// Jobs lists every supported job.
var Jobs = []string{JobSize, JobCenter, JobSpiral, JobAlign, JobAngle, JobPos}

var (
	protectOn  = gcode.Block{{W: 'M', Arg: 120}}
	protectOff = gcode.Block{{W: 'M', Arg: 121}}
)

// Session runs exactly one job against a freshly attached controller.
type Session struct {
	ID string

	m   *Machine
	log zerolog.Logger
}

func NewSession(m *Machine, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:  id,
		m:   m,
		log: log.With().Str("session", id).Logger(),
	}
}

type routine func() (fmt.Stringer, error)

func wrap[T fmt.Stringer](fn func() (T, error)) routine {
	return func() (fmt.Stringer, error) {
		res, err := fn()
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

// lookup returns the routine for job and whether it runs with probe protection.
func (s *Session) lookup(job string) (routine, bool, bool) {
	switch job {
	case JobSize:
		return wrap(s.m.ProbeSize), true, true
	case JobCenter:
		return wrap(s.m.ProbeCenter), true, true
	case JobSpiral:
		return wrap(s.m.ProbeSpiral), true, true
	case JobAlign:
		return wrap(s.m.ProbeAlign), true, true
	case JobAngle:
		return wrap(s.m.ProbeAngle), true, true
	case JobPos:
		return wrap(s.m.ReadPos), false, true
	}
	return nil, false, false
}

// Run drains stale controller output and runs job. Probing jobs are wrapped
// in M120/M121; M121 is sent on every exit path once M120 succeeded.
func (s *Session) Run(job string) (res fmt.Stringer, err error) {
	fn, protect, ok := s.lookup(job)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedJob, job)
	}

	s.log.Info().Str("job", job).Msg("starting")
	err = s.m.Drain()
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}

	if protect {
		err = s.m.run(protectOn)
		if err != nil {
			return nil, fmt.Errorf("enable probe protection: %w", err)
		}
		defer func() {
			offErr := s.m.run(protectOff)
			if offErr == nil {
				return
			}
			s.log.Error().Err(offErr).Msg("disable probe protection")
			if err == nil {
				err = fmt.Errorf("disable probe protection: %w", offErr)
				res = nil
			}
		}()
	}

	res, err = fn()
	if err != nil {
		s.log.Error().Err(err).Str("job", job).Msg("failed")
		return nil, fmt.Errorf("%s: %w", job, err)
	}
	s.log.Info().Str("job", job).Msg("complete")
	return res, nil
}
