package machine

import (
	"errors"
	"testing"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(f *fakeAdapter) *Session {
	return NewSession(newTestMachine(f, nil), zerolog.Nop())
}

func TestSession_Run(t *testing.T) {
	f := &fakeAdapter{probes: []coord.Point{{X: 0}, {X: 80.2}, {Y: 0}, {Y: 54.8}}}
	s := newTestSession(f)
	assert.NotEmpty(t, s.ID)

	res, err := s.Run(JobSize)
	require.NoError(t, err)
	assert.IsType(t, &SizeResult{}, res)

	assert.Equal(t, []string{"drain", "M120"}, f.log[:2])
	assert.Equal(t, "M121", f.log[len(f.log)-1])
	assert.Equal(t, 1, f.count("M121"))
}

func TestSession_ProbeFailureReleases(t *testing.T) {
	f := &fakeAdapter{probes: []coord.Point{{X: 0}}}
	s := newTestSession(f)

	res, err := s.Run(JobSize)
	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.Nil(t, res)
	assert.Equal(t, 1, f.count("M121"))
	assert.Equal(t, "M121", f.log[len(f.log)-1])
}

func TestSession_Unsupported(t *testing.T) {
	f := &fakeAdapter{}
	s := newTestSession(f)

	_, err := s.Run("engrave")
	assert.ErrorIs(t, err, ErrUnsupportedJob)
	assert.Empty(t, f.log, "channel untouched")
}

func TestSession_ProtectFails(t *testing.T) {
	f := &fakeAdapter{failOn: map[string]error{"M120": ErrProtocolViolation}}
	s := newTestSession(f)

	_, err := s.Run(JobCenter)
	assert.ErrorIs(t, err, ErrProtocolViolation)
	assert.Zero(t, f.count("M121"), "nothing to release")
	assert.Equal(t, []string{"drain", "M120"}, f.log)
}

func TestSession_ReleaseError(t *testing.T) {
	f := &fakeAdapter{
		positions: []coord.Point{{}, {}},
		probes:    []coord.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}},
		failOn:    map[string]error{"M121": ErrChannelTimeout},
	}
	s := newTestSession(f)

	res, err := s.Run(JobCenter)
	assert.ErrorIs(t, err, ErrChannelTimeout)
	assert.Nil(t, res)
}

func TestSession_RoutineErrorWins(t *testing.T) {
	f := &fakeAdapter{failOn: map[string]error{"M121": ErrChannelTimeout}}
	s := newTestSession(f)

	_, err := s.Run(JobSize)
	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.False(t, errors.Is(err, ErrChannelTimeout))
}

func TestSession_DrainFails(t *testing.T) {
	f := &fakeAdapter{failOn: map[string]error{"drain": ErrControllerAlarm}}
	s := newTestSession(f)

	_, err := s.Run(JobPos)
	assert.ErrorIs(t, err, ErrControllerAlarm)
	assert.Equal(t, []string{"drain"}, f.log)
}

func TestSession_PosUnprotected(t *testing.T) {
	f := &fakeAdapter{positions: []coord.Point{{X: 1}, {X: 2}}}
	s := newTestSession(f)

	res, err := s.Run(JobPos)
	require.NoError(t, err)
	assert.Equal(t, []string{"drain", "?WPos", "?MPos"}, f.log)
	assert.Contains(t, res.String(), "MPOS x2")
}
