package smoothie

import (
	"regexp"
	"testing"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(dryRun bool, replies ...string) (*Conn, *scriptChannel) {
	ch := &scriptChannel{replies: replies}
	return NewConn(ch, dryRun, zerolog.Nop()), ch
}

func TestConn_Send(t *testing.T) {
	c, ch := newTestConn(false, "ok", "Grbl 1.1f")

	require.NoError(t, c.Send("G90"))
	assert.Equal(t, []string{"G90"}, ch.written)

	err := c.Send("G91")
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestConn_Send_DryRun(t *testing.T) {
	c, ch := newTestConn(true)

	require.NoError(t, c.Send("M120"))
	require.NoError(t, c.Send("M121"))
	require.NoError(t, c.Drain())
	assert.Equal(t, []string{"M120", "M121", ""}, ch.written)
}

func TestConn_Alarm(t *testing.T) {
	c, ch := newTestConn(false, "ALARM: Hard limit", "ok")

	err := c.Send("G0 X100")
	assert.ErrorIs(t, err, machine.ErrControllerAlarm)
	assert.ErrorIs(t, c.Alarm(), machine.ErrControllerAlarm)

	// nothing else is written once an alarm was seen
	err = c.Send("M121")
	assert.ErrorIs(t, err, machine.ErrControllerAlarm)
	_, err = c.Position(machine.WorkFrame)
	assert.ErrorIs(t, err, machine.ErrControllerAlarm)
	assert.Equal(t, []string{"G0 X100"}, ch.written)
}

func TestConn_ChannelClosed(t *testing.T) {
	c, _ := newTestConn(false)
	assert.ErrorIs(t, c.Send("G90"), machine.ErrChannelClosed)
}

func TestConn_SendExpect(t *testing.T) {
	rx := regexp.MustCompile(`Z:`)

	c, ch := newTestConn(false, "Z:12.3400 C:123", "ok")
	line, err := c.SendExpect("G30", rx)
	require.NoError(t, err)
	assert.Equal(t, "Z:12.3400 C:123", line)
	assert.Equal(t, []string{"G30"}, ch.written)

	c, _ = newTestConn(false, "ok")
	_, err = c.SendExpect("G30", rx)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation, "ack is not the expected line")

	c, _ = newTestConn(false, "Z:1 C:1", "Z:2 C:2")
	_, err = c.SendExpect("G30", rx)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation, "missing ack")

	c, ch = newTestConn(true)
	_, err = c.SendExpect("G30", rx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"G30"}, ch.written)
}

func TestConn_Position(t *testing.T) {
	const status = "<Idle|MPos:10,20,30|WPos:1,2,3>"
	c, ch := newTestConn(false, status, status)

	wp, err := c.Position(machine.WorkFrame)
	require.NoError(t, err)
	assert.Equal(t, coord.Point{X: 1, Y: 2, Z: 3}, wp.Point)

	mp, err := c.Position(machine.MachineFrame)
	require.NoError(t, err)
	assert.Equal(t, coord.Point{X: 10, Y: 20, Z: 30}, mp.Point)

	assert.Equal(t, []string{"?", "?"}, ch.written)
}

func TestConn_ProbeAxis(t *testing.T) {
	c, ch := newTestConn(false, "[PRB:1.5,2,3:1]", "ok")

	res, err := c.ProbeAxis('X', 20, 1200)
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.Equal(t, coord.Point{X: 1.5, Y: 2, Z: 3}, res.Point)
	assert.Equal(t, []string{"G38.3 X20 F1200"}, ch.written)

	c, _ = newTestConn(false, "[PRB:1.5,2,3:0]", "ok")
	_, err = c.ProbeAxis('Z', -20, 0)
	assert.ErrorIs(t, err, machine.ErrProbeFailed)

	c, _ = newTestConn(false, "ok")
	_, err = c.ProbeAxis('Y', -5, 0)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)

	c, _ = newTestConn(false, "[PRB:0,0,0:1]", "[PRB:0,0,0:1]")
	_, err = c.ProbeAxis('Y', -5, 0)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation, "probe report must be followed by ok")

	c, _ = newTestConn(false, "[PRB:0,0,0:1]", "!!")
	_, err = c.ProbeAxis('Y', -5, 0)
	assert.ErrorIs(t, err, machine.ErrControllerAlarm)
}

func TestConn_Angle(t *testing.T) {
	c, ch := newTestConn(false, "ok APOS: X:-30.5 Y:-30.5 Z:-30.5")
	a, err := c.Angle()
	require.NoError(t, err)
	assert.Equal(t, -30.5, a)
	assert.Equal(t, []string{"M114.3"}, ch.written)

	c, ch = newTestConn(false, "APOS: X:1 Y:1 Z:1", "ok", "ok")
	a, err = c.Angle()
	require.NoError(t, err)
	assert.Equal(t, 1.0, a)
	assert.Len(t, ch.replies, 1, "separate ack consumed")

	c, _ = newTestConn(false, "ok")
	_, err = c.Angle()
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestConn_Steps(t *testing.T) {
	c, ch := newTestConn(false, "X:80.00000 Y:1600.00000 Z:400.00000 ", "ok")
	s, err := c.Steps()
	require.NoError(t, err)
	assert.Equal(t, machine.StepsPerUnit{X: 80, Y: 1600, Z: 400}, *s)
	assert.Equal(t, []string{"M92"}, ch.written)
	assert.Empty(t, ch.replies)

	c, _ = newTestConn(false, "ok X:1 Y:2 Z:3")
	s, err = c.Steps()
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Y)

	c, _ = newTestConn(false, "X:1 Y:2 Z:3", "huh")
	_, err = c.Steps()
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestConn_Drain(t *testing.T) {
	c, ch := newTestConn(false, "<Idle|MPos:0,0,0|WPos:0,0,0>", "Smoothie", "ok", "ok")
	require.NoError(t, c.Drain())
	assert.Equal(t, []string{""}, ch.written)
	assert.Equal(t, []string{"ok"}, ch.replies)

	c, _ = newTestConn(false, "garbage", "!! halted")
	assert.ErrorIs(t, c.Drain(), machine.ErrControllerAlarm)
}

func TestConn_ProbeAxis_DryRun(t *testing.T) {
	c, ch := newTestConn(true, "[PRB:1,2,3:1]", "ok")

	res, err := c.ProbeAxis('X', 20, 1200)
	require.NoError(t, err)
	assert.Equal(t, coord.Point{X: 1, Y: 2, Z: 3}, res.Point)
	assert.Equal(t, []string{"G38.3 X20 F1200"}, ch.written)
	assert.Equal(t, []string{"ok"}, ch.replies, "ack is left unread")

	// without a report the dry run cannot continue
	c, _ = newTestConn(true)
	_, err = c.ProbeAxis('X', 20, 1200)
	assert.ErrorIs(t, err, machine.ErrChannelClosed)
}

func TestConn_QueryErrorsNameCommand(t *testing.T) {
	c, _ := newTestConn(false, "ok")
	_, err := c.Angle()
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
	assert.ErrorContains(t, err, "M114.3: ")

	c, _ = newTestConn(false, "APOS: X:1 Y:1 Z:1")
	_, err = c.Angle()
	assert.ErrorIs(t, err, machine.ErrChannelClosed)
	assert.ErrorContains(t, err, "M114.3: ")

	c, _ = newTestConn(false, "ok")
	_, err = c.Steps()
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
	assert.ErrorContains(t, err, "M92: ")

	c, _ = newTestConn(false)
	_, err = c.Steps()
	assert.ErrorIs(t, err, machine.ErrChannelClosed)
	assert.ErrorContains(t, err, "M92: ")
}
