package smoothie

import (
	"testing"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	res, err := parseProbe("[PRB:1.000,80.137,-10.5:1]")
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.Equal(t, coord.Point{X: 1, Y: 80.137, Z: -10.5}, res.Point)

	res, err = parseProbe("[PRB:1.000,80.137,10.000:0]")
	require.NoError(t, err)
	assert.False(t, res.Triggered)

	res, err = parseProbe("[PRB:0,0,0:10]")
	require.NoError(t, err)
	assert.True(t, res.Triggered, "only the leading flag char matters")

	_, err = parseProbe("ok")
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
	_, err = parseProbe("[PRB:1,2:1]")
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestParseStatus(t *testing.T) {
	const line = "<Idle|MPos:3.3637,2.1275,0.0000|WPos:-0.0175,2.1275,1.5000|F:1800.0,100.0>"

	wp, err := parseStatus(line, machine.WorkFrame)
	require.NoError(t, err)
	assert.Equal(t, machine.WorkFrame, wp.Frame)
	assert.Equal(t, coord.Point{X: -0.0175, Y: 2.1275, Z: 1.5}, wp.Point)

	mp, err := parseStatus(line, machine.MachineFrame)
	require.NoError(t, err)
	assert.Equal(t, coord.Point{X: 3.3637, Y: 2.1275, Z: 0}, mp.Point)

	// extra rotary axis
	mp, err = parseStatus("<Run|MPos:1,2,3,4.5|WPos:1,2,3>", machine.MachineFrame)
	require.NoError(t, err)
	assert.Equal(t, coord.Point{X: 1, Y: 2, Z: 3}, mp.Point)

	_, err = parseStatus("<Idle|MPos:1,2,3>", machine.WorkFrame)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation, "must not fall back to MPos")

	_, err = parseStatus("ok", machine.WorkFrame)
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestParseSteps(t *testing.T) {
	s, err := parseSteps("X:80.00000 Y:80.00000 Z:1600.00000 ")
	require.NoError(t, err)
	assert.Equal(t, machine.StepsPerUnit{X: 80, Y: 80, Z: 1600}, *s)

	_, err = parseSteps("X:80 Y:80")
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestParseAngle(t *testing.T) {
	a, err := parseAngle("ok APOS: X:-12.5 Y:3 Z:4")
	require.NoError(t, err)
	assert.Equal(t, -12.5, a)

	a, err = parseAngle("APOS: X:1 Y:2 Z:3")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a)

	_, err = parseAngle("ok MCS: X:1 Y:2 Z:3")
	assert.ErrorIs(t, err, machine.ErrProtocolViolation)
}

func TestIsAlarm(t *testing.T) {
	for _, l := range []string{
		"ALARM: Hard limit",
		"error:Alarm lock",
		"!!",
		"HALTED, M999 or $X to exit HALT state",
		"Error: unknown command",
		"<Alarm|MPos:0,0,0|WPos:0,0,0>",
	} {
		assert.True(t, isAlarm(l), l)
	}
	for _, l := range []string{"ok", "[PRB:1,2,3:1]", "<Idle|MPos:0,0,0|WPos:0,0,0>", "X:80 Y:80 Z:80"} {
		assert.False(t, isAlarm(l), l)
	}
}
