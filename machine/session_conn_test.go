package machine_test

import (
	"testing"

	"github.com/mastercactapus/gprobe/machine"
	"github.com/mastercactapus/gprobe/machine/smoothie"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// replayChannel answers reads from a fixed list and records writes.
type replayChannel struct {
	replies []string
	written []string
}

func (r *replayChannel) WriteLine(text string) error {
	r.written = append(r.written, text)
	return nil
}
func (r *replayChannel) WriteByte(b byte) error {
	r.written = append(r.written, string(b))
	return nil
}
func (r *replayChannel) ReadLine() (string, error) {
	if len(r.replies) == 0 {
		return "", machine.ErrChannelClosed
	}
	l := r.replies[0]
	r.replies = r.replies[1:]
	return l, nil
}

func TestSession_AlarmStopsCommands(t *testing.T) {
	ch := &replayChannel{replies: []string{"ok", "ok", "[PRB:1,2,3:1]", "ALARM: Hard limit", "ok", "ok"}}
	opt := machine.DefaultOptions()
	m := machine.NewMachine(smoothie.NewConn(ch, false, zerolog.Nop()), &opt, zerolog.Nop())

	res, err := machine.NewSession(m, zerolog.Nop()).Run(machine.JobSize)
	assert.ErrorIs(t, err, machine.ErrControllerAlarm)
	assert.Nil(t, res)

	// nothing after the alarm, not even the protection release
	assert.Equal(t, []string{"", "M120", "G38.3 X20 F1200"}, ch.written)
	assert.NotContains(t, ch.written, "M121")
}
