package smoothie

import (
	"github.com/mastercactapus/gprobe/machine"
)

// scriptChannel replays canned controller lines and records everything written.
type scriptChannel struct {
	replies []string
	written []string
}

func (s *scriptChannel) WriteLine(text string) error {
	s.written = append(s.written, text)
	return nil
}
func (s *scriptChannel) WriteByte(b byte) error {
	s.written = append(s.written, string(b))
	return nil
}
func (s *scriptChannel) ReadLine() (string, error) {
	if len(s.replies) == 0 {
		return "", machine.ErrChannelClosed
	}
	l := s.replies[0]
	s.replies = s.replies[1:]
	return l, nil
}
