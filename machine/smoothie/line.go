package smoothie

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mastercactapus/gprobe/machine"
)

// LineChannel is a duplex, line oriented stream to the controller.
type LineChannel interface {
	// WriteLine writes text followed by a newline, unbuffered.
	WriteLine(text string) error

	// WriteByte writes a single realtime byte (e.g. `?`) with no terminator.
	WriteByte(b byte) error

	// ReadLine blocks for the next non-empty line, without its terminator.
	ReadLine() (string, error)
}

// StreamChannel is a LineChannel over any io.ReadWriter, such as a serial
// port or a stdin/stdout pipe.
type StreamChannel struct {
	w       io.Writer
	timeout time.Duration

	wMx sync.Mutex

	lines   chan string
	readErr error
}

var _ LineChannel = &StreamChannel{}

// NewLineChannel starts reading lines from rw. If timeout is non-zero, ReadLine
// fails with machine.ErrChannelTimeout when no line arrives in time.
func NewLineChannel(rw io.ReadWriter, timeout time.Duration) *StreamChannel {
	return NewStreamChannel(rw, rw, timeout)
}

// NewStreamChannel is like NewLineChannel with separate read and write sides.
func NewStreamChannel(r io.Reader, w io.Writer, timeout time.Duration) *StreamChannel {
	c := &StreamChannel{
		w:       w,
		timeout: timeout,
		lines:   make(chan string, 64),
	}
	go c.readLoop(bufio.NewReader(r))
	return c
}

func (c *StreamChannel) readLoop(br *bufio.Reader) {
	defer close(c.lines)
	for {
		s, err := br.ReadString('\n')
		s = strings.TrimRight(s, "\r\n")
		if s != "" {
			c.lines <- s
		}
		if err != nil {
			if err != io.EOF {
				c.readErr = err
			}
			return
		}
	}
}

func (c *StreamChannel) write(p []byte) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	_, err := c.w.Write(p)
	return err
}

func (c *StreamChannel) WriteLine(text string) error {
	return c.write([]byte(text + "\n"))
}

func (c *StreamChannel) WriteByte(b byte) error {
	return c.write([]byte{b})
}

func (c *StreamChannel) ReadLine() (string, error) {
	var deadline <-chan time.Time
	if c.timeout > 0 {
		t := time.NewTimer(c.timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case s, ok := <-c.lines:
		if ok {
			return s, nil
		}
		if c.readErr != nil {
			return "", fmt.Errorf("%w: %v", machine.ErrChannelClosed, c.readErr)
		}
		return "", machine.ErrChannelClosed
	case <-deadline:
		return "", fmt.Errorf("%w: no response in %s", machine.ErrChannelTimeout, c.timeout)
	}
}
