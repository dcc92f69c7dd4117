package smoothie

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mastercactapus/gprobe/gcode"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/rs/zerolog"
)

// Conn is a strictly half-duplex connection to a Smoothieware controller.
//
// Replies are untagged and ordered, so each exchange (write, optional
// expected line, acknowledgement) holds the lock until its last reply is read.
type Conn struct {
	ch     LineChannel
	dryRun bool
	log    zerolog.Logger

	mx    sync.Mutex
	alarm error
}

var _ machine.Adapter = &Conn{}

// NewConn creates a Conn. In dry-run mode commands are written but
// acknowledgement and expectation reads are skipped.
func NewConn(ch LineChannel, dryRun bool, log zerolog.Logger) *Conn {
	return &Conn{
		ch:     ch,
		dryRun: dryRun,
		log:    log,
	}
}

var (
	cmdSteps = gcode.Block{{W: 'M', Arg: 92}}.String()
	cmdAngle = gcode.Block{{W: 'M', Arg: 114.3}}.String()
)

// Alarm returns the alarm that halted the connection, if any.
func (c *Conn) Alarm() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.alarm
}

func (c *Conn) writeLine(cmd string) error {
	if c.alarm != nil {
		return c.alarm
	}
	c.log.Debug().Str("line", cmd).Msg("send")
	return c.ch.WriteLine(cmd)
}

func (c *Conn) readLine() (string, error) {
	if c.alarm != nil {
		return "", c.alarm
	}
	line, err := c.ch.ReadLine()
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("line", line).Msg("recv")
	if isAlarm(line) {
		c.alarm = fmt.Errorf("%w: %s", machine.ErrControllerAlarm, line)
		c.log.Error().Str("line", line).Msg("controller alarm")
		return "", c.alarm
	}
	return line, nil
}

func (c *Conn) awaitAck() error {
	if c.dryRun {
		return nil
	}
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "ok") {
		return violation("ok", line)
	}
	return nil
}

func (c *Conn) Send(cmd string) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	err := c.writeLine(cmd)
	if err != nil {
		return err
	}
	err = c.awaitAck()
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (c *Conn) SendExpect(cmd string, expect *regexp.Regexp) (string, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	err := c.writeLine(cmd)
	if err != nil {
		return "", err
	}
	if c.dryRun {
		return "", nil
	}
	line, err := c.readLine()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	if !expect.MatchString(line) {
		return "", fmt.Errorf("%s: %w", cmd, violation(expect.String(), line))
	}
	err = c.awaitAck()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return line, nil
}

// Position requests a status report and returns the position in frame.
func (c *Conn) Position(frame machine.Frame) (*machine.Position, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.alarm != nil {
		return nil, c.alarm
	}
	c.log.Debug().Str("line", "?").Msg("send")
	err := c.ch.WriteByte('?')
	if err != nil {
		return nil, err
	}
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return parseStatus(line, frame)
}

// ProbeAxis runs a G38.3 probe along one axis and returns the contact point.
// It fails with machine.ErrProbeFailed if the move ended without contact.
//
// The `[PRB:` report is read even in dry-run; only its `ok` is skipped.
func (c *Conn) ProbeAxis(axis byte, distance, feed float64) (*machine.ProbeResult, error) {
	b := gcode.Block{{W: 'G', Arg: 38.3}, {W: axis, Arg: distance}}
	if feed > 0 {
		b = append(b, gcode.Word{W: 'F', Arg: feed})
	}
	err := b.Validate()
	if err != nil {
		return nil, err
	}
	cmd := b.String()

	c.mx.Lock()
	defer c.mx.Unlock()

	err = c.writeLine(cmd)
	if err != nil {
		return nil, err
	}
	line, err := c.readLine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	res, err := parseProbe(line)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	err = c.awaitAck()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	if !res.Triggered {
		return nil, fmt.Errorf("%w: %s", machine.ErrProbeFailed, cmd)
	}
	return res, nil
}

// Angle returns the X actuator angle from an `ok APOS:` report.
func (c *Conn) Angle() (float64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	err := c.writeLine(cmdAngle)
	if err != nil {
		return 0, err
	}
	line, err := c.readLine()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmdAngle, err)
	}
	a, err := parseAngle(line)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmdAngle, err)
	}
	if !strings.HasPrefix(line, "ok") {
		// report and ack on separate lines
		err = c.awaitAck()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", cmdAngle, err)
		}
	}
	return a, nil
}

// Steps returns the configured actuator steps per unit.
func (c *Conn) Steps() (*machine.StepsPerUnit, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	err := c.writeLine(cmdSteps)
	if err != nil {
		return nil, err
	}
	line, err := c.readLine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmdSteps, err)
	}
	fused := strings.HasPrefix(line, "ok")
	s, err := parseSteps(strings.TrimPrefix(line, "ok"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmdSteps, err)
	}
	if !fused {
		err = c.awaitAck()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmdSteps, err)
		}
	}
	return s, nil
}

// Drain sends a blank line and discards everything up to its `ok`,
// flushing output queued before this connection attached.
func (c *Conn) Drain() error {
	c.mx.Lock()
	defer c.mx.Unlock()

	err := c.writeLine("")
	if err != nil {
		return err
	}
	if c.dryRun {
		return nil
	}
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "ok") {
			return nil
		}
		c.log.Debug().Str("line", line).Msg("discarded")
	}
}
