package sim

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/gcode"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/mastercactapus/gprobe/machine/smoothie"
	"github.com/rs/zerolog"
)

// DefaultAnglePerMM is the actuator angle change per mm of Z on a correctly
// scaled rotary delta.
const DefaultAnglePerMM = 27.917376257801326

// g30Reach is how far G30 will search downward.
const g30Reach = 100

// Config describes the simulated machine and what sits on its bed.
type Config struct {
	// Start is the initial machine position of the tool center.
	Start coord.Point

	// WCO is the work coordinate offset; WPos = MPos - WCO.
	WCO coord.Point

	ToolDiameter float64
	Workpieces   []Workpiece

	Steps machine.StepsPerUnit

	// AnglePerMM scales the reported actuator angle with Z.
	AnglePerMM float64

	// Banner is sent before anything else, as on connect.
	Banner string
}

// Controller is an in-process Smoothieware controller. It answers
// commands written to it with the replies a real controller would send.
type Controller struct {
	cfg Config
	log zerolog.Logger

	mx      sync.Mutex
	vm      *gcode.VM
	steps   machine.StepsPerUnit
	replies []string

	protect int
	nudges  []int
	history []string
}

var _ smoothie.LineChannel = &Controller{}

func New(cfg Config, log zerolog.Logger) *Controller {
	if cfg.AnglePerMM == 0 {
		cfg.AnglePerMM = DefaultAnglePerMM
	}
	if cfg.Steps == (machine.StepsPerUnit{}) {
		cfg.Steps = machine.StepsPerUnit{X: 80, Y: 80, Z: 1600}
	}
	c := &Controller{
		cfg:   cfg,
		log:   log,
		vm:    gcode.NewVM(),
		steps: cfg.Steps,
	}
	c.vm.SetMPos(cfg.Start)
	c.vm.SetWCO(cfg.WCO)
	if cfg.Banner != "" {
		c.replies = append(c.replies, cfg.Banner)
	}
	return c
}

// MPos returns the current machine position.
func (c *Controller) MPos() coord.Point {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.vm.MPos()
}

// Protected reports whether probe protection (M120) is active.
func (c *Controller) Protected() bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.protect > 0
}

// Nudges returns the raw actuator step moves received.
func (c *Controller) Nudges() []int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]int(nil), c.nudges...)
}

// History returns every line written to the controller.
func (c *Controller) History() []string {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]string(nil), c.history...)
}

func (c *Controller) reply(format string, args ...interface{}) {
	c.replies = append(c.replies, fmt.Sprintf(format, args...))
}

func (c *Controller) WriteByte(b byte) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.history = append(c.history, string(b))
	if b != '?' {
		return nil
	}
	m, w := c.vm.MPos(), c.vm.WPos()
	c.reply("<Idle|MPos:%.4f,%.4f,%.4f|WPos:%.4f,%.4f,%.4f>", m.X, m.Y, m.Z, w.X, w.Y, w.Z)
	return nil
}

func (c *Controller) ReadLine() (string, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if len(c.replies) == 0 {
		return "", fmt.Errorf("%w: simulator has nothing to send", machine.ErrChannelTimeout)
	}
	line := c.replies[0]
	c.replies = c.replies[1:]
	return line, nil
}

func (c *Controller) WriteLine(text string) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	text = strings.TrimSpace(text)
	c.history = append(c.history, text)
	if text == "" {
		c.reply("ok")
		return nil
	}

	b, err := gcode.ParseLine(text)
	if err == nil && b == nil {
		c.reply("ok")
		return nil
	}
	if err == nil {
		err = c.exec(b)
	}
	if err != nil {
		c.log.Debug().Err(err).Str("line", text).Msg("sim rejected command")
		c.reply("error:%s", err.Error())
	}
	return nil
}

func (c *Controller) exec(b gcode.Block) error {
	switch {
	case b.Has(gcode.Word{W: 'G', Arg: 38.2}), b.Has(gcode.Word{W: 'G', Arg: 38.3}):
		return c.probe(b)
	case b.Has(gcode.Word{W: 'G', Arg: 30}):
		return c.probeReference(b)
	case b.Has(gcode.Word{W: 'M', Arg: 92}):
		return c.setSteps(b)
	case b.Has(gcode.Word{W: 'M', Arg: 114.3}):
		a := -c.vm.MPos().Z * c.cfg.AnglePerMM
		c.reply("ok APOS: X:%.4f Y:%.4f Z:%.4f", a, a, a)
		return nil
	case b.Has(gcode.Word{W: 'M', Arg: 120}):
		c.protect++
	case b.Has(gcode.Word{W: 'M', Arg: 121}):
		if c.protect > 0 {
			c.protect--
		}
	case b.Has(gcode.Word{W: 'M', Arg: 400}):
	case b.Has(gcode.Word{W: 'M', Arg: 1910.1}):
		_, y := b.Arg('Y')
		c.nudges = append(c.nudges, int(y))
	default:
		err := c.vm.Run(b)
		if err != nil {
			return err
		}
	}
	c.reply("ok")
	return nil
}

// contact finds the nearest workpiece along axis within distance.
func (c *Controller) contact(from coord.Point, axis byte, distance float64) (float64, bool) {
	dir := math.Copysign(1, distance)
	r := c.cfg.ToolDiameter / 2
	best, hit := math.Abs(distance), false
	for _, w := range c.cfg.Workpieces {
		t, ok := w.Contact(from, axis, dir, r)
		if ok && t >= 0 && t <= best {
			best, hit = t, true
		}
	}
	return best, hit
}

func (c *Controller) probe(b gcode.Block) error {
	var axis byte
	var distance float64
	for _, w := range b.Args() {
		if !w.IsAxis() {
			continue
		}
		if axis != 0 {
			return fmt.Errorf("probe along more than one axis")
		}
		axis, distance = w.W, w.Arg
	}
	if axis == 0 || distance == 0 {
		return fmt.Errorf("probe without distance")
	}

	from := c.vm.MPos()
	travel, hit := c.contact(from, axis, distance)
	end := from.WithAxis(axis, from.Axis(axis)+math.Copysign(travel, distance))
	c.vm.SetMPos(end)

	flag := 0
	if hit {
		flag = 1
	}
	c.log.Debug().Str("axis", string(axis)).Float64("travel", travel).Bool("hit", hit).Msg("sim probe")
	c.reply("[PRB:%.4f,%.4f,%.4f:%d]", end.X, end.Y, end.Z, flag)
	if !hit && b.Has(gcode.Word{W: 'G', Arg: 38.2}) {
		return fmt.Errorf("Alarm: probe fail")
	}
	c.reply("ok")
	return nil
}

// probeReference searches down for the bed, replying with the distance
// travelled and its step count. With R1 the tool returns to where it started.
func (c *Controller) probeReference(b gcode.Block) error {
	from := c.vm.MPos()
	travel, hit := c.contact(from, 'Z', -g30Reach)
	if !hit {
		c.reply("ZProbe not triggered")
		c.reply("ok")
		return nil
	}
	c.reply("Z:%.4f C:%d", travel, int(math.Round(travel*c.steps.Z)))

	_, r := b.Arg('R')
	if r == 0 {
		c.vm.SetMPos(from.WithAxis('Z', from.Z-travel))
	}
	c.reply("ok")
	return nil
}

func (c *Controller) setSteps(b gcode.Block) error {
	args := b.Args()
	if len(args) == 0 {
		c.reply("X:%.5f Y:%.5f Z:%.5f ", c.steps.X, c.steps.Y, c.steps.Z)
		c.reply("ok")
		return nil
	}
	p := coord.Point{X: c.steps.X, Y: c.steps.Y, Z: c.steps.Z}
	for _, w := range args {
		if w.IsAxis() {
			p = p.WithAxis(w.W, w.Arg)
		}
	}
	c.steps = machine.StepsPerUnit{X: p.X, Y: p.Y, Z: p.Z}
	c.reply("ok")
	return nil
}
