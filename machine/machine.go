package machine

import (
	"github.com/mastercactapus/gprobe/gcode"
	"github.com/rs/zerolog"
)

// Machine sequences motion and probe commands on top of an Adapter.
type Machine struct {
	Adapter

	opt *Options
	log zerolog.Logger
}

// Target holds absolute axis values for MoveTo. Nil axes are left unchanged.
type Target struct{ X, Y, Z *float64 }

func ptr(v float64) *float64 { return &v }

func NewMachine(a Adapter, opt *Options, log zerolog.Logger) *Machine {
	return &Machine{
		Adapter: a,
		opt:     opt,
		log:     log,
	}
}

// Options returns the run configuration the machine was created with.
func (m *Machine) Options() *Options { return m.opt }

func (m *Machine) run(b gcode.Block) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	return m.Send(b.String())
}

var (
	wordG0  = gcode.Word{W: 'G', Arg: 0}
	wordG90 = gcode.Word{W: 'G', Arg: 90}
	wordG91 = gcode.Word{W: 'G', Arg: 91}
)

func (m *Machine) lift(dz float64) error {
	return m.run(gcode.Block{wordG91, wordG0, {W: 'Z', Arg: dz}})
}

// MoveBy makes a relative rapid move, optionally lifting by the safe height
// first and lowering again after. Zero axes are omitted.
//
// The controller is always left in absolute mode.
func (m *Machine) MoveBy(dx, dy, dz float64, retract, plunge bool) error {
	if retract {
		err := m.lift(m.opt.SafeZ)
		if err != nil {
			return err
		}
	}

	move := gcode.Block{wordG91, wordG0}
	for _, w := range []gcode.Word{{W: 'X', Arg: dx}, {W: 'Y', Arg: dy}, {W: 'Z', Arg: dz}} {
		if w.Arg != 0 {
			move = append(move, w)
		}
	}
	if len(move) > 2 {
		err := m.run(move)
		if err != nil {
			return err
		}
	}

	if plunge {
		err := m.lift(-m.opt.SafeZ)
		if err != nil {
			return err
		}
	}

	return m.run(gcode.Block{wordG90})
}

// MoveTo makes an absolute rapid move in the work frame with the same
// retract/plunge envelope as MoveBy.
func (m *Machine) MoveTo(t Target, retract, plunge bool) error {
	if retract {
		err := m.lift(m.opt.SafeZ)
		if err != nil {
			return err
		}
	}

	move := gcode.Block{wordG90, wordG0}
	if t.X != nil {
		move = append(move, gcode.Word{W: 'X', Arg: *t.X})
	}
	if t.Y != nil {
		move = append(move, gcode.Word{W: 'Y', Arg: *t.Y})
	}
	if t.Z != nil {
		move = append(move, gcode.Word{W: 'Z', Arg: *t.Z})
	}
	if len(move) > 2 {
		err := m.run(move)
		if err != nil {
			return err
		}
	}

	if plunge {
		err := m.lift(-m.opt.SafeZ)
		if err != nil {
			return err
		}
	}

	return m.run(gcode.Block{wordG90})
}

// Retract lifts by the safe height.
func (m *Machine) Retract() error {
	return m.MoveBy(0, 0, 0, true, false)
}

// WaitIdle blocks until the controller motion queue is empty.
func (m *Machine) WaitIdle() error {
	return m.run(gcode.Block{{W: 'M', Arg: 400}})
}

// Probe moves along a single axis until contact. The sign of distance
// is the probe direction.
func (m *Machine) Probe(axis byte, distance float64) (*ProbeResult, error) {
	res, err := m.ProbeAxis(axis, distance, m.opt.FeedRate)
	if err != nil {
		return nil, err
	}
	m.log.Debug().Str("axis", string(axis)).Float64("distance", distance).Stringer("at", res.Point).Msg("probe contact")
	return res, nil
}
