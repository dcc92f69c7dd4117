package gcode

import (
	"errors"

	"github.com/mastercactapus/gprobe/coord"
)

// VM will track machine position and modal state while interpreting
// motion blocks. Non-motion commands are left to the caller.
type VM struct {
	pos coord.Point
	wco coord.Point

	modal [256]float64

	feed float64
}

// NewVM constructs a new VM with default state.
func NewVM() *VM {
	vm := &VM{}

	// Smoothieware/grbl power-on defaults
	vm.modal[ModalGroupMotion] = 0
	vm.modal[ModalGroupCoordinateSystem] = 54
	vm.modal[ModalGroupPlaneSelection] = 17
	vm.modal[ModalGroupDistanceMode] = 90
	vm.modal[ModalGroupArcDistanceMode] = 91.1
	vm.modal[ModalGroupFeedRateMode] = 94
	vm.modal[ModalGroupUnits] = 21
	vm.modal[ModalGroupCutterCompensationMode] = 40
	vm.modal[ModalGroupToolLength] = 49
	vm.modal[ModalGroupStopping] = 0
	vm.modal[ModalGroupSpindle] = 5
	vm.modal[ModalGroupCoolant] = 9

	return vm
}

func (vm VM) Inches() bool         { return vm.modal[ModalGroupUnits] == 20 }
func (vm VM) RelativeMotion() bool { return vm.modal[ModalGroupDistanceMode] == 91 }
func (vm VM) Feed() float64        { return vm.feed }

func (vm VM) WPos() coord.Point {
	return vm.pos.Sub(vm.wco)
}
func (vm VM) MPos() coord.Point {
	return vm.pos
}
func (vm *VM) SetMPos(p coord.Point) {
	vm.pos = p
}
func (vm *VM) SetWCO(p coord.Point) {
	vm.wco = p
}
func (vm VM) WCO() coord.Point {
	return vm.wco
}

func isSupported(g Word) bool {
	if g.IsAxis() {
		return true
	}

	switch g.W {
	case 'G':
		switch g.Arg {
		case 0, 1, 53, 90, 91, 20, 21, 94:
			return true
		}
	case 'F':
		return true
	}

	return false
}

func applyBlock(p coord.Point, b Block, mul float64) coord.Point {
	for _, g := range b {
		if g.IsAxis() {
			p = p.WithAxis(g.W, g.Arg*mul)
		}
	}

	return p
}

// Run applies a motion block (G0/G1 with G53/G90/G91/G20/G21) to the VM state.
func (vm *VM) Run(b Block) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	for _, g := range b {
		if !isSupported(g) {
			return errors.New("unsupported code: " + g.String())
		}
	}
	machineCoords := b.Has(Word{W: 'G', Arg: 53})
	for _, g := range b {
		mg := g.ModalGroup()
		switch {
		case g.W == 'F':
			vm.feed = g.Arg
		case mg != ModalGroupNone && mg != ModalGroupNonModal:
			vm.modal[mg] = g.Arg
		}
	}

	args := b.Args()
	if len(args) == 0 {
		return nil
	}

	mul := 1.0
	if vm.Inches() {
		mul = 25.4
	}
	switch {
	case vm.RelativeMotion():
		vm.pos = vm.pos.Add(applyBlock(coord.Point{}, args, mul))
	case machineCoords:
		vm.pos = applyBlock(vm.pos, args, mul)
	default:
		vm.pos = applyBlock(vm.WPos(), args, mul).Add(vm.wco)
	}

	return nil
}
