package gcode

import (
	"errors"
	"strings"
)

// Block is one line of G-code.
type Block []Word

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

// Has returns true if the block contains exactly the word w.
func (b Block) Has(w Word) bool {
	for _, g := range b {
		if g == w {
			return true
		}
	}
	return false
}

// Args returns the words that do not belong to a modal group (axes and parameters).
func (b Block) Args() Block {
	res := make(Block, 0, len(b))
	for _, g := range b {
		if g.ModalGroup() == ModalGroupNone {
			res = append(res, g)
		}
	}
	return res
}

func (b Block) Validate() error {
	if len(b) == 0 {
		return errors.New("empty block")
	}
	var checkWord [256]bool
	var checkModal [256]bool

	var m ModalGroup
	for _, g := range b {
		if !g.IsValid() {
			return errors.New("invalid word in block")
		}
		if g.W != 'G' && g.W != 'M' && checkWord[g.W] {
			return errors.New("word was repeated in a block: " + g.String())
		}
		checkWord[g.W] = true
		m = g.ModalGroup()
		if m != ModalGroupNone && checkModal[m] {
			return errors.New("multiple words from same modal group: " + g.String())
		}
		checkModal[m] = true
	}

	return nil
}

// String renders the block as space separated words, e.g. `G91 G0 Z10`.
func (b Block) String() string {
	parts := make([]string, len(b))
	for i, w := range b {
		parts[i] = w.String()
	}
	return strings.Join(parts, " ")
}
