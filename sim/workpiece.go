package sim

import (
	"math"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/surface"
)

// Workpiece is something the probe can touch.
//
// Contact returns how far the tool center can travel from `from` along axis
// in direction dir (+1 or -1) before the tool of radius r touches it.
type Workpiece interface {
	Contact(from coord.Point, axis byte, dir, r float64) (travel float64, ok bool)
}

// other returns the in-plane axis perpendicular to a.
func other(a byte) byte {
	if a == 'X' {
		return 'Y'
	}
	return 'X'
}

func between(v, min, max float64) bool { return min <= v && v <= max }

// Box is a solid rectangular block. Side faces are flat; corners are
// treated as square.
type Box struct{ Min, Max coord.Point }

func (b Box) Contact(from coord.Point, axis byte, dir, r float64) (float64, bool) {
	if axis == 'Z' {
		if dir > 0 || from.Z < b.Max.Z {
			return 0, false
		}
		if !between(from.X, b.Min.X, b.Max.X) || !between(from.Y, b.Min.Y, b.Max.Y) {
			return 0, false
		}
		return from.Z - b.Max.Z, true
	}

	if !between(from.Z, b.Min.Z, b.Max.Z) || from.Z == b.Max.Z {
		return 0, false
	}
	o := other(axis)
	if !between(from.Axis(o), b.Min.Axis(o)-r, b.Max.Axis(o)+r) {
		return 0, false
	}

	v := from.Axis(axis)
	switch {
	case dir > 0 && v+r <= b.Min.Axis(axis):
		return b.Min.Axis(axis) - r - v, true
	case dir < 0 && v-r >= b.Max.Axis(axis):
		return v - r - b.Max.Axis(axis), true
	}
	return 0, false
}

// Bore is a round pocket cut down from Center.Z.
type Bore struct {
	Center coord.Point
	Radius float64
	Depth  float64
}

func (b Bore) Contact(from coord.Point, axis byte, dir, r float64) (float64, bool) {
	floor := b.Center.Z - b.Depth
	if from.Z > b.Center.Z || from.Z < floor {
		return 0, false
	}
	off := from.Sub(b.Center)
	reach := b.Radius - r
	if reach <= 0 || math.Hypot(off.X, off.Y) > reach {
		return 0, false
	}

	if axis == 'Z' {
		if dir > 0 {
			return 0, false
		}
		return from.Z - floor, true
	}

	across := off.Axis(other(axis))
	wall := math.Sqrt(reach*reach - across*across)
	return wall - dir*off.Axis(axis), true
}

// Surface is a top face with heights from z, e.g. a coord.Plane,
// a surface.Mesh or a surface.Flat. It can only be probed from above.
type Surface struct{ Z surface.ZOffsetter }

func (s Surface) Contact(from coord.Point, axis byte, dir, r float64) (float64, bool) {
	if axis != 'Z' || dir > 0 {
		return 0, false
	}
	ok, z := s.Z.OffsetZ(from.X, from.Y)
	if !ok || from.Z < z {
		return 0, false
	}
	return from.Z - z, true
}

// Fence is a vertical face running from A to B in XY, probed in +Y from
// its front. A and B differ in Y when the fence is skewed to the gantry.
type Fence struct{ A, B coord.Point }

func (f Fence) Contact(from coord.Point, axis byte, dir, r float64) (float64, bool) {
	if axis != 'Y' || dir < 0 || f.A.X == f.B.X {
		return 0, false
	}
	t := (from.X - f.A.X) / (f.B.X - f.A.X)
	if t < 0 || t > 1 {
		return 0, false
	}
	face := f.A.Y + t*(f.B.Y-f.A.Y)
	if from.Y+r > face {
		return 0, false
	}
	return face - r - from.Y, true
}
