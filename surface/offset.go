package surface

import (
	"github.com/mastercactapus/gprobe/coord"
)

// ZOffsetter reports a surface height at x,y, and whether x,y is covered.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// Flat is a level surface at a fixed height.
type Flat float64

func (f Flat) OffsetZ(x, y float64) (bool, float64) { return true, float64(f) }

var (
	_ ZOffsetter = Flat(0)
	_ ZOffsetter = coord.Plane{}
)

// OffsetFrom returns a copy of points with z subtracted from every height.
func OffsetFrom(z float64, points []coord.Point) []coord.Point {
	p := make([]coord.Point, len(points))
	copy(p, points)

	for i := range p {
		p[i].Z -= z
	}
	return p
}
