package coord

// Plane is the plane passing through three points.
type Plane [3]Point

// Z returns the height of the plane at (x,y).
//
// The plane must not be vertical.
func (p Plane) Z(x, y float64) float64 {
	normal := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
	d := normal.Dot(p[0])

	return (d - normal.X*x - normal.Y*y) / normal.Z
}

// OffsetZ reports the plane height at (x,y). It is defined everywhere.
func (p Plane) OffsetZ(x, y float64) (bool, float64) {
	return true, p.Z(x, y)
}
