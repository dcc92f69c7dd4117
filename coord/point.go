package coord

import (
	"fmt"
	"math"
)

// Point is a location or offset in 3D space, in millimeters.
type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}
func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// Axis returns the value of the named axis ('X', 'Y' or 'Z').
func (p Point) Axis(axis byte) float64 {
	switch axis {
	case 'X', 'x':
		return p.X
	case 'Y', 'y':
		return p.Y
	case 'Z', 'z':
		return p.Z
	}
	panic(fmt.Sprintf("coord: unknown axis %q", axis))
}

// WithAxis returns a copy of p with the named axis set to val.
func (p Point) WithAxis(axis byte, val float64) Point {
	switch axis {
	case 'X', 'x':
		p.X = val
	case 'Y', 'y':
		p.Y = val
	case 'Z', 'z':
		p.Z = val
	default:
		panic(fmt.Sprintf("coord: unknown axis %q", axis))
	}
	return p
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("X%.4f Y%.4f Z%.4f", p.X, p.Y, p.Z)
}
