package machine

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/surface"
)

// spiralProbeDistance is how far down each surface probe travels.
const spiralProbeDistance = -20

// SpiralResult is a surface height scan.
type SpiralResult struct {
	// Points are the contact locations in scan order.
	Points []coord.Point

	Min, Max float64

	// Delta is the flatness, Max - Min.
	Delta float64

	// Mesh interpolates heights relative to the first (center) point.
	// It is nil when fewer than three points were probed.
	Mesh *surface.Mesh `json:"-"`
}

func (r SpiralResult) String() string {
	return fmt.Sprintf("max: %g, min: %g, delta: %g", r.Max, r.Min, r.Delta)
}

// SpiralPoints returns n+1 points on an Archimedean spiral of the given radius,
// spaced so each covers roughly equal area. The first point is the origin.
func SpiralPoints(n int, radius float64) []coord.Point {
	if n < 1 {
		return []coord.Point{{}}
	}
	a := radius / (2 * math.Sqrt(float64(n)*math.Pi))
	stepLength := radius * radius / (2 * a * float64(n))

	points := make([]coord.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		angle := math.Sqrt(2 * float64(i) * stepLength / a)
		r := angle * a
		points = append(points, coord.Point{
			X: r * math.Cos(angle),
			Y: r * math.Sin(angle),
		})
	}
	return points
}

// ProbeSpiral probes the surface height at each spiral point around the work origin,
// over a disk of the configured diameter.
//
// The probe must start at the safe height above the work origin.
func (m *Machine) ProbeSpiral() (*SpiralResult, error) {
	res := &SpiralResult{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}

	for i, p := range SpiralPoints(m.opt.Points, m.opt.Diameter/2) {
		err := m.MoveTo(Target{X: ptr(p.X), Y: ptr(p.Y)}, false, false)
		if err != nil {
			return nil, err
		}
		hit, err := m.Probe('Z', spiralProbeDistance)
		if err != nil {
			return nil, fmt.Errorf("probe point %d: %w", i, err)
		}
		p.Z = hit.Z
		m.log.Info().Int("index", i).Float64("x", p.X).Float64("y", p.Y).Float64("z", p.Z).Msg("probe")

		res.Points = append(res.Points, p)
		res.Min = math.Min(res.Min, p.Z)
		res.Max = math.Max(res.Max, p.Z)

		err = m.Retract()
		if err != nil {
			return nil, err
		}
	}
	res.Delta = res.Max - res.Min

	if len(res.Points) >= 3 {
		mesh, err := surface.NewMesh(surface.OffsetFrom(res.Points[0].Z, res.Points))
		if err != nil {
			m.log.Warn().Err(err).Msg("surface mesh unavailable")
		} else {
			res.Mesh = mesh
		}
	}

	return res, m.WaitIdle()
}
