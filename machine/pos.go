package machine

import "fmt"

// PosResult is the current position in both frames.
type PosResult struct {
	Work, Machine Position
}

func (r PosResult) String() string {
	return fmt.Sprintf("WPOS x%g y%g z%g MPOS x%g y%g z%g",
		r.Work.X, r.Work.Y, r.Work.Z,
		r.Machine.X, r.Machine.Y, r.Machine.Z,
	)
}

// ReadPos reports the current work and machine positions.
func (m *Machine) ReadPos() (*PosResult, error) {
	wp, err := m.Position(WorkFrame)
	if err != nil {
		return nil, err
	}
	mp, err := m.Position(MachineFrame)
	if err != nil {
		return nil, err
	}
	return &PosResult{Work: *wp, Machine: *mp}, nil
}
