package smoothie

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mastercactapus/gprobe/coord"
	"github.com/mastercactapus/gprobe/machine"
)

func violation(expected, line string) error {
	return fmt.Errorf("%w: expected %s, got %q", machine.ErrProtocolViolation, expected, line)
}

// parseCoords parses `x,y,z`. Extra trailing axes (e.g. A) are ignored.
func parseCoords(data string) (p coord.Point, err error) {
	parts := strings.Split(data, ",")
	if len(parts) < 3 {
		return p, errors.New("invalid number of elements")
	}
	p.X, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return p, err
	}
	p.Y, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return p, err
	}
	p.Z, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return p, err
	}
	return p, nil
}

// parseProbe parses `[PRB:1.000,80.137,10.000:1]`.
func parseProbe(line string) (*machine.ProbeResult, error) {
	data := strings.TrimSpace(line)
	if !strings.HasPrefix(data, "[PRB:") {
		return nil, violation("probe report", line)
	}
	data = strings.TrimPrefix(data, "[")
	data = strings.TrimSuffix(data, "]")
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return nil, violation("probe report", line)
	}

	var res machine.ProbeResult
	var err error
	res.Point, err = parseCoords(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: probe report %q: %v", machine.ErrProtocolViolation, line, err)
	}
	res.Triggered = strings.HasPrefix(parts[2], "1")
	return &res, nil
}

// parseStatus extracts the frame's triplet from
// `<Idle|MPos:3.36,2.12,0.00|WPos:-0.01,2.12,0.00|F:1800.0,100.0>`.
func parseStatus(line string, frame machine.Frame) (*machine.Position, error) {
	data := strings.TrimSpace(line)
	if !strings.HasPrefix(data, "<") {
		return nil, violation("status report", line)
	}
	data = strings.TrimPrefix(data, "<")
	data = strings.TrimSuffix(data, ">")

	key := frame.String()
	for _, s := range strings.Split(data, "|")[1:] {
		field := strings.SplitN(s, ":", 2)
		if len(field) != 2 || field[0] != key {
			continue
		}
		p, err := parseCoords(field[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s in %q: %v", machine.ErrProtocolViolation, key, line, err)
		}
		return &machine.Position{Point: p, Frame: frame}, nil
	}

	return nil, violation(key+" in status report", line)
}

// parseAxes parses `X:<f> Y:<f> Z:<f>`, requiring all three axes.
func parseAxes(data string) (p coord.Point, err error) {
	var seen [3]bool
	for _, f := range strings.Fields(data) {
		kv := strings.SplitN(f, ":", 2)
		if len(kv) != 2 || len(kv[0]) != 1 {
			continue
		}
		var idx int
		switch kv[0] {
		case "X":
			idx = 0
		case "Y":
			idx = 1
		case "Z":
			idx = 2
		default:
			continue
		}
		v, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return p, err
		}
		p = p.WithAxis(kv[0][0], v)
		seen[idx] = true
	}
	if !seen[0] || !seen[1] || !seen[2] {
		return p, errors.New("missing axis")
	}
	return p, nil
}

// parseSteps parses `X:80.00000 Y:80.00000 Z:1600.00000`.
func parseSteps(line string) (*machine.StepsPerUnit, error) {
	p, err := parseAxes(line)
	if err != nil {
		return nil, fmt.Errorf("%w: steps report %q: %v", machine.ErrProtocolViolation, line, err)
	}
	return &machine.StepsPerUnit{X: p.X, Y: p.Y, Z: p.Z}, nil
}

// parseAngle parses `APOS: X:<f> Y:<f> Z:<f>` (with or without a leading `ok`)
// and returns the X actuator angle.
func parseAngle(line string) (float64, error) {
	data := strings.TrimSpace(strings.TrimPrefix(line, "ok"))
	if !strings.HasPrefix(data, "APOS:") {
		return 0, violation("actuator position report", line)
	}
	p, err := parseAxes(strings.TrimPrefix(data, "APOS:"))
	if err != nil {
		return 0, fmt.Errorf("%w: actuator position %q: %v", machine.ErrProtocolViolation, line, err)
	}
	return p.X, nil
}

var alarmWords = []string{"ERROR", "ALARM", "HALT", "!!", "ERROR:ALARM"}

// isAlarm reports whether line contains alarm, error or halt vocabulary.
func isAlarm(line string) bool {
	upper := strings.ToUpper(line)
	for _, w := range alarmWords {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}
