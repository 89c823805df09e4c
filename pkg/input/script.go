package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Step holds one snapshot for a number of ticks.
type Step struct {
	Snapshot Snapshot
	Ticks    int
}

// Script replays a fixed sequence of steps, one snapshot per Sample call.
// Once exhausted it reports the idle snapshot, or starts over when looping.
type Script struct {
	steps []Step
	loop  bool
	index int
	used  int
}

// NewScript creates a script over steps. Steps with no ticks are dropped.
func NewScript(loop bool, steps ...Step) *Script {
	kept := make([]Step, 0, len(steps))
	for _, st := range steps {
		if st.Ticks > 0 {
			kept = append(kept, st)
		}
	}
	return &Script{steps: kept, loop: loop}
}

// Sample implements Sampler
func (s *Script) Sample() Snapshot {
	if s.index >= len(s.steps) {
		if !s.loop || len(s.steps) == 0 {
			return Snapshot{}
		}
		s.index, s.used = 0, 0
	}

	st := s.steps[s.index]
	s.used++
	if s.used >= st.Ticks {
		s.index++
		s.used = 0
	}
	return st.Snapshot
}

// Done reports whether a non-looping script has played every step
func (s *Script) Done() bool {
	return !s.loop && s.index >= len(s.steps)
}

// ParseScript reads a compact autopilot description such as
// "throttleUp*50,idle*20,yawLeft+throttleUp*10". Each comma separated step
// is a '+' joined set of control names (or "idle") with an optional
// "*ticks" repeat count defaulting to one.
func ParseScript(text string, loop bool) (*Script, error) {
	var steps []Step
	for _, raw := range strings.Split(text, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		ticks := 1
		keys := raw
		if i := strings.LastIndexByte(raw, '*'); i >= 0 {
			n, err := strconv.Atoi(strings.TrimSpace(raw[i+1:]))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid tick count in step %q", raw)
			}
			ticks = n
			keys = raw[:i]
		}

		var snap Snapshot
		for _, name := range strings.Split(keys, "+") {
			name = strings.TrimSpace(name)
			if name == "idle" {
				continue
			}
			c, ok := controlByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown control %q in step %q", name, raw)
			}
			snap = snap.Set(c, true)
		}
		steps = append(steps, Step{Snapshot: snap, Ticks: ticks})
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("script %q has no steps", text)
	}
	return NewScript(loop, steps...), nil
}

func controlByName(name string) (Control, bool) {
	for _, c := range Controls() {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}
	return 0, false
}
