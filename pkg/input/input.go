// Package input samples the discrete key state that drives one simulation
// tick. Sampling is level-triggered: a held key reports pressed on every
// tick it stays down.
package input

import "sync"

// Snapshot is the control state for a single tick.
type Snapshot struct {
	YawLeft      bool `json:"yawLeft"`
	YawRight     bool `json:"yawRight"`
	PitchUp      bool `json:"pitchUp"`
	PitchDown    bool `json:"pitchDown"`
	ThrottleUp   bool `json:"throttleUp"`
	ThrottleDown bool `json:"throttleDown"`
	Reset        bool `json:"reset"`
}

// Idle reports whether no control is held
func (s Snapshot) Idle() bool {
	return s == Snapshot{}
}

// Sampler reads the current key state. Sample is called exactly once per
// tick and must not block.
type Sampler interface {
	Sample() Snapshot
}

// SamplerFunc adapts a plain function to Sampler
type SamplerFunc func() Snapshot

// Sample implements Sampler
func (f SamplerFunc) Sample() Snapshot {
	return f()
}

// NullSampler stands in for a missing input device.
type NullSampler struct{}

// Sample implements Sampler
func (NullSampler) Sample() Snapshot {
	return Snapshot{}
}

// Control names one logical key of the fixed control set.
type Control int

const (
	YawLeft Control = iota
	YawRight
	PitchUp
	PitchDown
	ThrottleUp
	ThrottleDown
	Reset
	controlCount
)

var controlNames = [...]string{
	YawLeft:      "yawLeft",
	YawRight:     "yawRight",
	PitchUp:      "pitchUp",
	PitchDown:    "pitchDown",
	ThrottleUp:   "throttleUp",
	ThrottleDown: "throttleDown",
	Reset:        "reset",
}

func (c Control) String() string {
	if c < 0 || c >= controlCount {
		return "unknown"
	}
	return controlNames[c]
}

// Opposite returns the control on the other end of c's axis. Reset has none.
func (c Control) Opposite() (Control, bool) {
	switch c {
	case YawLeft:
		return YawRight, true
	case YawRight:
		return YawLeft, true
	case PitchUp:
		return PitchDown, true
	case PitchDown:
		return PitchUp, true
	case ThrottleUp:
		return ThrottleDown, true
	case ThrottleDown:
		return ThrottleUp, true
	}
	return c, false
}

// Controls lists the control set in declaration order
func Controls() []Control {
	out := make([]Control, 0, controlCount)
	for c := Control(0); c < controlCount; c++ {
		out = append(out, c)
	}
	return out
}

// Set returns a copy of s with control c set to pressed.
func (s Snapshot) Set(c Control, pressed bool) Snapshot {
	switch c {
	case YawLeft:
		s.YawLeft = pressed
	case YawRight:
		s.YawRight = pressed
	case PitchUp:
		s.PitchUp = pressed
	case PitchDown:
		s.PitchDown = pressed
	case ThrottleUp:
		s.ThrottleUp = pressed
	case ThrottleDown:
		s.ThrottleDown = pressed
	case Reset:
		s.Reset = pressed
	}
	return s
}

// KeyState is a pressed/released table written by a host event callback
// and read by the tick loop.
type KeyState struct {
	mu      sync.RWMutex
	pressed [controlCount]bool
}

// NewKeyState returns a table with every control released
func NewKeyState() *KeyState {
	return &KeyState{}
}

// Press marks c as held
func (k *KeyState) Press(c Control) {
	k.set(c, true)
}

// Release marks c as released
func (k *KeyState) Release(c Control) {
	k.set(c, false)
}

func (k *KeyState) set(c Control, v bool) {
	if c < 0 || c >= controlCount {
		return
	}
	k.mu.Lock()
	k.pressed[c] = v
	k.mu.Unlock()
}

// Sample implements Sampler
func (k *KeyState) Sample() Snapshot {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var s Snapshot
	for c := Control(0); c < controlCount; c++ {
		s = s.Set(c, k.pressed[c])
	}
	return s
}
