// pkg/physics/tuning.go
package physics

import (
	"errors"
	"fmt"
)

// PitchMode selects how pitch input nudges the velocity.
type PitchMode int

const (
	// PitchScreen adds (0, pitch) in screen space regardless of heading.
	PitchScreen PitchMode = iota
	// PitchHeading adds (sin h * pitch, -cos h * pitch), perpendicular to
	// the thrust axis.
	PitchHeading
)

func (m PitchMode) String() string {
	switch m {
	case PitchHeading:
		return "heading"
	default:
		return "screen"
	}
}

// ParsePitchMode maps a config string onto a PitchMode.
func ParsePitchMode(s string) (PitchMode, error) {
	switch s {
	case "", "screen":
		return PitchScreen, nil
	case "heading":
		return PitchHeading, nil
	default:
		return PitchScreen, fmt.Errorf("unknown pitch mode %q", s)
	}
}

// ErrInvalidTuning is returned by Tuning.Validate.
var ErrInvalidTuning = errors.New("invalid flight tuning")

// Tuning holds every constant the per-tick update reads.
//
//   - MaxThrust caps the throttle; throttle stays in [0, MaxThrust].
//   - ThrottleStep is added or removed per tick while a throttle key is held.
//   - RotationSpeed is the raw heading change per tick of held yaw.
//   - TurnSmoothing damps yaw: heading += yawDelta * (1 - TurnSmoothing).
//   - PitchSpeed is the per-tick velocity nudge of held pitch.
//   - AirResistance is the exponential velocity decay applied every tick.
//   - DragCoefficient scales the linear drag folded into Acceleration.
//   - CrashMargin insets the arena bounds before the exit check.
type Tuning struct {
	MaxThrust       float64
	ThrottleStep    float64
	RotationSpeed   float64
	TurnSmoothing   float64
	PitchSpeed      float64
	AirResistance   float64
	DragCoefficient float64
	PitchMode       PitchMode
	CrashMargin     float64
}

// DefaultTuning returns the canonical flight constants.
func DefaultTuning() Tuning {
	return Tuning{
		MaxThrust:       0.1,
		ThrottleStep:    0.002,
		RotationSpeed:   0.03,
		TurnSmoothing:   0.08,
		PitchSpeed:      0.02,
		AirResistance:   0.01,
		DragCoefficient: 0.02,
		PitchMode:       PitchScreen,
		CrashMargin:     0,
	}
}

// Validate rejects constants that would break the integrator's invariants.
func (t Tuning) Validate() error {
	switch {
	case t.MaxThrust < 0:
		return fmt.Errorf("%w: max thrust %v is negative", ErrInvalidTuning, t.MaxThrust)
	case t.ThrottleStep < 0:
		return fmt.Errorf("%w: throttle step %v is negative", ErrInvalidTuning, t.ThrottleStep)
	case t.TurnSmoothing < 0 || t.TurnSmoothing > 1:
		return fmt.Errorf("%w: turn smoothing %v outside [0, 1]", ErrInvalidTuning, t.TurnSmoothing)
	case t.AirResistance < 0 || t.AirResistance >= 1:
		return fmt.Errorf("%w: air resistance %v outside [0, 1)", ErrInvalidTuning, t.AirResistance)
	case t.DragCoefficient < 0:
		return fmt.Errorf("%w: drag coefficient %v is negative", ErrInvalidTuning, t.DragCoefficient)
	case t.CrashMargin < 0:
		return fmt.Errorf("%w: crash margin %v is negative", ErrInvalidTuning, t.CrashMargin)
	case t.PitchMode != PitchScreen && t.PitchMode != PitchHeading:
		return fmt.Errorf("%w: unknown pitch mode %d", ErrInvalidTuning, t.PitchMode)
	}
	return nil
}
