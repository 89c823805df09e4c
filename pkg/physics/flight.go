// pkg/physics/flight.go
package physics

import (
	"math"

	"github.com/opd-ai/go-flightsim/pkg/input"
)

// Status is the flight state machine: Flying until a collision, then
// Crashed until an explicit reset.
type Status int

const (
	Flying Status = iota
	Crashed
)

func (s Status) String() string {
	if s == Crashed {
		return "crashed"
	}
	return "flying"
}

// Start is the pose a flight begins from and returns to on reset.
type Start struct {
	Position Vector2D
	Heading  float64
}

// FlightState owns the aircraft's kinematic and control variables. A single
// host goroutine mutates it through Advance; renderers read View after
// Advance returns.
type FlightState struct {
	Position     Vector2D
	Velocity     Vector2D // units per tick
	Acceleration Vector2D // recomputed every flying tick
	Heading      float64  // radians, counterclockwise in math space
	Throttle     float64  // always within [0, Tuning.MaxThrust]
	Status       Status

	// ArenaBounds and ObstacleZones are supplied by the host and only read here.
	ArenaBounds   Rect
	ObstacleZones []Zone

	LastCollision Collision

	start  Start
	tuning Tuning
}

// NewFlightState creates a flying aircraft at rest at the start pose.
func NewFlightState(start Start, tuning Tuning) *FlightState {
	s := &FlightState{start: start, tuning: tuning}
	s.reset()
	return s
}

// Tuning returns the constants this flight integrates with.
func (s *FlightState) Tuning() Tuning {
	return s.tuning
}

// StartPose returns the pose the flight resets to.
func (s *FlightState) StartPose() Start {
	return s.start
}

// SetArenaBounds refreshes the viewport extent. The host calls it before
// each tick so a resized surface applies to the next bounds check.
func (s *FlightState) SetArenaBounds(width, height float64) {
	s.ArenaBounds = Rect{Width: width, Height: height}
}

// SetObstacleZones replaces the obstacle geometry. The slice is copied so
// later changes by the caller do not leak into a running flight.
func (s *FlightState) SetObstacleZones(zones []Zone) {
	s.ObstacleZones = append([]Zone(nil), zones...)
}

// Crashed reports whether the aircraft is waiting for a reset.
func (s *FlightState) Crashed() bool {
	return s.Status == Crashed
}

// Advance runs one unit tick. The steps run in a fixed order because each
// reads fields the previous one wrote.
func (s *FlightState) Advance(in input.Snapshot) {
	if s.Status == Crashed {
		if in.Reset {
			s.reset()
		}
		return
	}

	pitch := s.applyControls(in)
	s.computeForces()
	s.integrate(pitch)
	s.checkCollisions()
}

// applyControls updates heading and throttle and returns the pitch input
// for this tick.
func (s *FlightState) applyControls(in input.Snapshot) float64 {
	t := s.tuning

	yawDelta := t.RotationSpeed * axis(in.YawRight, in.YawLeft)
	s.Heading += yawDelta * (1 - t.TurnSmoothing)

	switch {
	case in.ThrottleUp:
		s.Throttle = math.Min(s.Throttle+t.ThrottleStep, t.MaxThrust)
	case in.ThrottleDown:
		s.Throttle = math.Max(s.Throttle-t.ThrottleStep, 0)
	}

	return t.PitchSpeed * axis(in.PitchUp, in.PitchDown)
}

// computeForces folds thrust and linear drag into Acceleration. Drag is
// proportional to velocity, not a true aerodynamic model.
func (s *FlightState) computeForces() {
	drag := s.Velocity.Scale(s.tuning.DragCoefficient)
	s.Acceleration = FromHeading(s.Heading, s.Throttle).Sub(drag)
}

// integrate is a forward Euler step at a fixed unit tick.
func (s *FlightState) integrate(pitch float64) {
	thrust := FromHeading(s.Heading, s.Throttle)
	s.Velocity = s.Velocity.Add(thrust).Add(s.pitchVector(pitch))
	s.Velocity = s.Velocity.Scale(1 - s.tuning.AirResistance)
	s.Position = s.Position.Add(s.Velocity)
}

func (s *FlightState) pitchVector(pitch float64) Vector2D {
	if pitch == 0 {
		return Vector2D{}
	}
	if s.tuning.PitchMode == PitchHeading {
		return Vector2D{
			X: math.Sin(s.Heading) * pitch,
			Y: -math.Cos(s.Heading) * pitch,
		}
	}
	return Vector2D{Y: pitch}
}

// checkCollisions tests the arena bounds first, then the obstacle zones,
// and stops at the first hit.
func (s *FlightState) checkCollisions() {
	if outOfBounds(s.Position, s.ArenaBounds.Inset(s.tuning.CrashMargin)) {
		s.crash(Collision{Kind: CollisionBounds})
		return
	}
	if zone, ok := hitZone(s.Position, s.ObstacleZones); ok {
		s.crash(Collision{Kind: CollisionZone, Zone: zone.Name})
	}
}

func (s *FlightState) crash(c Collision) {
	s.Status = Crashed
	s.LastCollision = c
}

// reset restores every kinematic field at once. Arena and zones are host
// data and survive the reset.
func (s *FlightState) reset() {
	s.Position = s.start.Position
	s.Velocity = Vector2D{}
	s.Acceleration = Vector2D{}
	s.Heading = s.start.Heading
	s.Throttle = 0
	s.Status = Flying
	s.LastCollision = Collision{}
}

// View copies the fields renderers are allowed to see.
func (s *FlightState) View() FlightView {
	return FlightView{
		Position:     s.Position,
		Velocity:     s.Velocity,
		Acceleration: s.Acceleration,
		Heading:      s.Heading,
		Throttle:     s.Throttle,
		Status:       s.Status,
		Collision:    s.LastCollision,
	}
}

// FlightView is a read-only copy of the aircraft state for one frame.
type FlightView struct {
	Position     Vector2D
	Velocity     Vector2D
	Acceleration Vector2D
	Heading      float64
	Throttle     float64
	Status       Status
	Collision    Collision
}

// RotationDegrees is the clockwise screen rotation that points a sprite
// along the thrust vector. Screen rotation runs opposite to heading
// because Y grows downward.
func (v FlightView) RotationDegrees() float64 {
	return -v.Heading * 180 / math.Pi
}

// axis maps a pair of opposing keys onto -1, 0 or +1.
func axis(positive, negative bool) float64 {
	var v float64
	if positive {
		v++
	}
	if negative {
		v--
	}
	return v
}
