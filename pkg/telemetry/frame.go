// Package telemetry streams rendered frames as JSON over websockets. It is
// output only: observers and upstream collectors receive the aircraft state
// but can never steer it.
package telemetry

import (
	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

// Frame is one rendered simulation frame.
type Frame struct {
	Seq      uint64         `json:"seq"`
	Arena    physics.Rect   `json:"arena"`
	Zones    []physics.Zone `json:"zones"`
	Aircraft Aircraft       `json:"aircraft"`
}

// Aircraft is the wire form of physics.FlightView.
type Aircraft struct {
	Position     physics.Vector2D `json:"position"`
	Velocity     physics.Vector2D `json:"velocity"`
	Acceleration physics.Vector2D `json:"acceleration"`
	Heading      float64          `json:"heading"`
	Rotation     float64          `json:"rotation"` // screen degrees, clockwise
	Throttle     float64          `json:"throttle"`
	Status       string           `json:"status"`
	Collision    *CollisionInfo   `json:"collision,omitempty"`
}

// CollisionInfo names what ended the flight.
type CollisionInfo struct {
	Kind string `json:"kind"`
	Zone string `json:"zone,omitempty"`
}

// NewAircraft converts a flight view for the wire
func NewAircraft(view physics.FlightView) Aircraft {
	a := Aircraft{
		Position:     view.Position,
		Velocity:     view.Velocity,
		Acceleration: view.Acceleration,
		Heading:      view.Heading,
		Rotation:     view.RotationDegrees(),
		Throttle:     view.Throttle,
		Status:       view.Status.String(),
	}
	if view.Collision.Kind != physics.CollisionNone {
		a.Collision = &CollisionInfo{
			Kind: view.Collision.Kind.String(),
			Zone: view.Collision.Zone,
		}
	}
	return a
}

// frameBuilder assembles a Frame from the renderer call sequence. Scenery
// is decorative and static, so it is left off the wire.
type frameBuilder struct {
	seq   uint64
	frame Frame
}

func (b *frameBuilder) Clear() {
	b.frame = Frame{}
}

func (b *frameBuilder) RenderArena(bounds physics.Rect, _ render.Scenery) {
	b.frame.Arena = bounds
}

func (b *frameBuilder) RenderZone(zone physics.Zone) {
	b.frame.Zones = append(b.frame.Zones, zone)
}

func (b *frameBuilder) RenderAircraft(view physics.FlightView) {
	b.frame.Aircraft = NewAircraft(view)
}

// finish stamps the next sequence number on the pending frame
func (b *frameBuilder) finish() Frame {
	b.seq++
	b.frame.Seq = b.seq
	return b.frame
}
