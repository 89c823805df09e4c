// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// Renderer consumes one finished frame. The simulation calls Clear, then
// RenderArena, RenderZone for each obstacle, RenderAircraft and finally
// Present, always after the tick that produced the frame has completed.
type Renderer interface {
	Clear()
	RenderArena(bounds physics.Rect, scenery Scenery)
	RenderZone(zone physics.Zone)
	RenderAircraft(view physics.FlightView)
	Present()
}

// Multi fans a frame out to several renderers in order.
type Multi []Renderer

// Clear implements Renderer.
func (m Multi) Clear() {
	for _, r := range m {
		r.Clear()
	}
}

// RenderArena implements Renderer.
func (m Multi) RenderArena(bounds physics.Rect, scenery Scenery) {
	for _, r := range m {
		r.RenderArena(bounds, scenery)
	}
}

// RenderZone implements Renderer.
func (m Multi) RenderZone(zone physics.Zone) {
	for _, r := range m {
		r.RenderZone(zone)
	}
}

// RenderAircraft implements Renderer.
func (m Multi) RenderAircraft(view physics.FlightView) {
	for _, r := range m {
		r.RenderAircraft(view)
	}
}

// Present implements Renderer.
func (m Multi) Present() {
	for _, r := range m {
		r.Present()
	}
}

// NullRenderer logs frames at debug level and draws nothing.
type NullRenderer struct {
	logger *logging.Logger
	frames uint64
}

// NewNullRenderer creates a NullRenderer logging through logger.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &NullRenderer{logger: logger}
}

// Frames returns how many frames were presented.
func (d *NullRenderer) Frames() uint64 {
	return d.frames
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {}

// RenderArena implements Renderer.
func (d *NullRenderer) RenderArena(bounds physics.Rect, scenery Scenery) {
	d.logger.Debug(context.Background(), "RenderArena called",
		"width", bounds.Width,
		"height", bounds.Height,
	)
}

// RenderZone implements Renderer.
func (d *NullRenderer) RenderZone(zone physics.Zone) {
	d.logger.Debug(context.Background(), "RenderZone called", "zone", zone.Name)
}

// RenderAircraft implements Renderer.
func (d *NullRenderer) RenderAircraft(view physics.FlightView) {
	d.logger.Debug(context.Background(), "RenderAircraft called",
		"x", view.Position.X,
		"y", view.Position.Y,
		"heading", view.Heading,
		"status", view.Status.String(),
	)
}

// Present implements Renderer.
func (d *NullRenderer) Present() {
	d.frames++
}
