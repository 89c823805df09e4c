// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
	FlightCrashed     Type = "flight_crashed"
	FlightReset       Type = "flight_reset"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies one registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			b.handlers[eventType] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// HandlerCount returns the number of handlers registered for eventType
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// FlightEvent reports a flight state transition.
type FlightEvent struct {
	BaseEvent
	Tick      uint64
	Position  physics.Vector2D
	Status    physics.Status // status after the transition
	Collision physics.Collision
}

// NewFlightEvent creates a flight transition event
func NewFlightEvent(eventType Type, source interface{}, tick uint64, view physics.FlightView) *FlightEvent {
	return &FlightEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Tick:      tick,
		Position:  view.Position,
		Status:    view.Status,
		Collision: view.Collision,
	}
}

// SimulationEvent marks the start or end of a run
type SimulationEvent struct {
	BaseEvent
	RunID string
	Ticks uint64
}

// NewSimulationEvent creates a run lifecycle event
func NewSimulationEvent(eventType Type, source interface{}, runID string, ticks uint64) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		RunID: runID,
		Ticks: ticks,
	}
}
