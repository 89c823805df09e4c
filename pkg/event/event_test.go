// pkg/event/event_test.go
package event

import (
	"sync"
	"testing"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

func TestNewEventBus_Creation_ReturnsInitializedBus(t *testing.T) {
	bus := NewEventBus()
	if bus == nil {
		t.Fatal("NewEventBus() returned nil")
	}
	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}
	if bus.nextID != 1 {
		t.Errorf("expected nextID to be 1, got %d", bus.nextID)
	}
}

func TestBaseEvent_GetType_ReturnsCorrectType(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		source    interface{}
	}{
		{name: "crash event", eventType: FlightCrashed, source: "sim"},
		{name: "reset event", eventType: FlightReset, source: 7},
		{name: "empty source", eventType: SimulationStarted, source: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &BaseEvent{EventType: tt.eventType, Source: tt.source}
			if e.GetType() != tt.eventType {
				t.Errorf("GetType() = %v, want %v", e.GetType(), tt.eventType)
			}
			if e.GetSource() != tt.source {
				t.Errorf("GetSource() = %v, want %v", e.GetSource(), tt.source)
			}
		})
	}
}

func TestBusSubscribe_SingleHandler_ReturnsValidSubscription(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(FlightCrashed, func(Event) {})

	if sub == nil {
		t.Fatal("Subscribe() returned nil subscription")
	}
	if sub.ID == 0 {
		t.Error("subscription ID should be non-zero")
	}
	if sub.Type != FlightCrashed {
		t.Errorf("subscription type = %v, want %v", sub.Type, FlightCrashed)
	}
	if sub.Cancel == nil {
		t.Error("subscription Cancel should not be nil")
	}
	if bus.HandlerCount(FlightCrashed) != 1 {
		t.Errorf("HandlerCount() = %d, want 1", bus.HandlerCount(FlightCrashed))
	}
}

func TestBusPublish_MatchingType_CallsHandlersInOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Subscribe(FlightCrashed, func(Event) { calls = append(calls, "first") })
	bus.Subscribe(FlightCrashed, func(Event) { calls = append(calls, "second") })
	bus.Subscribe(FlightReset, func(Event) { calls = append(calls, "reset") })

	bus.Publish(&BaseEvent{EventType: FlightCrashed})

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("handler calls = %v, want [first second]", calls)
	}
}

func TestBusPublish_NoHandlers_DoesNothing(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(&BaseEvent{EventType: SimulationStopped})
}

func TestSubscriptionCancel_ValidSubscription_RemovesHandler(t *testing.T) {
	bus := NewEventBus()
	var kept, cancelled int
	sub := bus.Subscribe(FlightReset, func(Event) { cancelled++ })
	bus.Subscribe(FlightReset, func(Event) { kept++ })

	sub.Cancel()
	sub.Cancel() // second cancel is a no-op
	bus.Publish(&BaseEvent{EventType: FlightReset})

	if cancelled != 0 {
		t.Errorf("cancelled handler called %d times", cancelled)
	}
	if kept != 1 {
		t.Errorf("remaining handler called %d times, want 1", kept)
	}
}

func TestBusPublish_HandlerMaySubscribe(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(SimulationStarted, func(Event) {
		bus.Subscribe(SimulationStopped, func(Event) {})
	})
	bus.Publish(&BaseEvent{EventType: SimulationStarted})
	if bus.HandlerCount(SimulationStopped) != 1 {
		t.Error("subscribing from inside a handler should not deadlock or be lost")
	}
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewEventBus()
	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(FlightCrashed, func(Event) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(&BaseEvent{EventType: FlightCrashed})
		}()
	}
	wg.Wait()

	if bus.HandlerCount(FlightCrashed) != 10 {
		t.Errorf("HandlerCount() = %d, want 10", bus.HandlerCount(FlightCrashed))
	}
}

func TestNewFlightEvent(t *testing.T) {
	view := physics.FlightView{
		Position:  physics.Vector2D{X: 310, Y: 400},
		Status:    physics.Crashed,
		Collision: physics.Collision{Kind: physics.CollisionZone, Zone: "left_wall"},
	}
	e := NewFlightEvent(FlightCrashed, "sim", 42, view)

	if e.GetType() != FlightCrashed || e.Tick != 42 {
		t.Errorf("unexpected event %+v", e)
	}
	if e.Position != view.Position || e.Status != physics.Crashed || e.Collision.Zone != "left_wall" {
		t.Errorf("event did not copy the view: %+v", e)
	}
}

func TestNewSimulationEvent(t *testing.T) {
	e := NewSimulationEvent(SimulationStopped, nil, "run-1", 900)
	if e.GetType() != SimulationStopped || e.RunID != "run-1" || e.Ticks != 900 {
		t.Errorf("unexpected event %+v", e)
	}
}
