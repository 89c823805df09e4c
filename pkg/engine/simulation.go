// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

// SurfaceFunc reports the current drawable extent. Windowed hosts return
// the live window size so a resize applies to the next bounds check.
type SurfaceFunc func() (width, height float64)

// Simulation hosts a single flight: it samples input, advances the
// physics, publishes state transitions and draws frames.
type Simulation struct {
	Config      *config.SimConfig
	Flight      *physics.FlightState
	EventBus    *event.Bus
	StateLock   sync.RWMutex
	CurrentTick uint64
	Running     bool
	StartTime   time.Time
	LastTick    time.Time

	sampler input.Sampler
	surface SurfaceFunc
	scenery render.Scenery
	logger  *logging.Logger
	monitor *TickMonitor
	metrics *simMetrics
	runID   string
}

// NewSimulation builds a simulation from a validated config. A nil sampler
// behaves like a disconnected keyboard.
func NewSimulation(cfg *config.SimConfig, sampler input.Sampler, logger *logging.Logger) (*Simulation, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	tuning, err := cfg.Tuning()
	if err != nil {
		return nil, err
	}
	if sampler == nil {
		sampler = input.NullSampler{}
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	metrics, err := newSimMetrics()
	if err != nil {
		return nil, logging.WrapError(err, "creating simulation metrics")
	}

	flight := physics.NewFlightState(cfg.StartPose(), tuning)
	flight.SetArenaBounds(cfg.Arena.Width, cfg.Arena.Height)
	flight.SetObstacleZones(cfg.ObstacleZones())

	return &Simulation{
		Config:   cfg,
		Flight:   flight,
		EventBus: event.NewEventBus(),
		sampler:  sampler,
		scenery:  cfg.Scenery,
		logger:   logger,
		monitor:  NewTickMonitor(),
		metrics:  metrics,
	}, nil
}

// SetSurface installs the viewport provider consulted before every tick
func (s *Simulation) SetSurface(surface SurfaceFunc) {
	s.StateLock.Lock()
	s.surface = surface
	s.StateLock.Unlock()
}

// SetSampler swaps the input source. It takes effect on the next tick.
func (s *Simulation) SetSampler(sampler input.Sampler) {
	if sampler == nil {
		sampler = input.NullSampler{}
	}
	s.StateLock.Lock()
	s.sampler = sampler
	s.StateLock.Unlock()
}

// Monitor exposes the tick duration statistics
func (s *Simulation) Monitor() *TickMonitor {
	return s.monitor
}

// Errors returned by Run
var (
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrNoRenderer     = errors.New("no renderer")
)

// Start marks the run as active and announces it on the event bus.
// Starting a running simulation does nothing.
func (s *Simulation) Start(ctx context.Context) {
	s.start(ctx)
}

// start reports false when the simulation was already running
func (s *Simulation) start(ctx context.Context) bool {
	s.StateLock.Lock()
	if s.Running {
		s.StateLock.Unlock()
		return false
	}
	s.Running = true
	s.StartTime = time.Now()
	s.runID = logging.GetRunID(ctx)
	ticks := s.CurrentTick
	s.StateLock.Unlock()

	s.logger.Info(ctx, "simulation started",
		"arena_width", s.Config.Arena.Width,
		"arena_height", s.Config.Arena.Height,
		"obstacles", len(s.Config.Obstacles),
		"tick_rate", s.Config.Loop.TickRate,
	)
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationStarted, s, s.runID, ticks))
	return true
}

// Stop marks the run as finished and announces it on the event bus
func (s *Simulation) Stop(ctx context.Context) {
	s.StateLock.Lock()
	if !s.Running {
		s.StateLock.Unlock()
		return
	}
	s.Running = false
	ticks := s.CurrentTick
	elapsed := time.Since(s.StartTime)
	s.StateLock.Unlock()

	stats := s.monitor.Snapshot()
	s.logger.Info(ctx, "simulation stopped",
		"ticks", ticks,
		"elapsed", elapsed.String(),
		"avg_tick", stats.Average.String(),
		"max_tick", stats.Max.String(),
	)
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationStopped, s, s.runID, ticks))
}

// Tick samples input exactly once, advances the flight by one step and
// returns the resulting view. Crash and reset transitions are published
// after the state lock is released so handlers may read the simulation.
func (s *Simulation) Tick(ctx context.Context) physics.FlightView {
	began := time.Now()

	s.StateLock.Lock()
	in := s.sampler.Sample()
	if s.surface != nil {
		if w, h := s.surface(); w > 0 && h > 0 {
			s.Flight.SetArenaBounds(w, h)
		}
	}
	wasCrashed := s.Flight.Crashed()
	s.Flight.Advance(in)
	s.CurrentTick++
	tick := s.CurrentTick
	s.LastTick = began
	view := s.Flight.View()
	s.StateLock.Unlock()

	switch {
	case !wasCrashed && view.Status == physics.Crashed:
		s.logger.Warn(ctx, "aircraft crashed",
			"tick", tick,
			"cause", view.Collision.Kind.String(),
			"zone", view.Collision.Zone,
			"x", view.Position.X,
			"y", view.Position.Y,
		)
		s.metrics.crashed(ctx, view.Collision)
		s.EventBus.Publish(event.NewFlightEvent(event.FlightCrashed, s, tick, view))
	case wasCrashed && view.Status == physics.Flying:
		s.logger.Info(ctx, "aircraft reset", "tick", tick)
		s.metrics.reset(ctx)
		s.EventBus.Publish(event.NewFlightEvent(event.FlightReset, s, tick, view))
	}

	elapsed := time.Since(began)
	s.monitor.Observe(elapsed)
	s.metrics.ticked(ctx, elapsed)
	if slow := s.Config.Loop.SlowTick.Std(); slow > 0 && elapsed > slow {
		s.logger.Warn(ctx, "slow tick", "tick", tick, "duration", elapsed.String())
	}
	return view
}

// Render draws the current frame. It must run after Tick so the frame
// shows the fully updated state.
func (s *Simulation) Render(r render.Renderer) {
	s.StateLock.RLock()
	bounds := s.Flight.ArenaBounds
	zones := s.Flight.ObstacleZones
	view := s.Flight.View()
	s.StateLock.RUnlock()

	r.Clear()
	r.RenderArena(bounds, s.scenery)
	for _, zone := range zones {
		r.RenderZone(zone)
	}
	r.RenderAircraft(view)
	r.Present()
}

// Step runs one Tick followed by one Render
func (s *Simulation) Step(ctx context.Context, r render.Renderer) physics.FlightView {
	view := s.Tick(ctx)
	s.Render(r)
	return view
}

// Run drives the simulation at the configured tick rate until ctx is
// cancelled or Config.Loop.MaxTicks ticks have run. A simulation has a
// single writer, so Run fails if another host already started it.
func (s *Simulation) Run(ctx context.Context, r render.Renderer) error {
	if r == nil {
		return ErrNoRenderer
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !s.start(ctx) {
		return ErrAlreadyRunning
	}
	defer s.Stop(ctx)

	limit := s.Config.Loop.MaxTicks
	loop := NewLoop(s.Config.Loop.TickRate, func(time.Duration) {
		if ctx.Err() != nil {
			return
		}
		s.Step(ctx, r)
		if limit > 0 && s.Ticks() >= limit {
			cancel()
		}
	})
	loop.Start(ctx)
	<-ctx.Done()
	loop.Stop()
	return nil
}

// Ticks returns the number of completed ticks
func (s *Simulation) Ticks() uint64 {
	s.StateLock.RLock()
	defer s.StateLock.RUnlock()
	return s.CurrentTick
}

// View returns a copy of the current flight state
func (s *Simulation) View() physics.FlightView {
	s.StateLock.RLock()
	defer s.StateLock.RUnlock()
	return s.Flight.View()
}

// Status is a point-in-time summary used by health checks
type Status struct {
	Running  bool
	Ticks    uint64
	LastTick time.Time
	Flight   physics.Status
}

// Status returns the current run summary
func (s *Simulation) Status() Status {
	s.StateLock.RLock()
	defer s.StateLock.RUnlock()
	return Status{
		Running:  s.Running,
		Ticks:    s.CurrentTick,
		LastTick: s.LastTick,
		Flight:   s.Flight.Status,
	}
}
