// pkg/render/engo/scene.go
package engo

import (
	"context"
	"fmt"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

// FlightScene hosts a simulation in an engo window. Every engo frame runs
// one simulation tick followed by one render.
type FlightScene struct {
	ctx    context.Context
	sim    *engine.Simulation
	extra  render.Renderer
	logger *logging.Logger

	world    *ecs.World
	renderer *Renderer
	err      error
}

// NewFlightScene creates a scene for sim. extra, when not nil, receives
// every frame too (telemetry, for example).
func NewFlightScene(ctx context.Context, sim *engine.Simulation, extra render.Renderer, logger *logging.Logger) *FlightScene {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &FlightScene{ctx: ctx, sim: sim, extra: extra, logger: logger}
}

// Type implements engo.Scene.
func (scene *FlightScene) Type() string {
	return "FlightScene"
}

// Preload implements engo.Scene. Assets are generated in Setup.
func (scene *FlightScene) Preload() {}

// Setup implements engo.Scene.
func (scene *FlightScene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	scene.world = world
	common.SetBackground(skyColor)
	world.AddSystem(&common.RenderSystem{})

	SetupInputBindings()
	scene.sim.SetSampler(KeyboardSampler{})
	scene.sim.SetSurface(func() (float64, float64) {
		return float64(engo.WindowWidth()), float64(engo.WindowHeight())
	})

	assets := NewAssetManager()
	if err := assets.LoadAssets(); err != nil {
		scene.fail(fmt.Errorf("loading assets: %w", err))
		engo.Exit()
		return
	}
	scene.renderer = NewRenderer(world, assets, nil)
	NewHUD(scene.renderer, assets.Font(), scene.sim.Flight.Tuning().MaxThrust)

	var target render.Renderer = scene.renderer
	if scene.extra != nil {
		target = render.Multi{scene.renderer, scene.extra}
	}
	world.AddSystem(&flightSystem{ctx: scene.ctx, sim: scene.sim, target: target})

	scene.sim.EventBus.Subscribe(event.FlightCrashed, func(e event.Event) {
		if fe, ok := e.(*event.FlightEvent); ok {
			scene.logger.Debug(scene.ctx, "crash shown", "tick", fe.Tick)
		}
	})
	scene.sim.Start(scene.ctx)
}

// fail records the error Run reports once the window closes
func (scene *FlightScene) fail(err error) {
	scene.logger.Error(scene.ctx, "flight scene setup failed", err)
	if scene.err == nil {
		scene.err = err
	}
}

// Err returns the setup failure, if any
func (scene *FlightScene) Err() error {
	return scene.err
}

// Exit is called by engo while the window closes.
func (scene *FlightScene) Exit() {
	scene.sim.Stop(scene.ctx)
}

// flightSystem ticks the simulation once per engo update
type flightSystem struct {
	ctx    context.Context
	sim    *engine.Simulation
	target render.Renderer
}

// Update implements ecs.System.
func (s *flightSystem) Update(dt float32) {
	if s.ctx.Err() != nil {
		engo.Exit()
		return
	}
	s.sim.Step(s.ctx, s.target)
	if limit := s.sim.Config.Loop.MaxTicks; limit > 0 && s.sim.Ticks() >= limit {
		engo.Exit()
	}
}

// Remove implements ecs.System.
func (s *flightSystem) Remove(ecs.BasicEntity) {}

// Run opens a window and blocks until it closes. It returns the error
// that prevented the scene from starting, if any.
func Run(ctx context.Context, sim *engine.Simulation, extra render.Renderer, logger *logging.Logger) error {
	opts := engo.RunOptions{
		Title:          "go-flightsim",
		Width:          int(sim.Config.Arena.Width),
		Height:         int(sim.Config.Arena.Height),
		StandardInputs: false,
		VSync:          true,
	}
	scene := NewFlightScene(ctx, sim, extra, logger)
	engo.Run(opts, scene)
	sim.Stop(ctx)
	return scene.Err()
}
