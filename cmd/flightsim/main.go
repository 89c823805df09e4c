// cmd/flightsim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/health"
	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/render"
	engorender "github.com/opd-ai/go-flightsim/pkg/render/engo"
	"github.com/opd-ai/go-flightsim/pkg/telemetry"
)

type options struct {
	configPath    string
	createDefault bool
	renderer      string
	width         int
	height        int
	ticks         uint64
	autopilot     string
	course        string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("flightsim", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "flightsim.json", "Path to configuration file (.json, .yaml or .yml)")
	fs.BoolVar(&opts.createDefault, "default", false, "Write the default configuration to -config and exit")
	fs.StringVar(&opts.renderer, "renderer", "terminal", "Renderer: terminal, engo or null")
	fs.IntVar(&opts.width, "width", 0, "Terminal columns (0 uses the terminal size)")
	fs.IntVar(&opts.height, "height", 0, "Terminal rows (0 uses the terminal size)")
	fs.Uint64Var(&opts.ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	fs.StringVar(&opts.autopilot, "autopilot", "", `Scripted input such as "throttleUp*60,yawLeft+throttleUp*30"`)
	fs.StringVar(&opts.course, "course", "", "Obstacle course template to load")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch opts.renderer {
	case "terminal", "engo", "null":
	default:
		return opts, fmt.Errorf("unknown renderer %q", opts.renderer)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// The terminal renderer owns stdout.
	var logOut io.Writer = os.Stdout
	if opts.renderer == "terminal" {
		logOut = os.Stderr
	}
	logger := logging.NewLoggerWithWriter(logOut)
	ctx := logging.WithRunID(context.Background(), logging.GenerateRunID())

	if opts.createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), opts.configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err, "config_path", opts.configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file", "config_path", opts.configPath)
		return
	}

	os.Exit(run(ctx, logger, opts))
}

// run wires and drives the simulation. It returns the exit code so that
// deferred cleanup, such as restoring the terminal, runs before exit.
func run(ctx context.Context, logger *logging.Logger, opts options) int {
	cfg, err := loadConfig(ctx, logger, opts)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", opts.configPath)
		return 1
	}

	sampler, closeInput, err := newSampler(opts)
	if err != nil {
		logger.Error(ctx, "Failed to set up input", err, "renderer", opts.renderer)
		return 1
	}
	defer closeInput()

	sim, err := engine.NewSimulation(cfg, sampler, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if ts, ok := sampler.(*input.TerminalSampler); ok {
		go func() {
			select {
			case <-ts.Quit():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	sinks, checks, closeTelemetry := startTelemetry(ctx, logger, cfg)
	defer closeTelemetry()

	healthServer := startHealthServer(ctx, logger, cfg, sim, checks)
	defer shutdownHealthServer(logger, healthServer)

	if opts.renderer == "engo" {
		var extra render.Renderer
		if len(sinks) > 0 {
			extra = sinks
		}
		if err := engorender.Run(ctx, sim, extra, logger); err != nil {
			logger.Error(ctx, "Window renderer failed", err)
			return 1
		}
		return 0
	}

	frames := append(render.Multi{primaryRenderer(opts, logger)}, sinks...)
	if err := sim.Run(ctx, frames); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		return 1
	}
	return 0
}

func loadConfig(ctx context.Context, logger *logging.Logger, opts options) (*config.SimConfig, error) {
	var cfg *config.SimConfig
	if _, err := os.Stat(opts.configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", opts.configPath,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, logging.WrapError(err, "applying environment overrides")
	}
	if opts.course != "" {
		if err := config.ApplyCourseTemplate(cfg, opts.course); err != nil {
			return nil, err
		}
	}
	if opts.ticks > 0 {
		cfg.Loop.MaxTicks = opts.ticks
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSampler picks the input source. A script always wins so headless
// runs are reproducible.
func newSampler(opts options) (input.Sampler, func(), error) {
	noop := func() {}
	if opts.autopilot != "" {
		script, err := input.ParseScript(opts.autopilot, false)
		if err != nil {
			return nil, noop, err
		}
		return script, noop, nil
	}

	switch opts.renderer {
	case "terminal":
		ts := input.NewTerminalSampler(input.DefaultHoldTicks)
		if err := ts.Listen(); err != nil {
			return nil, noop, err
		}
		return ts, func() { ts.Close() }, nil
	case "engo":
		// The scene installs the keyboard sampler once the window exists.
		return input.NullSampler{}, noop, nil
	default:
		return input.NullSampler{}, noop, nil
	}
}

func primaryRenderer(opts options, logger *logging.Logger) render.Renderer {
	if opts.renderer == "null" {
		return render.NewNullRenderer(logger)
	}
	width, height := opts.width, opts.height
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if width <= 0 {
			width = cols - 2
		}
		if height <= 0 {
			height = rows - 4
		}
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return render.NewTerminalRenderer(width, height, os.Stdout)
}

// startTelemetry wires the websocket hub and upstream forwarder when they
// are configured.
func startTelemetry(ctx context.Context, logger *logging.Logger, cfg *config.SimConfig) (render.Multi, []health.HealthCheck, func()) {
	var (
		sinks   render.Multi
		checks  []health.HealthCheck
		closers []func()
	)

	if cfg.Telemetry.ListenAddr != "" {
		hub := telemetry.NewHub(logger, cfg.Telemetry.WriteTimeout.Std())
		hub.SetConnectLimit(cfg.Telemetry.ConnectLimit, cfg.Telemetry.ConnectWindow.Std())
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Path, hub)
		srv := &http.Server{
			Addr:              cfg.Telemetry.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info(ctx, "Starting telemetry server",
				"address", cfg.Telemetry.ListenAddr,
				"path", cfg.Telemetry.Path,
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "Telemetry server failed", err)
			}
		}()
		sinks = append(sinks, hub)
		closers = append(closers, func() {
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Telemetry.UpstreamURL != "" {
		fwd, err := telemetry.NewForwarder(cfg.Telemetry, logger)
		if err != nil {
			logger.Error(ctx, "Telemetry forwarding disabled", err)
		} else {
			fwd.Start(ctx)
			sinks = append(sinks, fwd)
			checks = append(checks, health.NewTelemetryHealthCheck(fwd.State))
			closers = append(closers, func() { fwd.Close() })
		}
	}

	return sinks, checks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func startHealthServer(ctx context.Context, logger *logging.Logger, cfg *config.SimConfig, sim *engine.Simulation, extra []health.HealthCheck) *http.Server {
	if cfg.Health.Addr == "" {
		return nil
	}

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(func() (bool, time.Time) {
		st := sim.Status()
		return st.Running, st.LastTick
	}, cfg.Health.StallTimeout.Std()))
	if cfg.Health.MaxMemoryMB > 0 {
		checker.AddCheck(health.NewMemoryHealthCheck(cfg.Health.MaxMemoryMB, func() int64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return int64(m.Alloc / 1024 / 1024)
		}))
	}
	for _, c := range extra {
		checker.AddCheck(c)
	}

	srv := &http.Server{
		Addr:         cfg.Health.Addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server", "address", cfg.Health.Addr, "checks", checker.Names())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return srv
}

func shutdownHealthServer(logger *logging.Logger, srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}
}
