// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

// SimConfig contains configuration for one flight simulation run
type SimConfig struct {
	Arena     ArenaConfig     `json:"arena" yaml:"arena"`
	Start     StartConfig     `json:"start" yaml:"start"`
	Physics   PhysicsConfig   `json:"physics" yaml:"physics"`
	Course    string          `json:"course,omitempty" yaml:"course,omitempty"`
	Obstacles []physics.Zone  `json:"obstacles" yaml:"obstacles"`
	Scenery   render.Scenery  `json:"scenery" yaml:"scenery"`
	Loop      LoopConfig      `json:"loop" yaml:"loop"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Health    HealthConfig    `json:"health" yaml:"health"`
}

// ArenaConfig is the initial viewport extent. A windowed host replaces it
// with the live surface size every tick.
type ArenaConfig struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// StartConfig is the pose a flight starts from and resets to
type StartConfig struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// PhysicsConfig contains the flight tuning constants
type PhysicsConfig struct {
	MaxThrust       float64 `json:"maxThrust" yaml:"maxThrust"`
	ThrottleStep    float64 `json:"throttleStep" yaml:"throttleStep"`
	RotationSpeed   float64 `json:"rotationSpeed" yaml:"rotationSpeed"`
	TurnSmoothing   float64 `json:"turnSmoothing" yaml:"turnSmoothing"`
	PitchSpeed      float64 `json:"pitchSpeed" yaml:"pitchSpeed"`
	AirResistance   float64 `json:"airResistance" yaml:"airResistance"`
	DragCoefficient float64 `json:"dragCoefficient" yaml:"dragCoefficient"`
	PitchMode       string  `json:"pitchMode" yaml:"pitchMode"`
	CrashMargin     float64 `json:"crashMargin" yaml:"crashMargin"`
}

// LoopConfig controls the fixed-rate tick loop
type LoopConfig struct {
	TickRate float64  `json:"tickRate" yaml:"tickRate"` // ticks per second
	MaxTicks uint64   `json:"maxTicks" yaml:"maxTicks"` // 0 runs until stopped
	SlowTick Duration `json:"slowTick" yaml:"slowTick"` // ticks slower than this are logged
}

// TelemetryConfig configures the frame stream
type TelemetryConfig struct {
	ListenAddr    string   `json:"listenAddr" yaml:"listenAddr"`
	Path          string   `json:"path" yaml:"path"`
	UpstreamURL   string   `json:"upstreamURL" yaml:"upstreamURL"`
	UpstreamToken string   `json:"upstreamToken,omitempty" yaml:"upstreamToken,omitempty"`
	WriteTimeout  Duration `json:"writeTimeout" yaml:"writeTimeout"`

	// ConnectLimit caps observer upgrades per remote host per ConnectWindow.
	// Zero disables the cap.
	ConnectLimit  int      `json:"connectLimit" yaml:"connectLimit"`
	ConnectWindow Duration `json:"connectWindow" yaml:"connectWindow"`

	CircuitBreakerMaxRequests         int      `json:"circuitBreakerMaxRequests" yaml:"circuitBreakerMaxRequests"`
	CircuitBreakerInterval            Duration `json:"circuitBreakerInterval" yaml:"circuitBreakerInterval"`
	CircuitBreakerTimeout             Duration `json:"circuitBreakerTimeout" yaml:"circuitBreakerTimeout"`
	CircuitBreakerMaxConsecutiveFails int      `json:"circuitBreakerMaxConsecutiveFails" yaml:"circuitBreakerMaxConsecutiveFails"`
}

// HealthConfig configures the liveness and readiness endpoints
type HealthConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	StallTimeout Duration `json:"stallTimeout" yaml:"stallTimeout"`
	MaxMemoryMB  int64    `json:"maxMemoryMB" yaml:"maxMemoryMB"` // 0 disables the memory check
}

// Validation errors
var (
	ErrInvalidArena = errors.New("invalid arena")
	ErrInvalidZone  = errors.New("invalid obstacle zone")
	ErrInvalidLoop  = errors.New("invalid loop settings")

	ErrInvalidTelemetry = errors.New("invalid telemetry settings")
)

// LoadConfig loads a configuration from a JSON or YAML file. The format is
// picked from the extension; anything other than .yaml or .yml is JSON.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Course != "" {
		if err := ApplyCourseTemplate(cfg, cfg.Course); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// SaveConfig saves a configuration to a file in the format its extension names
func SaveConfig(cfg *SimConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// DefaultConfig returns the default 1280x720 tunnel course
func DefaultConfig() *SimConfig {
	tuning := physics.DefaultTuning()
	cfg := &SimConfig{
		Arena: ArenaConfig{Width: 1280, Height: 720},
		Start: StartConfig{X: 640, Y: 360},
		Physics: PhysicsConfig{
			MaxThrust:       tuning.MaxThrust,
			ThrottleStep:    tuning.ThrottleStep,
			RotationSpeed:   tuning.RotationSpeed,
			TurnSmoothing:   tuning.TurnSmoothing,
			PitchSpeed:      tuning.PitchSpeed,
			AirResistance:   tuning.AirResistance,
			DragCoefficient: tuning.DragCoefficient,
			PitchMode:       tuning.PitchMode.String(),
			CrashMargin:     tuning.CrashMargin,
		},
		Scenery: render.DefaultScenery(),
		Loop: LoopConfig{
			TickRate: 60,
			SlowTick: Duration(50 * time.Millisecond),
		},
		Telemetry: TelemetryConfig{
			Path:                              "/telemetry",
			WriteTimeout:                      Duration(time.Second),
			ConnectLimit:                      10,
			ConnectWindow:                     Duration(time.Minute),
			CircuitBreakerMaxRequests:         3,
			CircuitBreakerInterval:            Duration(60 * time.Second),
			CircuitBreakerTimeout:             Duration(30 * time.Second),
			CircuitBreakerMaxConsecutiveFails: 5,
		},
		Health: HealthConfig{
			StallTimeout: Duration(5 * time.Second),
			MaxMemoryMB:  256,
		},
	}
	cfg.Obstacles = GetCourseTemplate(DefaultCourse).Obstacles
	return cfg
}

// Validate checks the configuration for values the simulation cannot run with
func (c *SimConfig) Validate() error {
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("%w: size %vx%v must be positive", ErrInvalidArena, c.Arena.Width, c.Arena.Height)
	}

	tuning, err := c.Tuning()
	if err != nil {
		return err
	}
	if err := tuning.Validate(); err != nil {
		return err
	}

	// The start must survive the first bounds check, which uses the
	// arena inset by the crash margin.
	start := physics.Vector2D{X: c.Start.X, Y: c.Start.Y}
	flyable := physics.Rect{Width: c.Arena.Width, Height: c.Arena.Height}.Inset(tuning.CrashMargin)
	if !flyable.Encloses(start) {
		return fmt.Errorf("%w: start %v outside the flyable %vx%v arena (crash margin %v)",
			ErrInvalidArena, start, c.Arena.Width, c.Arena.Height, tuning.CrashMargin)
	}

	seen := make(map[string]bool, len(c.Obstacles))
	for i, z := range c.Obstacles {
		if z.Name == "" {
			return fmt.Errorf("%w: zone %d has no name", ErrInvalidZone, i)
		}
		if seen[z.Name] {
			return fmt.Errorf("%w: duplicate zone name %q", ErrInvalidZone, z.Name)
		}
		seen[z.Name] = true
		if z.Empty() {
			return fmt.Errorf("%w: zone %q has no area", ErrInvalidZone, z.Name)
		}
		if z.Contains(start) {
			return fmt.Errorf("%w: zone %q covers the start position", ErrInvalidZone, z.Name)
		}
	}

	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate %v must be positive", ErrInvalidLoop, c.Loop.TickRate)
	}
	return c.Telemetry.Validate()
}

// Validate rejects negative limits and durations. Breaker counts are
// converted to unsigned counters, so a negative value would wrap and the
// breaker would never trip.
func (t TelemetryConfig) Validate() error {
	switch {
	case t.ConnectLimit < 0:
		return fmt.Errorf("%w: connect limit %d is negative", ErrInvalidTelemetry, t.ConnectLimit)
	case t.ConnectLimit > 0 && t.ConnectWindow <= 0:
		return fmt.Errorf("%w: connect limit needs a positive window", ErrInvalidTelemetry)
	case t.CircuitBreakerMaxRequests < 0:
		return fmt.Errorf("%w: circuit breaker max requests %d is negative", ErrInvalidTelemetry, t.CircuitBreakerMaxRequests)
	case t.CircuitBreakerMaxConsecutiveFails < 0:
		return fmt.Errorf("%w: circuit breaker max consecutive fails %d is negative", ErrInvalidTelemetry, t.CircuitBreakerMaxConsecutiveFails)
	case t.CircuitBreakerInterval < 0:
		return fmt.Errorf("%w: circuit breaker interval %s is negative", ErrInvalidTelemetry, t.CircuitBreakerInterval)
	case t.CircuitBreakerTimeout < 0:
		return fmt.Errorf("%w: circuit breaker timeout %s is negative", ErrInvalidTelemetry, t.CircuitBreakerTimeout)
	case t.WriteTimeout < 0:
		return fmt.Errorf("%w: write timeout %s is negative", ErrInvalidTelemetry, t.WriteTimeout)
	}
	return nil
}

// Tuning converts the physics section into flight constants
func (c *SimConfig) Tuning() (physics.Tuning, error) {
	mode, err := physics.ParsePitchMode(c.Physics.PitchMode)
	if err != nil {
		return physics.Tuning{}, fmt.Errorf("%w: %v", physics.ErrInvalidTuning, err)
	}
	return physics.Tuning{
		MaxThrust:       c.Physics.MaxThrust,
		ThrottleStep:    c.Physics.ThrottleStep,
		RotationSpeed:   c.Physics.RotationSpeed,
		TurnSmoothing:   c.Physics.TurnSmoothing,
		PitchSpeed:      c.Physics.PitchSpeed,
		AirResistance:   c.Physics.AirResistance,
		DragCoefficient: c.Physics.DragCoefficient,
		PitchMode:       mode,
		CrashMargin:     c.Physics.CrashMargin,
	}, nil
}

// StartPose returns the configured start pose
func (c *SimConfig) StartPose() physics.Start {
	return physics.Start{
		Position: physics.Vector2D{X: c.Start.X, Y: c.Start.Y},
		Heading:  c.Start.Heading,
	}
}

// ObstacleZones returns a copy of the configured obstacles
func (c *SimConfig) ObstacleZones() []physics.Zone {
	return append([]physics.Zone(nil), c.Obstacles...)
}
