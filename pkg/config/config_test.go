// pkg/config/config_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Arena.Width != 1280 || cfg.Arena.Height != 720 {
		t.Errorf("arena = %vx%v, want 1280x720", cfg.Arena.Width, cfg.Arena.Height)
	}
	if len(cfg.Obstacles) != 2 {
		t.Fatalf("expected 2 default obstacles, got %d", len(cfg.Obstacles))
	}
	if cfg.Obstacles[0].Name != "left_wall" || cfg.Obstacles[0].X != 300 {
		t.Errorf("unexpected first obstacle %+v", cfg.Obstacles[0])
	}

	tuning, err := cfg.Tuning()
	if err != nil {
		t.Fatalf("Tuning() failed: %v", err)
	}
	if tuning != physics.DefaultTuning() {
		t.Errorf("Tuning() = %+v, want defaults", tuning)
	}

	start := cfg.StartPose()
	if start.Position != (physics.Vector2D{X: 640, Y: 360}) || start.Heading != 0 {
		t.Errorf("StartPose() = %+v", start)
	}
}

func TestObstacleZonesCopies(t *testing.T) {
	cfg := DefaultConfig()
	zones := cfg.ObstacleZones()
	zones[0].Name = "changed"
	if cfg.Obstacles[0].Name != "left_wall" {
		t.Error("ObstacleZones should return a copy")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	for _, name := range []string{"sim.json", "sim.yaml", "sim.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := DefaultConfig()
			cfg.Arena.Width = 800
			cfg.Physics.PitchMode = "heading"
			cfg.Health.StallTimeout = Duration(2 * time.Second)

			if err := SaveConfig(cfg, path); err != nil {
				t.Fatalf("SaveConfig() failed: %v", err)
			}
			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() failed: %v", err)
			}

			if loaded.Arena.Width != 800 {
				t.Errorf("arena width = %v, want 800", loaded.Arena.Width)
			}
			if loaded.Physics.PitchMode != "heading" {
				t.Errorf("pitch mode = %q, want heading", loaded.Physics.PitchMode)
			}
			if loaded.Health.StallTimeout.Std() != 2*time.Second {
				t.Errorf("stall timeout = %v, want 2s", loaded.Health.StallTimeout)
			}
			if len(loaded.Obstacles) != 2 || loaded.Obstacles[1] != cfg.Obstacles[1] {
				t.Errorf("obstacles did not round trip: %+v", loaded.Obstacles)
			}
		})
	}
}

func TestLoadConfigYAMLPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := `
arena:
  width: 640
  height: 480
start:
  x: 100
  y: 100
obstacles:
  - name: block
    x: 200
    y: 50
    width: 10
    height: 10
loop:
  slowTick: 20ms
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}

	want := physics.Zone{Name: "block", Rect: physics.Rect{X: 200, Y: 50, Width: 10, Height: 10}}
	if len(cfg.Obstacles) != 1 || cfg.Obstacles[0] != want {
		t.Errorf("obstacles = %+v, want [%+v]", cfg.Obstacles, want)
	}
	// Unset sections keep their defaults.
	if cfg.Loop.TickRate != 60 {
		t.Errorf("tick rate = %v, want default 60", cfg.Loop.TickRate)
	}
	if cfg.Loop.SlowTick.Std() != 20*time.Millisecond {
		t.Errorf("slow tick = %v, want 20ms", cfg.Loop.SlowTick)
	}
}

func TestLoadConfigCourse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, []byte(`{"course": "open_sky"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if len(cfg.Obstacles) != 0 {
		t.Errorf("open_sky should clear obstacles, got %+v", cfg.Obstacles)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	unknownCourse := filepath.Join(dir, "course.json")
	if err := os.WriteFile(unknownCourse, []byte(`{"course": "nowhere"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"malformed json", bad},
		{"unknown course", unknownCourse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SimConfig)
		want   error
	}{
		{"zero width", func(c *SimConfig) { c.Arena.Width = 0 }, ErrInvalidArena},
		{"start outside arena", func(c *SimConfig) { c.Start.X = 2000 }, ErrInvalidArena},
		{"negative thrust", func(c *SimConfig) { c.Physics.MaxThrust = -1 }, physics.ErrInvalidTuning},
		{"unknown pitch mode", func(c *SimConfig) { c.Physics.PitchMode = "sideways" }, physics.ErrInvalidTuning},
		{"unnamed zone", func(c *SimConfig) { c.Obstacles[0].Name = "" }, ErrInvalidZone},
		{"duplicate zone", func(c *SimConfig) { c.Obstacles[1].Name = "left_wall" }, ErrInvalidZone},
		{"empty zone", func(c *SimConfig) { c.Obstacles[0].Width = 0 }, ErrInvalidZone},
		{"zone over start", func(c *SimConfig) {
			c.Obstacles = append(c.Obstacles, physics.Zone{Name: "spawn", Rect: physics.Rect{X: 600, Y: 300, Width: 100, Height: 100}})
		}, ErrInvalidZone},
		{"start on right edge", func(c *SimConfig) { c.Start.X = c.Arena.Width }, nil},
		{"start inside crash margin", func(c *SimConfig) {
			c.Start.X = 10
			c.Physics.CrashMargin = 20
		}, ErrInvalidArena},
		{"start below crash margin", func(c *SimConfig) {
			c.Start.Y = c.Arena.Height - 5
			c.Physics.CrashMargin = 10
		}, ErrInvalidArena},
		{"zero tick rate", func(c *SimConfig) { c.Loop.TickRate = 0 }, ErrInvalidLoop},
		{"negative connect limit", func(c *SimConfig) { c.Telemetry.ConnectLimit = -1 }, ErrInvalidTelemetry},
		{"connect limit without window", func(c *SimConfig) { c.Telemetry.ConnectWindow = 0 }, ErrInvalidTelemetry},
		{"negative breaker max requests", func(c *SimConfig) { c.Telemetry.CircuitBreakerMaxRequests = -1 }, ErrInvalidTelemetry},
		{"negative breaker consecutive fails", func(c *SimConfig) { c.Telemetry.CircuitBreakerMaxConsecutiveFails = -5 }, ErrInvalidTelemetry},
		{"negative breaker interval", func(c *SimConfig) { c.Telemetry.CircuitBreakerInterval = Duration(-time.Second) }, ErrInvalidTelemetry},
		{"negative breaker timeout", func(c *SimConfig) { c.Telemetry.CircuitBreakerTimeout = Duration(-time.Second) }, ErrInvalidTelemetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCourseTemplates(t *testing.T) {
	names := ListCourseTemplates()
	if len(names) != 3 || names[0] != "open_sky" || names[1] != "slalom" || names[2] != "tunnel" {
		t.Errorf("ListCourseTemplates() = %v", names)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ApplyCourseTemplate(cfg, name); err != nil {
				t.Fatalf("ApplyCourseTemplate() failed: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("course %s does not validate: %v", name, err)
			}
			if GetCourseTemplate(name).Description == "" {
				t.Error("template should have a description")
			}
		})
	}

	if got := GetCourseTemplate("unknown"); got.Name != DefaultCourse {
		t.Errorf("unknown template should fall back to %s, got %s", DefaultCourse, got.Name)
	}
	if err := ApplyCourseTemplate(DefaultConfig(), "unknown"); !errors.Is(err, ErrInvalidZone) {
		t.Errorf("ApplyCourseTemplate(unknown) = %v", err)
	}
}

func TestDurationJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{`"1.5s"`, 1500 * time.Millisecond, false},
		{`1000`, time.Microsecond, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && d.Std() != tt.want {
				t.Errorf("UnmarshalJSON(%s) = %v, want %v", tt.in, d, tt.want)
			}
		})
	}
}
