package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvArenaWidth       = "FLIGHTSIM_ARENA_WIDTH"
	EnvArenaHeight      = "FLIGHTSIM_ARENA_HEIGHT"
	EnvCourse           = "FLIGHTSIM_COURSE"
	EnvPitchMode        = "FLIGHTSIM_PITCH_MODE"
	EnvCrashMargin      = "FLIGHTSIM_CRASH_MARGIN"
	EnvTickRate         = "FLIGHTSIM_TICK_RATE"
	EnvMaxTicks         = "FLIGHTSIM_MAX_TICKS"
	EnvTelemetryAddr    = "FLIGHTSIM_TELEMETRY_ADDR"
	EnvUpstreamURL      = "FLIGHTSIM_UPSTREAM_URL"
	EnvUpstreamToken    = "FLIGHTSIM_UPSTREAM_TOKEN"
	EnvHealthAddr       = "FLIGHTSIM_HEALTH_ADDR"
	EnvHealthStallAfter = "FLIGHTSIM_HEALTH_STALL_TIMEOUT"
)

// ApplyEnvironmentOverrides overlays FLIGHTSIM_* variables onto cfg.
// Unset variables leave the current value alone.
func ApplyEnvironmentOverrides(cfg *SimConfig) error {
	var err error
	if cfg.Arena.Width, err = getEnvFloat(EnvArenaWidth, cfg.Arena.Width); err != nil {
		return err
	}
	if cfg.Arena.Height, err = getEnvFloat(EnvArenaHeight, cfg.Arena.Height); err != nil {
		return err
	}
	if course := os.Getenv(EnvCourse); course != "" {
		if err := ApplyCourseTemplate(cfg, course); err != nil {
			return err
		}
	}
	cfg.Physics.PitchMode = getEnvString(EnvPitchMode, cfg.Physics.PitchMode)
	if cfg.Physics.CrashMargin, err = getEnvFloat(EnvCrashMargin, cfg.Physics.CrashMargin); err != nil {
		return err
	}
	if cfg.Loop.TickRate, err = getEnvFloat(EnvTickRate, cfg.Loop.TickRate); err != nil {
		return err
	}
	if cfg.Loop.MaxTicks, err = getEnvUint(EnvMaxTicks, cfg.Loop.MaxTicks); err != nil {
		return err
	}
	cfg.Telemetry.ListenAddr = getEnvString(EnvTelemetryAddr, cfg.Telemetry.ListenAddr)
	cfg.Telemetry.UpstreamURL = getEnvString(EnvUpstreamURL, cfg.Telemetry.UpstreamURL)
	cfg.Telemetry.UpstreamToken = getEnvString(EnvUpstreamToken, cfg.Telemetry.UpstreamToken)
	cfg.Health.Addr = getEnvString(EnvHealthAddr, cfg.Health.Addr)
	stall, err := getEnvDuration(EnvHealthStallAfter, cfg.Health.StallTimeout.Std())
	if err != nil {
		return err
	}
	cfg.Health.StallTimeout = Duration(stall)
	return nil
}

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getEnvUint(key string, def uint64) (uint64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
