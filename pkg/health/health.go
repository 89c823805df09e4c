// Package health serves liveness and readiness probes for a running
// simulation. Readiness fails when the tick loop stalls or the telemetry
// upstream circuit is open.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// HealthCheck is one component's readiness probe.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthStatus is the readiness response body
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth reports a single check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthChecker runs registered checks on demand.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a checker with no checks; it reports healthy
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]HealthCheck)}
}

// AddCheck registers check, replacing any check with the same name
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck unregisters the named check
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in sorted order
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check. One failure makes the whole status unhealthy.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: statusHealthy,
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}
	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = statusUnhealthy
			status.Checks[name] = ComponentHealth{Status: statusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: statusHealthy}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve HTTP at all
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == statusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// Handler routes /healthz and /readyz
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hc.LivenessHandler)
	mux.HandleFunc("/readyz", hc.ReadinessHandler)
	return mux
}

// SimulationHealthCheck fails when the simulation is stopped or has not
// completed a tick within the stall timeout.
type SimulationHealthCheck struct {
	status       func() (running bool, lastTick time.Time)
	stallTimeout time.Duration
	now          func() time.Time
}

// NewSimulationHealthCheck creates a stall check. A non-positive timeout
// only checks that the simulation is running.
func NewSimulationHealthCheck(status func() (bool, time.Time), stallTimeout time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{status: status, stallTimeout: stallTimeout, now: time.Now}
}

// Name implements HealthCheck.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check implements HealthCheck.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	running, last := s.status()
	if !running {
		return fmt.Errorf("simulation is not running")
	}
	if s.stallTimeout <= 0 || last.IsZero() {
		return nil
	}
	if since := s.now().Sub(last); since > s.stallTimeout {
		return fmt.Errorf("no tick for %s (limit %s)", since.Round(time.Millisecond), s.stallTimeout)
	}
	return nil
}

// TelemetryHealthCheck fails while the upstream circuit breaker is open.
type TelemetryHealthCheck struct {
	state func() gobreaker.State
}

// NewTelemetryHealthCheck creates a check reading the breaker state
func NewTelemetryHealthCheck(state func() gobreaker.State) *TelemetryHealthCheck {
	return &TelemetryHealthCheck{state: state}
}

// Name implements HealthCheck.
func (t *TelemetryHealthCheck) Name() string {
	return "telemetry"
}

// Check implements HealthCheck.
func (t *TelemetryHealthCheck) Check(ctx context.Context) error {
	if state := t.state(); state == gobreaker.StateOpen {
		return fmt.Errorf("telemetry upstream circuit is %s", state)
	}
	return nil
}

// MemoryHealthCheck fails when heap usage exceeds a limit.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a memory check; getMemoryUsage reports MB
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{maxMemoryMB: maxMemoryMB, getMemoryUsage: getMemoryUsage}
}

// Name implements HealthCheck.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check implements HealthCheck.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	if current := m.getMemoryUsage(); current > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMemoryMB)
	}
	return nil
}
