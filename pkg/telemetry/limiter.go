package telemetry

import (
	"sync"
	"time"
)

// connectLimiter is a per-host token bucket for websocket upgrades.
// Hosts idle for two windows are pruned on the next call.
type connectLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	hosts     map[string]*bucket
	lastPrune time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

func newConnectLimiter(limit int, window time.Duration) *connectLimiter {
	return &connectLimiter{
		max:    limit,
		window: window,
		now:    time.Now,
		hosts:  make(map[string]*bucket),
	}
}

// allow spends one token for host, refilling at max tokens per window
func (l *connectLimiter) allow(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	b, ok := l.hosts[host]
	if !ok {
		b = &bucket{tokens: float64(l.max), lastRefill: now}
		l.hosts[host] = b
	}
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += float64(l.max) * float64(elapsed) / float64(l.window)
		if b.tokens > float64(l.max) {
			b.tokens = float64(l.max)
		}
		b.lastRefill = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *connectLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	cutoff := now.Add(-2 * l.window)
	for host, b := range l.hosts {
		if b.lastRefill.Before(cutoff) {
			delete(l.hosts, host)
		}
	}
}

func (l *connectLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}
