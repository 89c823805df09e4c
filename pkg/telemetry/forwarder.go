package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

const forwarderQueue = 128

// Forwarder is a renderer that pushes frames to an upstream websocket
// collector. Sends go through a circuit breaker: while the collector is
// down frames are dropped immediately instead of each waiting on a dial.
type Forwarder struct {
	frameBuilder

	url          string
	header       http.Header
	dialer       *websocket.Dialer
	breaker      *gobreaker.CircuitBreaker
	logger       *logging.Logger
	writeTimeout time.Duration

	frames  chan []byte
	conn    *websocket.Conn // owned by the run goroutine
	sent    atomic.Uint64
	dropped atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewForwarder creates a forwarder for cfg.UpstreamURL. Call Start to
// begin sending.
func NewForwarder(cfg config.TelemetryConfig, logger *logging.Logger) (*Forwarder, error) {
	u, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid telemetry upstream: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid telemetry upstream %q: scheme must be ws or wss", cfg.UpstreamURL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	header := http.Header{}
	if cfg.UpstreamToken != "" {
		header.Set("Authorization", "Bearer "+cfg.UpstreamToken)
	}
	writeTimeout := cfg.WriteTimeout.Std()
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}

	maxFails := uint32(cfg.CircuitBreakerMaxConsecutiveFails)
	if maxFails == 0 {
		maxFails = 1
	}
	settings := gobreaker.Settings{
		Name:        "telemetry-upstream",
		MaxRequests: uint32(cfg.CircuitBreakerMaxRequests),
		Interval:    cfg.CircuitBreakerInterval.Std(),
		Timeout:     cfg.CircuitBreakerTimeout.Std(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Forwarder{
		url:          u.String(),
		header:       header,
		dialer:       &websocket.Dialer{HandshakeTimeout: writeTimeout},
		breaker:      gobreaker.NewCircuitBreaker(settings),
		logger:       logger,
		writeTimeout: writeTimeout,
		frames:       make(chan []byte, forwarderQueue),
	}, nil
}

// Start launches the send goroutine. It runs until ctx is cancelled or
// Close is called.
func (f *Forwarder) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != nil {
		return
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer f.disconnect()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-f.frames:
				f.send(ctx, data)
			}
		}
	}(f.done)
}

// Close stops the send goroutine and closes the upstream connection
func (f *Forwarder) Close() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

// Present queues the finished frame. A full queue drops the frame.
func (f *Forwarder) Present() {
	frame := f.finish()
	data, err := json.Marshal(frame)
	if err != nil {
		f.logger.Error(context.Background(), "failed to encode telemetry frame", err, "seq", frame.Seq)
		return
	}
	select {
	case f.frames <- data:
	default:
		f.dropped.Add(1)
	}
}

func (f *Forwarder) send(ctx context.Context, data []byte) {
	_, err := f.breaker.Execute(func() (interface{}, error) {
		return nil, f.write(ctx, data)
	})
	switch {
	case err == nil:
		f.sent.Add(1)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		f.dropped.Add(1)
	default:
		f.dropped.Add(1)
		f.logger.Warn(ctx, "telemetry upstream send failed",
			"error", err,
			"state", f.breaker.State().String(),
		)
	}
}

func (f *Forwarder) write(ctx context.Context, data []byte) error {
	if f.conn == nil {
		conn, _, err := f.dialer.DialContext(ctx, f.url, f.header)
		if err != nil {
			return fmt.Errorf("dial %s: %w", f.url, err)
		}
		f.conn = conn
		f.logger.Info(ctx, "telemetry upstream connected", "url", f.url)
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
	if err := f.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		f.disconnect()
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (f *Forwarder) disconnect() {
	if f.conn == nil {
		return
	}
	f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(f.writeTimeout))
	f.conn.Close()
	f.conn = nil
}

// State returns the circuit breaker state
func (f *Forwarder) State() gobreaker.State {
	return f.breaker.State()
}

// Counts returns the circuit breaker counters
func (f *Forwarder) Counts() gobreaker.Counts {
	return f.breaker.Counts()
}

// Sent returns how many frames reached the upstream
func (f *Forwarder) Sent() uint64 {
	return f.sent.Load()
}

// Dropped returns how many frames were discarded
func (f *Forwarder) Dropped() uint64 {
	return f.dropped.Load()
}
