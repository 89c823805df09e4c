package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// collector is a fake upstream that records frames and auth headers
type collector struct {
	frames chan Frame
	auth   chan string
}

func newCollector() (*collector, *httptest.Server) {
	c := &collector{frames: make(chan Frame, 16), auth: make(chan string, 4)}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f Frame
			if json.Unmarshal(data, &f) == nil {
				c.frames <- f
			}
		}
	}))
	return c, srv
}

func testTelemetryConfig(upstream string) config.TelemetryConfig {
	cfg := config.DefaultConfig().Telemetry
	cfg.UpstreamURL = upstream
	return cfg
}

func TestNewForwarderValidatesURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"ws://localhost:9000/frames", false},
		{"wss://collector.example/frames", false},
		{"http://localhost:9000", true},
		{"", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := NewForwarder(testTelemetryConfig(tt.url), nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewForwarder(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNewForwarderRejectsNegativeBreakerSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.TelemetryConfig)
	}{
		{"max_requests", func(c *config.TelemetryConfig) { c.CircuitBreakerMaxRequests = -1 }},
		{"consecutive_fails", func(c *config.TelemetryConfig) { c.CircuitBreakerMaxConsecutiveFails = -5 }},
		{"timeout", func(c *config.TelemetryConfig) { c.CircuitBreakerTimeout = config.Duration(-time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTelemetryConfig("ws://localhost:9000/frames")
			tt.modify(&cfg)
			if _, err := NewForwarder(cfg, nil); !errors.Is(err, config.ErrInvalidTelemetry) {
				t.Errorf("NewForwarder() error = %v, want %v", err, config.ErrInvalidTelemetry)
			}
		})
	}
}

func TestForwarderSendsFrames(t *testing.T) {
	c, srv := newCollector()
	defer srv.Close()

	cfg := testTelemetryConfig("ws" + strings.TrimPrefix(srv.URL, "http"))
	cfg.UpstreamToken = "s3cret"
	f, err := NewForwarder(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.Start(context.Background())
	defer f.Close()

	drawFrame(f, physics.FlightView{Position: physics.Vector2D{X: 1, Y: 2}, Status: physics.Flying})
	drawFrame(f, physics.FlightView{Position: physics.Vector2D{X: 3, Y: 4}, Status: physics.Flying})

	select {
	case auth := <-c.auth:
		if auth != "Bearer s3cret" {
			t.Errorf("Authorization = %q", auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder never connected")
	}

	for want := uint64(1); want <= 2; want++ {
		select {
		case frame := <-c.frames:
			if frame.Seq != want {
				t.Errorf("seq = %d, want %d", frame.Seq, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never arrived", want)
		}
	}
	waitFor(t, "sent count", func() bool { return f.Sent() == 2 })
	if f.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", f.State())
	}
}

func TestForwarderOpensBreaker(t *testing.T) {
	// Nothing listens on a closed test server's address.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	cfg := testTelemetryConfig(addr)
	cfg.CircuitBreakerMaxConsecutiveFails = 2
	cfg.CircuitBreakerTimeout = config.Duration(time.Minute)
	f, err := NewForwarder(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	f.send(ctx, []byte(`{}`))
	if f.State() != gobreaker.StateClosed {
		t.Fatalf("one failure should not trip the breaker, state = %v", f.State())
	}
	f.send(ctx, []byte(`{}`))
	if f.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", f.State())
	}

	before := f.Counts().Requests
	f.send(ctx, []byte(`{}`))
	if f.Counts().Requests != before {
		t.Error("open breaker should reject without attempting a request")
	}
	if f.Dropped() != 3 || f.Sent() != 0 {
		t.Errorf("sent=%d dropped=%d, want 0 and 3", f.Sent(), f.Dropped())
	}
}

func TestForwarderDropsWhenQueueFull(t *testing.T) {
	f, err := NewForwarder(testTelemetryConfig("ws://127.0.0.1:1/frames"), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Not started, so nothing drains the queue.
	for i := 0; i < forwarderQueue+5; i++ {
		drawFrame(f, physics.FlightView{})
	}
	if f.Dropped() != 5 {
		t.Errorf("dropped = %d, want 5", f.Dropped())
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() on an unstarted forwarder = %v", err)
	}
}
