package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewLoopDefaults(t *testing.T) {
	tests := []struct {
		hz   float64
		want time.Duration
	}{
		{60, time.Second / 60},
		{0, time.Second / 60},
		{-5, time.Second / 60},
		{100, 10 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := NewLoop(tt.hz, nil).StepDuration(); got != tt.want {
			t.Errorf("NewLoop(%v).StepDuration() = %v, want %v", tt.hz, got, tt.want)
		}
	}
}

func TestLoopStartStop(t *testing.T) {
	var steps atomic.Int64
	loop := NewLoop(500, func(step time.Duration) {
		if step != 2*time.Millisecond {
			t.Errorf("step = %v", step)
		}
		steps.Add(1)
	})

	loop.Start(context.Background())
	loop.Start(context.Background()) // second start is ignored
	time.Sleep(60 * time.Millisecond)
	loop.Stop()

	n := steps.Load()
	if n == 0 {
		t.Fatal("loop never stepped")
	}
	time.Sleep(20 * time.Millisecond)
	if steps.Load() != n {
		t.Error("loop kept stepping after Stop")
	}
	loop.Stop() // stopping twice is safe
}

func TestLoopStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(1000, nil)
	loop.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		loop.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after context cancel")
	}
}
