package engine

import (
	"context"
	"sync"
	"time"
)

// StepFunc advances the simulation by one fixed timestep.
type StepFunc func(step time.Duration)

// Loop drives a fixed timestep at a target frequency. Elapsed wall time is
// accumulated and drained in whole steps, so a late wakeup catches up
// instead of stretching the step.
type Loop struct {
	step     time.Duration
	stepFunc StepFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop configures a loop at targetHz steps per second. A non-positive
// rate falls back to 60.
func NewLoop(targetHz float64, step StepFunc) *Loop {
	if targetHz <= 0 {
		targetHz = 60
	}
	if step == nil {
		step = func(time.Duration) {}
	}
	interval := time.Duration(float64(time.Second) / targetHz)
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Loop{step: interval, stepFunc: step}
}

// Start begins ticking until ctx is cancelled or Stop is called. Starting
// a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	ticker := time.NewTicker(l.step)

	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		last := time.Now()
		var accumulator time.Duration
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				accumulator += now.Sub(last)
				last = now
				for accumulator >= l.step {
					if ctx.Err() != nil {
						return
					}
					l.stepFunc(l.step)
					accumulator -= l.step
				}
			}
		}
	}(l.done)
}

// Stop cancels the loop and waits for the goroutine to exit
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// StepDuration returns the configured timestep
func (l *Loop) StepDuration() time.Duration {
	return l.step
}
