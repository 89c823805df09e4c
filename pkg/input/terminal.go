package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// DefaultHoldTicks is how long a terminal key press stays latched.
// Terminals deliver key repeats but never key releases, so a press counts
// as held until this many ticks pass without another repeat.
const DefaultHoldTicks = 8

// TerminalSampler reads keys from a raw-mode terminal. Arrow keys yaw and
// pitch, W/S move the throttle, R resets, Q or Ctrl-C asks to quit.
type TerminalSampler struct {
	mu        sync.Mutex
	tick      uint64
	lastPress [controlCount]uint64
	seen      [controlCount]bool
	hold      uint64

	quit     chan struct{}
	quitOnce sync.Once

	fd       int
	oldState *term.State
}

// NewTerminalSampler creates a sampler fed by Feed or Listen.
func NewTerminalSampler(holdTicks int) *TerminalSampler {
	if holdTicks <= 0 {
		holdTicks = DefaultHoldTicks
	}
	return &TerminalSampler{
		hold: uint64(holdTicks),
		quit: make(chan struct{}),
		fd:   -1,
	}
}

// Listen puts stdin into raw mode and decodes key presses until the
// reader fails. Call Close to restore the terminal.
func (t *TerminalSampler) Listen() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.fd = fd
	t.oldState = state

	go t.readLoop(os.Stdin)
	return nil
}

// Close restores the terminal mode changed by Listen.
func (t *TerminalSampler) Close() error {
	if t.oldState == nil {
		return nil
	}
	err := term.Restore(t.fd, t.oldState)
	t.oldState = nil
	return err
}

// Quit is closed once the user asks to leave.
func (t *TerminalSampler) Quit() <-chan struct{} {
	return t.quit
}

func (t *TerminalSampler) readLoop(r io.Reader) {
	br := bufio.NewReader(r)
	buf := make([]byte, 64)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			t.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Feed decodes raw terminal bytes and latches the controls they name.
// Latching a control releases its opposite, since a terminal never
// reports the earlier key going up.
func (t *TerminalSampler) Feed(data []byte) {
	controls, quit := decodeKeys(data)
	if quit {
		t.quitOnce.Do(func() { close(t.quit) })
	}

	t.mu.Lock()
	for _, c := range controls {
		t.lastPress[c] = t.tick
		t.seen[c] = true
		if opp, ok := c.Opposite(); ok {
			t.seen[opp] = false
		}
	}
	t.mu.Unlock()
}

// Sample implements Sampler. Each call advances the latch clock by one tick.
func (t *TerminalSampler) Sample() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Snapshot
	for c := Control(0); c < controlCount; c++ {
		if t.seen[c] && t.tick-t.lastPress[c] < t.hold {
			s = s.Set(c, true)
		}
	}
	t.tick++
	return s
}

// decodeKeys maps raw bytes, including ANSI arrow sequences, to controls.
func decodeKeys(data []byte) ([]Control, bool) {
	var (
		out  []Control
		quit bool
	)
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == 0x1b && i+2 < len(data) && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				out = append(out, PitchUp)
			case 'B':
				out = append(out, PitchDown)
			case 'C':
				out = append(out, YawRight)
			case 'D':
				out = append(out, YawLeft)
			}
			i += 2
			continue
		}
		switch b {
		case 'w', 'W':
			out = append(out, ThrottleUp)
		case 's', 'S':
			out = append(out, ThrottleDown)
		case 'r', 'R':
			out = append(out, Reset)
		case 'q', 'Q', 0x03:
			quit = true
		}
	}
	return out, quit
}
