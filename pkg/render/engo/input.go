// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-flightsim/pkg/input"
)

// Button names registered with engo.Input
const (
	ButtonYawLeft      = "yawLeft"
	ButtonYawRight     = "yawRight"
	ButtonPitchUp      = "pitchUp"
	ButtonPitchDown    = "pitchDown"
	ButtonThrottleUp   = "throttleUp"
	ButtonThrottleDown = "throttleDown"
	ButtonReset        = "reset"
)

// buttonControls pairs every button with the control it drives
var buttonControls = []struct {
	button  string
	control input.Control
	keys    []engo.Key
}{
	{ButtonYawLeft, input.YawLeft, []engo.Key{engo.KeyArrowLeft}},
	{ButtonYawRight, input.YawRight, []engo.Key{engo.KeyArrowRight}},
	{ButtonPitchUp, input.PitchUp, []engo.Key{engo.KeyArrowUp}},
	{ButtonPitchDown, input.PitchDown, []engo.Key{engo.KeyArrowDown}},
	{ButtonThrottleUp, input.ThrottleUp, []engo.Key{engo.KeyW}},
	{ButtonThrottleDown, input.ThrottleDown, []engo.Key{engo.KeyS}},
	{ButtonReset, input.Reset, []engo.Key{engo.KeyR}},
}

// SetupInputBindings registers the flight controls with engo
func SetupInputBindings() {
	for _, b := range buttonControls {
		engo.Input.RegisterButton(b.button, b.keys...)
	}
}

// KeyboardSampler reads the registered engo buttons. It must be sampled
// on the engo update goroutine.
type KeyboardSampler struct{}

// Sample implements input.Sampler.
func (KeyboardSampler) Sample() input.Snapshot {
	return snapshotFrom(func(name string) bool {
		return engo.Input.Button(name).Down()
	})
}

// snapshotFrom builds a snapshot from a button state lookup
func snapshotFrom(down func(button string) bool) input.Snapshot {
	var s input.Snapshot
	for _, b := range buttonControls {
		s = s.Set(b.control, down(b.button))
	}
	return s
}
