// pkg/render/engo/hud.go
package engo

import (
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

const (
	gaugeX      = 16
	gaugeY      = 16
	gaugeWidth  = 200
	gaugeHeight = 12
)

// HUD shows a throttle gauge and the crash message
type HUD struct {
	maxThrust float64
	frame     *shape
	gauge     *shape
	banner    *shape
}

// NewHUD creates the HUD entities in r's render system. The gauge is full
// at maxThrust.
func NewHUD(r *Renderer, font *common.Font, maxThrust float64) *HUD {
	h := &HUD{maxThrust: maxThrust}
	h.frame = r.add(newShape(common.Rectangle{}, gaugeFrame, zHUD, engo.Point{X: gaugeX, Y: gaugeY}, gaugeWidth, gaugeHeight))
	h.gauge = r.add(newShape(common.Rectangle{}, gaugeColor, zHUD+0.5, engo.Point{X: gaugeX, Y: gaugeY}, 0, gaugeHeight))
	if font != nil {
		h.banner = r.add(newShape(common.Text{Font: font, Text: render.CrashBanner}, crashColor, zHUD, engo.Point{}, 0, 0))
		h.banner.Hidden = true
	}
	r.hud = h
	return h
}

// Update refreshes the HUD for a frame
func (h *HUD) Update(view physics.FlightView) {
	h.gauge.Width = gaugeFill(view.Throttle, h.maxThrust, gaugeWidth)
	if h.banner == nil {
		return
	}
	h.banner.Hidden = view.Status != physics.Crashed
	if !h.banner.Hidden {
		h.banner.Position = engo.Point{X: engo.GameWidth()/2 - 360, Y: engo.GameHeight()/2 - 50}
	}
}

// gaugeFill maps throttle onto the gauge width
func gaugeFill(throttle, maxThrust float64, full float32) float32 {
	if maxThrust <= 0 {
		return 0
	}
	ratio := throttle / maxThrust
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return float32(ratio) * full
}
