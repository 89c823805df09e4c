// pkg/render/scenery.go
package render

import "github.com/opd-ai/go-flightsim/pkg/physics"

// Scenery is decoration drawn behind the aircraft. It never takes part in
// collision checks.
type Scenery struct {
	Ground    physics.Rect       `json:"ground" yaml:"ground"`
	Mountains []Mountain         `json:"mountains" yaml:"mountains"`
	Trees     []physics.Vector2D `json:"trees" yaml:"trees"`
	Clouds    []physics.Rect     `json:"clouds" yaml:"clouds"`
}

// Mountain is a triangle standing on its base line.
type Mountain struct {
	BaseLeft  physics.Vector2D `json:"baseLeft" yaml:"baseLeft"`
	Peak      physics.Vector2D `json:"peak" yaml:"peak"`
	BaseRight physics.Vector2D `json:"baseRight" yaml:"baseRight"`
}

// Contains reports whether p lies inside the triangle, edges included.
func (m Mountain) Contains(p physics.Vector2D) bool {
	d1 := edgeSign(p, m.BaseLeft, m.Peak)
	d2 := edgeSign(p, m.Peak, m.BaseRight)
	d3 := edgeSign(p, m.BaseRight, m.BaseLeft)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func edgeSign(p, a, b physics.Vector2D) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

// DefaultScenery is the 1280x720 backdrop: a ground strip, two mountains,
// a row of trees and two clouds.
func DefaultScenery() Scenery {
	trees := make([]physics.Vector2D, 0, 10)
	for _, x := range []float64{100, 200, 300, 500, 600, 700, 800, 900, 1000, 1100} {
		trees = append(trees, physics.Vector2D{X: x, Y: 650})
	}
	return Scenery{
		Ground: physics.Rect{X: 0, Y: 650, Width: 1280, Height: 70},
		Mountains: []Mountain{
			{BaseLeft: physics.Vector2D{X: 0, Y: 650}, Peak: physics.Vector2D{X: 200, Y: 450}, BaseRight: physics.Vector2D{X: 400, Y: 650}},
			{BaseLeft: physics.Vector2D{X: 400, Y: 650}, Peak: physics.Vector2D{X: 600, Y: 500}, BaseRight: physics.Vector2D{X: 800, Y: 650}},
		},
		Trees: trees,
		Clouds: []physics.Rect{
			{X: 300, Y: 150, Width: 200, Height: 80},
			{X: 800, Y: 250, Width: 250, Height: 90},
		},
	}
}
