// pkg/render/engo/renderer.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/render"
)

// Draw order, back to front
const (
	zSky float32 = iota
	zCloud
	zMountain
	zGround
	zTree
	zZone
	zAircraft
	zHUD
)

// shape is a drawable entity in the render system
type shape struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// Renderer implements render.Renderer on top of the engo render system.
// Entities persist between frames; each frame only moves them.
type Renderer struct {
	renderSystem *common.RenderSystem
	assets       *AssetManager
	hud          *HUD

	sky      *shape
	scenery  []*shape
	built    bool
	zones    map[string]*shape
	seen     map[string]bool
	aircraft *shape
}

// NewRenderer creates a renderer drawing into the world's render system
func NewRenderer(world *ecs.World, assets *AssetManager, hud *HUD) *Renderer {
	r := &Renderer{
		assets: assets,
		hud:    hud,
		zones:  make(map[string]*shape),
		seen:   make(map[string]bool),
	}
	for _, system := range world.Systems() {
		if rs, ok := system.(*common.RenderSystem); ok {
			r.renderSystem = rs
		}
	}
	return r
}

func (r *Renderer) add(s *shape) *shape {
	if r.renderSystem != nil {
		r.renderSystem.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	}
	return s
}

func newShape(drawable common.Drawable, c color.Color, z float32, pos engo.Point, w, h float32) *shape {
	s := &shape{BasicEntity: ecs.NewBasic()}
	s.RenderComponent = common.RenderComponent{Drawable: drawable, Color: c}
	s.RenderComponent.SetZIndex(z)
	s.SpaceComponent = common.SpaceComponent{Position: pos, Width: w, Height: h}
	return s
}

// Clear implements render.Renderer.
func (r *Renderer) Clear() {
	for name := range r.seen {
		delete(r.seen, name)
	}
}

// RenderArena implements render.Renderer. Scenery is static and built on
// the first frame; the sky follows the arena size.
func (r *Renderer) RenderArena(bounds physics.Rect, scenery render.Scenery) {
	if r.sky == nil {
		r.sky = r.add(newShape(common.Rectangle{}, skyColor, zSky, engo.Point{}, 0, 0))
	}
	r.sky.Position = toPoint(physics.Vector2D{X: bounds.X, Y: bounds.Y})
	r.sky.Width, r.sky.Height = float32(bounds.Width), float32(bounds.Height)

	if r.built {
		return
	}
	r.built = true
	for _, s := range sceneryShapes(scenery) {
		r.scenery = append(r.scenery, r.add(s))
	}
}

// sceneryShapes lays out the decorative scenery as engo shapes
func sceneryShapes(sc render.Scenery) []*shape {
	var shapes []*shape
	for _, c := range sc.Clouds {
		shapes = append(shapes, rectShape(c, cloudColor, zCloud))
	}
	for _, m := range sc.Mountains {
		pos, w, h := mountainBox(m)
		shapes = append(shapes, newShape(common.Triangle{TriangleType: common.TriangleIsosceles}, earthColor, zMountain, pos, w, h))
	}
	if !sc.Ground.Empty() {
		shapes = append(shapes, rectShape(sc.Ground, groundColor, zGround))
	}
	for _, t := range sc.Trees {
		trunk, crown := treeRects(t)
		shapes = append(shapes, rectShape(trunk, earthColor, zTree), rectShape(crown, foliageColor, zTree))
	}
	return shapes
}

func rectShape(rect physics.Rect, c color.Color, z float32) *shape {
	return newShape(common.Rectangle{}, c, z, toPoint(physics.Vector2D{X: rect.X, Y: rect.Y}), float32(rect.Width), float32(rect.Height))
}

// mountainBox is the bounding box of an isosceles mountain
func mountainBox(m render.Mountain) (engo.Point, float32, float32) {
	left, right := m.BaseLeft.X, m.BaseRight.X
	base := m.BaseLeft.Y
	if m.BaseRight.Y > base {
		base = m.BaseRight.Y
	}
	return toPoint(physics.Vector2D{X: left, Y: m.Peak.Y}), float32(right - left), float32(base - m.Peak.Y)
}

// treeRects returns a tree's trunk and crown standing at base
func treeRects(base physics.Vector2D) (trunk, crown physics.Rect) {
	trunk = physics.Rect{X: base.X, Y: base.Y, Width: 20, Height: 50}
	crown = physics.Rect{X: base.X + 10, Y: base.Y - 20, Width: 50, Height: 50}
	return trunk, crown
}

// RenderZone implements render.Renderer.
func (r *Renderer) RenderZone(zone physics.Zone) {
	s, ok := r.zones[zone.Name]
	if !ok {
		s = r.add(rectShape(zone.Rect, zoneColor, zZone))
		r.zones[zone.Name] = s
	}
	s.Position = toPoint(physics.Vector2D{X: zone.X, Y: zone.Y})
	s.Width, s.Height = float32(zone.Width), float32(zone.Height)
	s.Hidden = false
	r.seen[zone.Name] = true
}

// RenderAircraft implements render.Renderer. A crashed aircraft is hidden
// and the HUD shows the crash message instead.
func (r *Renderer) RenderAircraft(view physics.FlightView) {
	if r.aircraft == nil {
		r.aircraft = r.add(newShape(r.assets.Aircraft(), aircraftTint, zAircraft, engo.Point{}, aircraftSize, aircraftSize))
	}
	// SetCenter offsets by the current rotation, so rotate first.
	r.aircraft.Rotation = float32(view.RotationDegrees())
	r.aircraft.SetCenter(toPoint(view.Position))
	r.aircraft.Hidden = view.Status == physics.Crashed

	if r.hud != nil {
		r.hud.Update(view)
	}
}

// Present implements render.Renderer. Zones that were not drawn this
// frame are hidden.
func (r *Renderer) Present() {
	for name, s := range r.zones {
		if !r.seen[name] {
			s.Hidden = true
		}
	}
}

func toPoint(v physics.Vector2D) engo.Point {
	return engo.Point{X: float32(v.X), Y: float32(v.Y)}
}
