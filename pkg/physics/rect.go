// pkg/physics/rect.go
package physics

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Contains reports whether point lies in the half-open region
// [X, X+Width) x [Y, Y+Height). A point on the far edge belongs to the
// neighbouring rectangle, never to both.
func (r Rect) Contains(point Vector2D) bool {
	return point.X >= r.X &&
		point.X < r.X+r.Width &&
		point.Y >= r.Y &&
		point.Y < r.Y+r.Height
}

// Encloses reports whether point lies in the closed region
// [X, X+Width] x [Y, Y+Height]. The arena uses this form: its edges are
// still flyable.
func (r Rect) Encloses(point Vector2D) bool {
	return point.X >= r.X &&
		point.X <= r.X+r.Width &&
		point.Y >= r.Y &&
		point.Y <= r.Y+r.Height
}

// Inset shrinks the rectangle by margin on every side. A margin larger than
// half the extent collapses that axis to zero.
func (r Rect) Inset(margin float64) Rect {
	if margin == 0 {
		return r
	}
	out := Rect{
		X:      r.X + margin,
		Y:      r.Y + margin,
		Width:  r.Width - 2*margin,
		Height: r.Height - 2*margin,
	}
	if out.Width < 0 {
		out.X = r.X + r.Width/2
		out.Width = 0
	}
	if out.Height < 0 {
		out.Y = r.Y + r.Height/2
		out.Height = 0
	}
	return out
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Vector2D {
	return Vector2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether the rectangle encloses no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Zone is a named static obstacle. Occupying it crashes the aircraft.
type Zone struct {
	Name string `json:"name" yaml:"name"`
	Rect `yaml:",inline"`
}

// CollisionKind identifies what ended a flight
type CollisionKind int

const (
	CollisionNone CollisionKind = iota
	CollisionBounds
	CollisionZone
)

func (k CollisionKind) String() string {
	switch k {
	case CollisionBounds:
		return "bounds"
	case CollisionZone:
		return "zone"
	default:
		return "none"
	}
}

// Collision describes the predicate that crashed the aircraft.
type Collision struct {
	Kind CollisionKind
	Zone string // zone name when Kind == CollisionZone
}

// outOfBounds is the arena exit predicate. The comparison is strict so the
// closed arena [0, width] x [0, height] is still flyable.
func outOfBounds(p Vector2D, arena Rect) bool {
	return !arena.Encloses(p)
}

// hitZone returns the first zone containing p, if any.
func hitZone(p Vector2D, zones []Zone) (Zone, bool) {
	for _, z := range zones {
		if z.Contains(p) {
			return z, true
		}
	}
	return Zone{}, false
}
