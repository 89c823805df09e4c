// pkg/physics/vector.go
package physics

import "math"

// Vector2D is a screen-space vector. The origin is the top-left corner of
// the arena and Y grows downward.
type Vector2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies both components by factor
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{X: v.X * factor, Y: v.Y * factor}
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction, or the zero
// vector when v has no length.
func (v Vector2D) Normalize() Vector2D {
	length := v.Length()
	if length == 0 {
		return Vector2D{}
	}
	return Vector2D{X: v.X / length, Y: v.Y / length}
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Distance returns the distance between two points
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// FromHeading builds a vector of the given magnitude pointing along heading.
// Heading is measured counterclockwise in math space, so the Y component is
// negated to land in the y-down screen frame: heading 0 points right and
// heading π/2 points up the screen.
func FromHeading(heading, magnitude float64) Vector2D {
	return Vector2D{
		X: magnitude * math.Cos(heading),
		Y: -magnitude * math.Sin(heading),
	}
}
