package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance for comparing positions (NM) and velocities (kn).
const Epsilon = 1e-9

// Vector2D is a chart position or a velocity. X grows East, Y grows North.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

func (v Vector2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

func (v Vector2D) Add(o Vector2D) Vector2D { return Vector2D{v.X + o.X, v.Y + o.Y} }
func (v Vector2D) Sub(o Vector2D) Vector2D { return Vector2D{v.X - o.X, v.Y - o.Y} }
func (v Vector2D) Mul(k float64) Vector2D  { return Vector2D{v.X * k, v.Y * k} }
func (v Vector2D) Dot(o Vector2D) float64  { return v.X*o.X + v.Y*o.Y }

// Cross is the z component of v × o: positive when o points to port of v.
func (v Vector2D) Cross(o Vector2D) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vector2D) LenSqr() float64 { return v.Dot(v) }
func (v Vector2D) Len() float64    { return math.Hypot(v.X, v.Y) }

// DistanceTo is the straight-line distance between two positions.
func (v Vector2D) DistanceTo(o Vector2D) float64 {
	return v.Sub(o).Len()
}

// Heading is the direction of v in degrees, 0 = East, counter-clockwise,
// within [-180, 180]. The zero vector has heading 0.
func (v Vector2D) Heading() float64 {
	return Degrees(math.Atan2(v.Y, v.X))
}

// Eq compares component-wise within Epsilon.
func (v Vector2D) Eq(o Vector2D) bool {
	return math.Abs(v.X-o.X) <= Epsilon && math.Abs(v.Y-o.Y) <= Epsilon
}
