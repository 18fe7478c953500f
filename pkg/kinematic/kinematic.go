package kinematic

// This package includes vector math and kinematic equation helpers.

import (
	"math"
)

// Vector is a 2D vector.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the sum of two vectors.
func (v Vector) Add(other Vector) Vector {
	return Vector{X: v.X + other.X, Y: v.Y + other.Y}
}

// Scale returns the vector scaled by a factor.
func (v Vector) Scale(factor float64) Vector {
	return Vector{X: v.X * factor, Y: v.Y * factor}
}

// DistanceTo returns the euclidean distance to another vector.
func (v Vector) DistanceTo(other Vector) float64 {
	return math.Hypot(other.X-v.X, other.Y-v.Y)
}

// Displacement returns the displacement of an object given its initial velocity, time, and acceleration.
func Displacement(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity*time + 0.5*acceleration*math.Pow(time, 2)
}

// FinalVelocity returns the final velocity of an object given its initial velocity, time, and acceleration.
func FinalVelocity(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity + acceleration*time
}

// Lerp blends a toward b by a fixed weight in [0, 1].
func Lerp(a float64, b float64, weight float64) float64 {
	return a*(1-weight) + b*weight
}
