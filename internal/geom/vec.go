// Package geom holds the vector, quaternion and pose helpers shared by the
// flight, physics and formation code.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in world or local space, in meters.
type Vec = r3.Vec

// Zero is the origin.
var Zero = Vec{}

// V is shorthand for building a Vec.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Unit returns v scaled to length one, or the zero vector when v is
// shorter than eps. r3.Unit returns NaNs for a zero input.
func Unit(v Vec) Vec {
	n := r3.Norm(v)
	if n < 1e-12 {
		return Zero
	}
	return r3.Scale(1/n, v)
}

// ClampLength rescales v so that its length does not exceed max.
func ClampLength(v Vec, max float64) Vec {
	n := r3.Norm(v)
	if n <= max || n == 0 {
		return v
	}
	return r3.Scale(max/n, v)
}

// Lerp interpolates linearly from a towards b.
func Lerp(a, b Vec, t float64) Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Flatten drops the vertical component and renormalizes.
func Flatten(v Vec) Vec {
	v.Y = 0
	return Unit(v)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// WrapAngle maps a to the interval [-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Sign returns -1 for negative x and 1 otherwise.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
