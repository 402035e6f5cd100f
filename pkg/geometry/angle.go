package geometry

import "math"

// Angles in this package are degrees measured from East, increasing
// counter-clockwise (mathematical convention, not compass convention).
// A negative turn is a turn to starboard.

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeBearing folds an angle in degrees into (-180, 180].
func NormalizeBearing(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	r := math.Mod(deg, 360)
	if r > 180 {
		r -= 360
	} else if r <= -180 {
		r += 360
	}
	return r
}

// NormalizeHeading folds an angle in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// -1e-17 mod 360 + 360 rounds to 360
	if r >= 360 {
		r -= 360
	}
	return r
}

// HeadingDifference returns the signed turn in degrees from -> to,
// in (-180, 180]. Positive is a turn to port.
func HeadingDifference(from, to float64) float64 {
	return NormalizeBearing(to - from)
}

// HeadingVector returns the vector of length speed pointing along heading (degrees).
func HeadingVector(heading, speed float64) Vector2D {
	rad := Radians(heading)
	return Vector2D{X: speed * math.Cos(rad), Y: speed * math.Sin(rad)}
}

// BearingTo returns the absolute bearing in degrees of the segment from -> to, in (-180, 180].
func BearingTo(from, to Vector2D) float64 {
	return to.Sub(from).Heading()
}
