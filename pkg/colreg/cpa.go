// Package colreg holds the geometric rules of a two-vessel encounter:
// closest point of approach, encounter classification and right-of-way roles.
//
// Everything here is pure. Callers pass plain kinematic values, so a
// manoeuvre can be evaluated on a candidate heading without touching
// the vessel it belongs to.
package colreg

import (
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

// parallelTolerance is the squared relative speed (knots²) under which two
// tracks are treated as moving identically.
const parallelTolerance = 1e-9

// Track is the kinematic state the closest-approach calculator works on.
type Track struct {
	Position geometry.Vector2D // NM
	Velocity geometry.Vector2D // knots
}

// Approach is the result of a closest-approach computation.
type Approach struct {
	Distance float64 // NM at the closest point
	Time     float64 // hours from now until the closest point, never negative
}

// ClosestApproach returns the minimum future separation of two tracks
// assuming both hold their velocity, and the time at which it happens.
// A closest point already in the past is reported as the present distance.
func ClosestApproach(a, b Track) Approach {
	r0 := b.Position.Sub(a.Position)
	v := b.Velocity.Sub(a.Velocity)

	vv := v.Dot(v)
	if vv < parallelTolerance {
		return Approach{Distance: r0.Len(), Time: 0}
	}

	t := -r0.Dot(v) / vv
	if t < 0 {
		t = 0
	}
	return Approach{Distance: r0.Add(v.Mul(t)).Len(), Time: t}
}
