package simulation

import (
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

const (
	defaultLength = 100.0 // metres
	defaultBeam   = 20.0  // metres
)

// Vessel is one ship of the fleet: identity plus kinematic state.
// Positions are in nautical miles, speed in knots, heading in degrees
// (0 = East, counter-clockwise). Length and Beam are metres and only
// describe the hull.
type Vessel struct {
	ID          string
	Position    geometry.Vector2D
	Heading     float64
	Speed       float64
	Destination geometry.Vector2D
	Length      float64
	Beam        float64

	// TurnUsed is how many degrees the vessel has turned to starboard in the
	// current tick. The engine resets it at the start of every tick.
	TurnUsed float64
	// ArrivalTime is the simulation time (seconds) at which the vessel first
	// came within the arrival threshold of its destination; nil while under way.
	ArrivalTime *float64
}

// NewVessel creates a vessel at pos bound for dest, with its bow already
// pointed at the destination.
func NewVessel(id string, pos geometry.Vector2D, speed float64, dest geometry.Vector2D, length, beam float64) *Vessel {
	if length <= 0 {
		length = defaultLength
	}
	if beam <= 0 {
		beam = defaultBeam
	}
	v := &Vessel{
		ID:          id,
		Position:    pos,
		Speed:       speed,
		Destination: dest,
		Length:      length,
		Beam:        beam,
	}
	v.Heading = v.HeadingToDestination()
	return v
}

// VelocityVector returns the velocity in knots for the current heading.
func (v *Vessel) VelocityVector() geometry.Vector2D {
	return v.VelocityAt(v.Heading)
}

// VelocityAt returns the velocity the vessel would have on heading.
func (v *Vessel) VelocityAt(heading float64) geometry.Vector2D {
	return geometry.HeadingVector(heading, v.Speed)
}

// DistanceToDestination returns the straight-line distance left to run, in NM.
func (v *Vessel) DistanceToDestination() float64 {
	return v.Position.DistanceTo(v.Destination)
}

// HeadingToDestination returns the heading of the direct course to the
// destination. Once the vessel sits on its destination the current heading
// is returned, since the direction of a zero vector is undefined.
func (v *Vessel) HeadingToDestination() float64 {
	d := v.Destination.Sub(v.Position)
	if d.LenSqr() < geometry.Epsilon*geometry.Epsilon {
		return v.Heading
	}
	return d.Heading()
}

// Advance moves the vessel along its heading for dtHours.
// No bounds checking: callers stop advancing arrived vessels.
func (v *Vessel) Advance(dtHours float64) {
	v.Position = v.Position.Add(v.VelocityVector().Mul(dtHours))
}

// Arrived reports whether an arrival time has been recorded.
func (v *Vessel) Arrived() bool {
	return v.ArrivalTime != nil
}

// Contact is the bearing view of the vessel used by the classifier.
func (v *Vessel) Contact() colreg.Contact {
	return colreg.Contact{Position: v.Position, Heading: v.Heading}
}

// Track is the kinematic state on the current heading.
func (v *Vessel) Track() colreg.Track {
	return v.TrackAt(v.Heading)
}

// TrackAt is the kinematic state the vessel would have on heading.
// An arrived vessel is a fixed obstacle whatever its nominal speed.
func (v *Vessel) TrackAt(heading float64) colreg.Track {
	if v.Arrived() {
		return colreg.Track{Position: v.Position}
	}
	return colreg.Track{Position: v.Position, Velocity: v.VelocityAt(heading)}
}

// Clone returns an independent copy of the vessel.
func (v *Vessel) Clone() *Vessel {
	c := *v
	if v.ArrivalTime != nil {
		t := *v.ArrivalTime
		c.ArrivalTime = &t
	}
	return &c
}

func (v *Vessel) markArrived(at float64) {
	if v.ArrivalTime == nil {
		v.ArrivalTime = &at
	}
}
