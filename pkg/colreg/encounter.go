package colreg

import (
	"math"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

// Encounter is the geometric category of a two-vessel meeting.
type Encounter int

const (
	Crossing Encounter = iota
	HeadOn
	Overtaking
)

func (e Encounter) String() string {
	switch e {
	case HeadOn:
		return "head-on"
	case Overtaking:
		return "overtaking"
	default:
		return "crossing"
	}
}

// Contact is what a vessel needs to know about itself or another vessel to
// take a relative bearing: where it is and where its bow points.
type Contact struct {
	Position geometry.Vector2D
	Heading  float64 // degrees, 0 = East, counter-clockwise
}

// Thresholds are the angular limits (degrees) of the classifier.
type Thresholds struct {
	// HeadOn: both vessels must see each other within this many degrees of dead ahead.
	HeadOn float64 `json:"headOn" mapstructure:"headOn"`
	// AftLow and AftHigh bound the absolute relative bearing of the aft arc, exclusive.
	AftLow  float64 `json:"aftLow" mapstructure:"aftLow"`
	AftHigh float64 `json:"aftHigh" mapstructure:"aftHigh"`
	// StarboardArc: a contact at relative bearing in (-StarboardArc, 0) is on the starboard side.
	StarboardArc float64 `json:"starboardArc" mapstructure:"starboardArc"`
}

// DefaultThresholds returns the classifier limits used by the engine.
// AftHigh is above 180 and therefore never binds on an absolute bearing;
// it is kept so the aft arc reads the same way it is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeadOn:       10,
		AftLow:       112.5,
		AftHigh:      250,
		StarboardArc: 112.5,
	}
}

// RelativeBearing returns where `to` lies as seen from the bow of `from`,
// in (-180, 180]. 0 is dead ahead, positive to port, negative to starboard.
func RelativeBearing(from, to Contact) float64 {
	return geometry.NormalizeBearing(geometry.BearingTo(from.Position, to.Position) - from.Heading)
}

// Classify categorises the meeting of a and b.
func Classify(a, b Contact, th Thresholds) Encounter {
	ab := math.Abs(RelativeBearing(a, b))
	ba := math.Abs(RelativeBearing(b, a))

	if ab < th.HeadOn && ba < th.HeadOn {
		return HeadOn
	}
	if th.inAftArc(ab) || th.inAftArc(ba) {
		return Overtaking
	}
	return Crossing
}

// IsOnStarboard reports whether b lies on a's starboard bow or beam.
func IsOnStarboard(a, b Contact, th Thresholds) bool {
	rb := RelativeBearing(a, b)
	return rb > -th.StarboardArc && rb < 0
}

func (th Thresholds) inAftArc(absBearing float64) bool {
	return absBearing > th.AftLow && absBearing < th.AftHigh
}
