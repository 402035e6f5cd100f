package colreg

import "math"

// Role is the right-of-way duty of one vessel in an encounter.
type Role int

const (
	GiveWay Role = iota
	StandOn
)

func (r Role) String() string {
	if r == StandOn {
		return "Stand-On"
	}
	return "Give-Way"
}

// AssignRoles returns the roles of a and b for an encounter already
// classified by Classify.
//
// Head-on: both give way. Crossing: the vessel that has the other on its
// starboard side gives way; when neither does, a gives way. Overtaking:
// the vessel that sees the other in its aft arc is being overtaken and
// stands on.
func AssignRoles(a, b Contact, enc Encounter, th Thresholds) (Role, Role) {
	switch enc {
	case HeadOn:
		return GiveWay, GiveWay
	case Overtaking:
		if th.inAftArc(math.Abs(RelativeBearing(a, b))) {
			return StandOn, GiveWay
		}
		return GiveWay, StandOn
	default:
		if IsOnStarboard(a, b, th) {
			return GiveWay, StandOn
		}
		if IsOnStarboard(b, a, th) {
			return StandOn, GiveWay
		}
		return GiveWay, StandOn
	}
}

// Ambiguous reports a crossing in which neither vessel has the other on its
// starboard side. AssignRoles falls back to a giving way in that case, which
// is a local policy rather than a rule of the road.
func Ambiguous(a, b Contact, th Thresholds) bool {
	return !IsOnStarboard(a, b, th) && !IsOnStarboard(b, a, th)
}
