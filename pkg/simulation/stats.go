package simulation

import (
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
)

// Stats are the counters an Engine accumulates over a run.
type Stats struct {
	Ticks            int `json:"ticks"`
	Iterations       int `json:"iterations"`       // resolution passes over all ticks
	IterationCapHits int `json:"iterationCapHits"` // ticks that stopped on the iteration cap
	UnresolvedTicks  int `json:"unresolvedTicks"`  // ticks that ended with a pair inside the safe distance

	HeadOnManeuvers     int `json:"headOnManeuvers"`
	CrossingManeuvers   int `json:"crossingManeuvers"`
	OvertakingManeuvers int `json:"overtakingManeuvers"`
}

// Maneuvers is the total number of committed turns.
func (s Stats) Maneuvers() int {
	return s.HeadOnManeuvers + s.CrossingManeuvers + s.OvertakingManeuvers
}

func (s *Stats) count(enc colreg.Encounter) {
	switch enc {
	case colreg.HeadOn:
		s.HeadOnManeuvers++
	case colreg.Crossing:
		s.CrossingManeuvers++
	case colreg.Overtaking:
		s.OvertakingManeuvers++
	}
}
