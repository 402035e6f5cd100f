package simulation

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Snapshot is a read-only picture of an engine between two steps.
type Snapshot struct {
	Tick       int
	Time       float64 // seconds
	AllArrived bool
	Vessels    []*Vessel
	Conflicts  []Conflict
	Stats      Stats
}

// Snapshot copies the current state of the engine.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Tick:       e.tick,
		Time:       e.clock,
		AllArrived: e.AllArrived(),
		Vessels:    e.Vessels(),
		Conflicts:  e.Conflicts(),
		Stats:      e.stats,
	}
}

// Proto encodes the snapshot as a protobuf Struct, the payload exchanged with
// the world actor and written to trace files.
func (s *Snapshot) Proto() (*structpb.Struct, error) {
	vessels := make([]any, 0, len(s.Vessels))
	for _, v := range s.Vessels {
		entry := map[string]any{
			"id":       v.ID,
			"x":        v.Position.X,
			"y":        v.Position.Y,
			"heading":  v.Heading,
			"speed":    v.Speed,
			"destX":    v.Destination.X,
			"destY":    v.Destination.Y,
			"lengthM":  v.Length,
			"beamM":    v.Beam,
			"turnUsed": v.TurnUsed,
			"arrived":  v.Arrived(),
		}
		if v.ArrivalTime != nil {
			entry["arrivalTime"] = *v.ArrivalTime
		}
		vessels = append(vessels, entry)
	}

	conflicts := make([]any, 0, len(s.Conflicts))
	for _, c := range s.Conflicts {
		conflicts = append(conflicts, map[string]any{
			"a":         s.Vessels[c.I].ID,
			"b":         s.Vessels[c.J].ID,
			"distance":  c.Distance,
			"time":      c.Time,
			"encounter": c.Encounter.String(),
			"roleA":     c.RoleI.String(),
			"roleB":     c.RoleJ.String(),
		})
	}

	st, err := structpb.NewStruct(map[string]any{
		"tick":       s.Tick,
		"time":       s.Time,
		"allArrived": s.AllArrived,
		"vessels":    vessels,
		"conflicts":  conflicts,
		"stats": map[string]any{
			"ticks":               s.Stats.Ticks,
			"iterations":          s.Stats.Iterations,
			"iterationCapHits":    s.Stats.IterationCapHits,
			"unresolvedTicks":     s.Stats.UnresolvedTicks,
			"headOnManeuvers":     s.Stats.HeadOnManeuvers,
			"crossingManeuvers":   s.Stats.CrossingManeuvers,
			"overtakingManeuvers": s.Stats.OvertakingManeuvers,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot of tick %d: %w", s.Tick, err)
	}
	return st, nil
}
