// Package report turns run results into voyage statistics: how much longer
// each vessel took than a straight run to its destination.
package report

import (
	"fmt"
	"io"
	"math"
	"slices"
	"text/tabwriter"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/runner"
)

// Voyage is the line of one vessel. Times are simulated seconds.
type Voyage struct {
	Vessel    string  `json:"vessel"`
	Distance  float64 `json:"distanceNm"` // straight line from start to destination
	Speed     float64 `json:"speedKn"`
	Arrived   bool    `json:"arrived"`
	Actual    float64 `json:"actualS"` // arrival time, or run end when not arrived
	Optimal   float64 `json:"optimalS"`
	Extra     float64 `json:"extraS"`
	Maneuvers int     `json:"maneuvers"`
	TurnTotal float64 `json:"turnTotalDeg"` // sum of committed starboard offsets
}

type Report struct {
	Scenario      string   `json:"scenario"`
	Policy        string   `json:"policy"`
	Completed     bool     `json:"completed"`
	Ticks         int      `json:"ticks"`
	Time          float64  `json:"timeS"`
	TickSeconds   float64  `json:"tickSeconds"`
	SafeDistance  float64  `json:"safeDistanceNm"`
	MinSeparation float64  `json:"minSeparationNm"` // negative when no two vessels were ever under way together
	Iterations    int      `json:"iterations"`
	CapHits       int      `json:"iterationCapHits"`
	Unresolved    int      `json:"unresolvedTicks"`
	HeadOn        int      `json:"headOn"`
	Crossing      int      `json:"crossing"`
	Overtaking    int      `json:"overtaking"`
	Voyages       []Voyage `json:"voyages"`
}

// OptimalTime is the straight-line passage time rounded up to whole ticks.
// A vessel without speed has no passage and gets zero.
func OptimalTime(distanceNm, speedKn, tickSeconds float64) float64 {
	if speedKn <= 0 || tickSeconds <= 0 {
		return 0
	}
	raw := distanceNm / speedKn * 3600
	return math.Ceil(raw/tickSeconds) * tickSeconds
}

// FromResult builds the report of one run.
func FromResult(res *runner.Result) *Report {
	r := &Report{
		Scenario:      res.Name,
		Policy:        string(res.Params.HeadingPolicy),
		Completed:     res.Completed,
		Ticks:         res.Ticks,
		Time:          res.Time,
		TickSeconds:   res.Params.TickSeconds,
		SafeDistance:  res.Params.SafeDistance,
		MinSeparation: res.MinSeparation,
		Iterations:    res.Stats.Iterations,
		CapHits:       res.Stats.IterationCapHits,
		Unresolved:    res.Stats.UnresolvedTicks,
		HeadOn:        res.Stats.HeadOnManeuvers,
		Crossing:      res.Stats.CrossingManeuvers,
		Overtaking:    res.Stats.OvertakingManeuvers,
	}

	if math.IsInf(r.MinSeparation, 1) {
		r.MinSeparation = -1
	}

	turns := make(map[string]int)
	degrees := make(map[string]float64)
	for _, m := range res.Maneuvers {
		turns[m.Vessel]++
		degrees[m.Vessel] += m.Offset
	}

	for i, start := range res.Initial {
		v := Voyage{
			Vessel:    start.ID,
			Distance:  start.Position.DistanceTo(start.Destination),
			Speed:     start.Speed,
			Actual:    res.Time,
			Maneuvers: turns[start.ID],
			TurnTotal: degrees[start.ID],
		}
		if i < len(res.Final) && res.Final[i].ArrivalTime != nil {
			v.Arrived = true
			v.Actual = *res.Final[i].ArrivalTime
		}
		v.Optimal = OptimalTime(v.Distance, v.Speed, r.TickSeconds)
		v.Extra = v.Actual - v.Optimal
		r.Voyages = append(r.Voyages, v)
	}
	return r
}

func (r *Report) Maneuvers() int { return r.HeadOn + r.Crossing + r.Overtaking }

// ExtraTime returns the mean, smallest and largest extra time over all voyages.
func (r *Report) ExtraTime() (mean, lo, hi float64) {
	if len(r.Voyages) == 0 {
		return 0, 0, 0
	}
	extras := make([]float64, len(r.Voyages))
	var sum float64
	for i, v := range r.Voyages {
		extras[i] = v.Extra
		sum += v.Extra
	}
	return sum / float64(len(extras)), slices.Min(extras), slices.Max(extras)
}

// Render writes a plain-text table of the report.
func (r *Report) Render(w io.Writer) error {
	status := "all vessels arrived"
	if !r.Completed {
		status = "stopped before arrival"
	}
	if _, err := fmt.Fprintf(w, "scenario %s (%s policy): %s after %d ticks, %.1f s\n",
		r.Scenario, r.Policy, status, r.Ticks, r.Time); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "vessel\tdist NM\tspeed kn\tactual s\toptimal s\textra s\tturns\tturn deg\t")
	for _, v := range r.Voyages {
		actual := fmt.Sprintf("%.1f", v.Actual)
		if !v.Arrived {
			actual += "*"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.1f\t%s\t%.1f\t%.1f\t%d\t%.0f\t\n",
			v.Vessel, v.Distance, v.Speed, actual, v.Optimal, v.Extra, v.Maneuvers, v.TurnTotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	mean, lo, hi := r.ExtraTime()
	_, err := fmt.Fprintf(w,
		"extra time: mean %.1f s, min %.1f s, max %.1f s\n"+
			"maneuvers: %d (head-on %d, crossing %d, overtaking %d)\n"+
			"closest separation %.3f NM (safe %.2f NM), %d resolution passes, %d capped, %d unresolved ticks\n",
		mean, lo, hi,
		r.Maneuvers(), r.HeadOn, r.Crossing, r.Overtaking,
		r.MinSeparation, r.SafeDistance, r.Iterations, r.CapHits, r.Unresolved)
	return err
}
