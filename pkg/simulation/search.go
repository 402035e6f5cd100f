package simulation

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

// offsetTolerance absorbs float drift when the last candidate lands on the budget.
const offsetTolerance = 1e-9

type searchResult struct {
	offset float64 // degrees committed to starboard
	before float64 // minimum approach on the original heading, NM
	after  float64 // minimum approach on the new heading, NM
}

// minApproach returns the smallest closest-approach distance between vessel
// idx, steered on heading, and every other vessel on its current track.
// It reads the fleet and never modifies it.
func (e *Engine) minApproach(idx int, heading float64) float64 {
	me := e.vessels[idx].TrackAt(heading)
	best := math.Inf(1)
	for j, other := range e.vessels {
		if j == idx {
			continue
		}
		if d := colreg.ClosestApproach(me, other.Track()).Distance; d < best {
			best = d
		}
	}
	return best
}

// candidateOffsets lists the starboard offsets to try, smallest first, never
// beyond remaining degrees.
func candidateOffsets(step, remaining float64) []float64 {
	if remaining <= 0 || step <= 0 {
		return nil
	}
	var out []float64
	for k := 1; ; k++ {
		off := float64(k) * step
		if off > remaining+offsetTolerance {
			break
		}
		out = append(out, math.Min(off, remaining))
	}
	return out
}

// starboardSearch looks for the smallest starboard turn of vessel idx that
// opens its minimum approach to the safe distance, settling for the best
// improvement within the remaining budget. A found turn is committed to the
// vessel's heading and budget.
func (e *Engine) starboardSearch(idx int, standOn bool) (searchResult, bool) {
	v := e.vessels[idx]
	if !e.travelling(v) {
		return searchResult{}, false
	}

	limit := e.params.TurnRange
	if standOn {
		limit = math.Min(limit, e.params.StandOnTurnCap)
	}
	offsets := candidateOffsets(e.params.TurnStep, limit-v.TurnUsed)
	if len(offsets) == 0 {
		return searchResult{}, false
	}

	base := v.Heading
	baseline := e.minApproach(idx, base)
	score := e.sequentialScore(idx, base, offsets)
	if e.params.Workers > 0 && len(offsets) > 1 {
		score = e.parallelScore(idx, base, offsets)
	}

	best, bestOffset := baseline, 0.0
	for k, off := range offsets {
		if d := score(k); d > best {
			best, bestOffset = d, off
			if best >= e.params.SafeDistance {
				break
			}
		}
	}
	if bestOffset == 0 {
		return searchResult{}, false
	}

	v.Heading = geometry.NormalizeBearing(base - bestOffset)
	v.TurnUsed += bestOffset
	return searchResult{offset: bestOffset, before: baseline, after: best}, true
}

func (e *Engine) sequentialScore(idx int, base float64, offsets []float64) func(int) float64 {
	return func(k int) float64 {
		return e.minApproach(idx, base-offsets[k])
	}
}

// parallelScore evaluates every candidate up front on a bounded worker
// group. The reduction in starboardSearch still walks the offsets in order,
// so the chosen turn matches the sequential search.
func (e *Engine) parallelScore(idx int, base float64, offsets []float64) func(int) float64 {
	scores := make([]float64, len(offsets))
	var g errgroup.Group
	g.SetLimit(e.params.Workers)
	for k, off := range offsets {
		g.Go(func() error {
			scores[k] = e.minApproach(idx, base-off)
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return func(k int) float64 {
		return scores[k]
	}
}
