package simulation

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

const secondsPerHour = 3600.0

var (
	ErrEmptyFleet      = errors.New("fleet is empty")
	ErrDuplicateVessel = errors.New("duplicate vessel id")
	ErrNegativeSpeed   = errors.New("vessel speed is negative")
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Conflict is an at-risk pair as seen at one instant. I and J index the
// fleet passed to NewEngine, I < J.
type Conflict struct {
	Distance  float64 // NM at the closest point of approach
	Time      float64 // hours until the closest point
	I, J      int
	Encounter colreg.Encounter
	RoleI     colreg.Role
	RoleJ     colreg.Role
}

// Maneuver is one committed starboard turn.
type Maneuver struct {
	Tick      int
	Vessel    string
	Other     string
	Encounter colreg.Encounter
	Role      colreg.Role
	Offset    float64 // degrees to starboard
	Before    float64 // minimum approach against the fleet before the turn, NM
	After     float64 // and after it
}

// TickReport describes what happened during one Step.
type TickReport struct {
	Tick       int
	Time       float64 // simulation seconds at the end of the tick
	Iterations int
	AtRisk     []Conflict // detected after the heading reset, before resolution
	Maneuvers  []Maneuver
	Unresolved []Conflict // still inside the safety radius when resolution stopped
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sends engine diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine is the conflict resolution engine. It owns the fleet: callers read
// vessel state between steps and never mutate it.
type Engine struct {
	vessels []*Vessel
	params  Params
	logger  *slog.Logger

	clock        float64 // seconds
	tick         int
	conflictFree int // consecutive ticks that started with no pair at risk
	stats        Stats
	last         TickReport
}

// NewEngine validates the parameters and the fleet and returns an engine at time zero.
// Vessels that start inside the arrival threshold are recorded as arrived.
func NewEngine(fleet []*Vessel, p Params, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(fleet) == 0 {
		return nil, ErrEmptyFleet
	}
	seen := make(map[string]struct{}, len(fleet))
	for _, v := range fleet {
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateVessel, v.ID)
		}
		seen[v.ID] = struct{}{}
		if v.Speed < 0 {
			return nil, fmt.Errorf("%w: %q has speed %v", ErrNegativeSpeed, v.ID, v.Speed)
		}
	}

	e := &Engine{
		vessels: fleet,
		params:  p,
		logger:  discardLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, v := range e.vessels {
		if v.DistanceToDestination() <= p.ArrivalThreshold {
			v.markArrived(0)
		}
	}
	return e, nil
}

// Step advances the simulation by one tick: reset, detection, relaxation,
// resolution to a fixed point, then motion.
func (e *Engine) Step() {
	report := TickReport{Tick: e.tick + 1}

	e.resetTick()

	pairs := e.detect()
	report.AtRisk = e.describe(pairs)
	if len(pairs) == 0 {
		e.conflictFree++
	} else {
		e.conflictFree = 0
	}
	if e.conflictFree > e.params.RelaxAfterTicks {
		e.relax()
	}

	iterations, capped := e.resolve(&report)
	report.Iterations = iterations
	for _, c := range e.Conflicts() {
		if c.Distance < e.params.SafeDistance {
			report.Unresolved = append(report.Unresolved, c)
			e.logger.Warn("unresolved risk",
				"tick", report.Tick,
				"a", e.vessels[c.I].ID,
				"b", e.vessels[c.J].ID,
				"cpa_nm", c.Distance,
				"encounter", c.Encounter.String())
		}
	}

	e.advance(e.params.TickSeconds / secondsPerHour)
	e.clock += e.params.TickSeconds
	e.tick++
	e.recordArrivals()

	report.Time = e.clock
	e.stats.Ticks++
	e.stats.Iterations += report.Iterations
	if capped {
		e.stats.IterationCapHits++
	}
	if len(report.Unresolved) > 0 {
		e.stats.UnresolvedTicks++
	}
	e.last = report
}

// AllArrived reports whether no vessel is still travelling, that is every
// vessel has been marked arrived or lies within the arrival threshold.
func (e *Engine) AllArrived() bool {
	for _, v := range e.vessels {
		if e.travelling(v) {
			return false
		}
	}
	return true
}

// Conflicts returns the pairs currently inside the detection band, labelled
// with their encounter and roles, soonest first.
func (e *Engine) Conflicts() []Conflict {
	return e.describe(e.detect())
}

// Vessels returns a copy of the fleet state.
func (e *Engine) Vessels() []*Vessel {
	out := make([]*Vessel, len(e.vessels))
	for i, v := range e.vessels {
		out[i] = v.Clone()
	}
	return out
}

// Time returns the simulation clock in seconds.
func (e *Engine) Time() float64 { return e.clock }

// Tick returns the number of completed steps.
func (e *Engine) Tick() int { return e.tick }

// Params returns the parameters the engine runs with.
func (e *Engine) Params() Params { return e.params }

// LastTick returns the report of the most recent Step.
func (e *Engine) LastTick() TickReport { return e.last }

// Stats returns the counters accumulated since the engine was created.
func (e *Engine) Stats() Stats { return e.stats }

// travelling reports whether v still steers and moves.
func (e *Engine) travelling(v *Vessel) bool {
	return !v.Arrived() && v.DistanceToDestination() > e.params.ArrivalThreshold
}

func (e *Engine) resetTick() {
	for _, v := range e.vessels {
		v.TurnUsed = 0
		if e.params.HeadingPolicy == PolicyReseek && e.travelling(v) {
			v.Heading = v.HeadingToDestination()
		}
	}
}

// relax swings each travelling vessel back toward its destination, never by
// more than the per-tick turn range.
func (e *Engine) relax() {
	limit := e.params.TurnRange
	for _, v := range e.vessels {
		if !e.travelling(v) {
			continue
		}
		diff := geometry.HeadingDifference(v.Heading, v.HeadingToDestination())
		diff = math.Max(-limit, math.Min(limit, diff))
		v.Heading = geometry.NormalizeBearing(v.Heading + diff)
	}
}

type riskPair struct {
	i, j     int
	approach colreg.Approach
}

// detect returns every pair inside the detection band, ordered by time to
// the closest point and then by distance.
func (e *Engine) detect() []riskPair {
	band := e.params.RiskDistance()
	var pairs []riskPair
	for i := 0; i < len(e.vessels); i++ {
		ti := e.vessels[i].Track()
		for j := i + 1; j < len(e.vessels); j++ {
			a := colreg.ClosestApproach(ti, e.vessels[j].Track())
			if a.Distance < band {
				pairs = append(pairs, riskPair{i: i, j: j, approach: a})
			}
		}
	}
	slices.SortStableFunc(pairs, func(x, y riskPair) int {
		if c := cmp.Compare(x.approach.Time, y.approach.Time); c != 0 {
			return c
		}
		return cmp.Compare(x.approach.Distance, y.approach.Distance)
	})
	return pairs
}

func (e *Engine) describe(pairs []riskPair) []Conflict {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]Conflict, 0, len(pairs))
	th := e.params.Thresholds
	for _, p := range pairs {
		a, b := e.vessels[p.i].Contact(), e.vessels[p.j].Contact()
		enc := colreg.Classify(a, b, th)
		ri, rj := colreg.AssignRoles(a, b, enc, th)
		out = append(out, Conflict{
			Distance:  p.approach.Distance,
			Time:      p.approach.Time,
			I:         p.i,
			J:         p.j,
			Encounter: enc,
			RoleI:     ri,
			RoleJ:     rj,
		})
	}
	return out
}

// resolve runs resolution passes until no pair is at risk, a pass changes
// nothing, or the iteration cap is reached. It returns the number of passes
// and whether the last one still changed something when the cap stopped it.
func (e *Engine) resolve(report *TickReport) (int, bool) {
	band := e.params.RiskDistance()
	th := e.params.Thresholds

	for it := 0; it < e.params.MaxIterations; it++ {
		pairs := e.detect()
		if len(pairs) == 0 {
			return it, false
		}

		changed := false
		for _, p := range pairs {
			vi, vj := e.vessels[p.i], e.vessels[p.j]
			// an earlier pair of this pass may already have opened this one
			if colreg.ClosestApproach(vi.Track(), vj.Track()).Distance >= band {
				continue
			}
			a, b := vi.Contact(), vj.Contact()
			enc := colreg.Classify(a, b, th)
			ri, rj := colreg.AssignRoles(a, b, enc, th)
			if enc == colreg.Crossing && colreg.Ambiguous(a, b, th) {
				e.logger.Debug("ambiguous crossing, first vessel gives way", "a", vi.ID, "b", vj.ID)
			}

			if e.resolvePair(p.i, p.j, enc, ri, rj, report) {
				changed = true
			}
		}
		if !changed {
			return it + 1, false
		}
	}
	return e.params.MaxIterations, true
}

func (e *Engine) resolvePair(i, j int, enc colreg.Encounter, ri, rj colreg.Role, report *TickReport) bool {
	if ri == colreg.GiveWay && rj == colreg.GiveWay {
		turnedI := e.turn(i, j, enc, ri, false, report)
		turnedJ := e.turn(j, i, enc, rj, false, report)
		return turnedI || turnedJ
	}

	give, stand := i, j
	giveRole, standRole := ri, rj
	if ri == colreg.StandOn {
		give, stand = j, i
		giveRole, standRole = rj, ri
	}
	if e.turn(give, stand, enc, giveRole, false, report) {
		return true
	}
	// the give-way vessel is out of options; let the stand-on vessel help a little
	return e.turn(stand, give, enc, standRole, true, report)
}

// turn runs the starboard search for vessel idx and records the manoeuvre
// when a heading is committed.
func (e *Engine) turn(idx, other int, enc colreg.Encounter, role colreg.Role, standOn bool, report *TickReport) bool {
	res, ok := e.starboardSearch(idx, standOn)
	if !ok {
		return false
	}
	m := Maneuver{
		Tick:      report.Tick,
		Vessel:    e.vessels[idx].ID,
		Other:     e.vessels[other].ID,
		Encounter: enc,
		Role:      role,
		Offset:    res.offset,
		Before:    res.before,
		After:     res.after,
	}
	report.Maneuvers = append(report.Maneuvers, m)
	e.stats.count(enc)
	e.logger.Debug("starboard turn",
		"tick", m.Tick,
		"vessel", m.Vessel,
		"other", m.Other,
		"encounter", enc.String(),
		"role", role.String(),
		"offset_deg", m.Offset,
		"cpa_before_nm", m.Before,
		"cpa_after_nm", m.After)
	return true
}

func (e *Engine) advance(dtHours float64) {
	for _, v := range e.vessels {
		if e.travelling(v) {
			v.Advance(dtHours)
		}
	}
}

func (e *Engine) recordArrivals() {
	for _, v := range e.vessels {
		if v.Arrived() || v.DistanceToDestination() > e.params.ArrivalThreshold {
			continue
		}
		v.markArrived(e.clock)
		e.logger.Info("vessel arrived", "vessel", v.ID, "time_s", e.clock)
	}
}
