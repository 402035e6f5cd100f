package simulation

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
)

func vessel(id string, x, y, speed, dx, dy float64) *Vessel {
	return NewVessel(id, geometry.NewVector(x, y), speed, geometry.NewVector(dx, dy), 0, 0)
}

func headOnFleet() []*Vessel {
	return []*Vessel{
		vessel("A", 0, 0, 20, 5, 5),
		vessel("B", 5, 5, 20, 0, 0),
	}
}

// crossingFleet puts B on A's starboard bow, both converging on (3, 0).
func crossingFleet() []*Vessel {
	return []*Vessel{
		vessel("A", 0, 0, 15, 6, 0),
		vessel("B", 3, -3, 15, 3, 3),
	}
}

// ringFleet places n vessels on a circle, each bound for the opposite point.
func ringFleet(n int) []*Vessel {
	fleet := make([]*Vessel, n)
	for k := range fleet {
		a := 2 * math.Pi * float64(k) / float64(n)
		x, y := 5+4*math.Cos(a), 5+4*math.Sin(a)
		fleet[k] = vessel(string(rune('A'+k)), x, y, 15, 10-x, 10-y)
	}
	return fleet
}

func newEngine(t testing.TB, fleet []*Vessel, p Params) *Engine {
	t.Helper()
	e, err := NewEngine(fleet, p)
	require.NoError(t, err)
	return e
}

// runToArrival steps until every vessel arrived and returns the smallest
// separation observed at tick boundaries.
func runToArrival(t *testing.T, e *Engine, maxTicks int) float64 {
	t.Helper()
	minSep := math.Inf(1)
	for !e.AllArrived() {
		require.Less(t, e.Tick(), maxTicks, "fleet did not arrive in %d ticks", maxTicks)
		e.Step()
		vs := e.Vessels()
		for i := range vs {
			for j := i + 1; j < len(vs); j++ {
				minSep = math.Min(minSep, vs[i].Position.DistanceTo(vs[j].Position))
			}
		}
	}
	return minSep
}

func TestNewEngine_Errors(t *testing.T) {
	_, err := NewEngine(nil, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyFleet)

	bad := DefaultParams()
	bad.SafeDistance = 0
	_, err = NewEngine(headOnFleet(), bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewEngine([]*Vessel{vessel("A", 0, 0, 10, 1, 1), vessel("A", 2, 2, 10, 3, 3)}, DefaultParams())
	assert.ErrorIs(t, err, ErrDuplicateVessel)

	_, err = NewEngine([]*Vessel{vessel("A", 0, 0, -1, 1, 1)}, DefaultParams())
	assert.ErrorIs(t, err, ErrNegativeSpeed)
}

func TestNewEngine_MarksVesselsAlreadyHome(t *testing.T) {
	e := newEngine(t, []*Vessel{
		vessel("home", 1, 1, 10, 1.05, 1),
		vessel("away", 0, 0, 10, 3, 0),
	}, DefaultParams())

	vs := e.Vessels()
	require.True(t, vs[0].Arrived())
	assert.Equal(t, 0.0, *vs[0].ArrivalTime)
	assert.False(t, vs[1].Arrived())
}

func TestEngine_VesselOnArrivalBoundaryCountsAsArrived(t *testing.T) {
	p := DefaultParams()
	e := newEngine(t, []*Vessel{
		vessel("edge", 0, 0, 10, p.ArrivalThreshold, 0),
		vessel("home", 2, 2, 10, 2, 2),
	}, p)

	require.True(t, e.Vessels()[0].Arrived())
	assert.True(t, e.AllArrived())

	e.Step()
	assert.Equal(t, geometry.NewVector(0, 0), e.Vessels()[0].Position)
	assert.True(t, e.AllArrived())
}

func TestEngine_HeadOnScenario(t *testing.T) {
	for _, policy := range []HeadingPolicy{PolicyReseek, PolicyHold} {
		t.Run(string(policy), func(t *testing.T) {
			p := DefaultParams()
			p.HeadingPolicy = policy
			e := newEngine(t, headOnFleet(), p)

			e.Step()
			first := e.LastTick()
			require.Len(t, first.AtRisk, 1)
			assert.Equal(t, colreg.HeadOn, first.AtRisk[0].Encounter)

			turned := map[string]bool{}
			for _, m := range first.Maneuvers {
				assert.Greater(t, m.Offset, 0.0)
				assert.Equal(t, colreg.HeadOn, m.Encounter)
				turned[m.Vessel] = true
			}
			assert.True(t, turned["A"], "A did not turn")
			assert.True(t, turned["B"], "B did not turn")

			vs := e.Vessels()
			// starboard of 45° and 225° means smaller headings
			assert.Less(t, vs[0].Heading, 45.0)
			assert.Less(t, geometry.NormalizeHeading(vs[1].Heading), 225.0)

			minSep := runToArrival(t, e, 200)
			assert.GreaterOrEqual(t, minSep, p.SafeDistance)
			assert.Zero(t, e.Stats().UnresolvedTicks)
			for _, v := range e.Vessels() {
				assert.Less(t, v.DistanceToDestination(), p.ArrivalThreshold)
				require.NotNil(t, v.ArrivalTime, v.ID)
			}
		})
	}
}

func TestEngine_CrossingScenario(t *testing.T) {
	p := DefaultParams()
	e := newEngine(t, crossingFleet(), p)

	conflicts := e.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, colreg.Crossing, conflicts[0].Encounter)
	assert.Equal(t, colreg.GiveWay, conflicts[0].RoleI)
	assert.Equal(t, colreg.StandOn, conflicts[0].RoleJ)

	minSep := math.Inf(1)
	for !e.AllArrived() {
		require.Less(t, e.Tick(), 200)
		e.Step()
		for _, m := range e.LastTick().Maneuvers {
			assert.Equal(t, "A", m.Vessel, "only the give-way vessel manoeuvres")
		}
		vs := e.Vessels()
		if !vs[1].Arrived() {
			assert.InDelta(t, 90.0, vs[1].Heading, 1e-9, "stand-on vessel altered course")
		}
		minSep = math.Min(minSep, vs[0].Position.DistanceTo(vs[1].Position))
	}
	assert.GreaterOrEqual(t, minSep, p.SafeDistance)
	assert.Positive(t, e.Stats().CrossingManeuvers)
	assert.Zero(t, e.Stats().HeadOnManeuvers)
}

func TestEngine_NoConflictKeepsCourse(t *testing.T) {
	e := newEngine(t, []*Vessel{
		vessel("A", 0, 0, 12, 5, 0),
		vessel("B", 0, 3, 12, 5, 3),
	}, DefaultParams())

	for !e.AllArrived() {
		require.Less(t, e.Tick(), 200)
		e.Step()
		assert.Empty(t, e.LastTick().AtRisk)
		assert.Empty(t, e.LastTick().Maneuvers)
		for _, v := range e.Vessels() {
			assert.Equal(t, 0.0, v.Heading, v.ID)
		}
	}
	assert.Zero(t, e.Stats().Maneuvers())
}

func TestEngine_OvertakingVesselGivesWay(t *testing.T) {
	e := newEngine(t, []*Vessel{
		vessel("slow", 0, 0, 8, 8, 0),
		vessel("fast", -1, 0.05, 20, 8, 0.05),
	}, DefaultParams())

	e.Step()
	report := e.LastTick()
	require.NotEmpty(t, report.Maneuvers)
	for _, m := range report.Maneuvers {
		assert.Equal(t, "fast", m.Vessel)
		assert.Equal(t, colreg.Overtaking, m.Encounter)
		assert.Equal(t, colreg.GiveWay, m.Role)
	}
	assert.Equal(t, 0.0, e.Vessels()[0].Heading)
}

func TestEngine_StandOnFallbackWhenGiveWayExhausted(t *testing.T) {
	p := DefaultParams()
	p.TurnRange = 2
	e := newEngine(t, crossingFleet(), p)

	e.Step()
	report := e.LastTick()
	require.Len(t, report.Maneuvers, 2)
	assert.Equal(t, "A", report.Maneuvers[0].Vessel)
	assert.Equal(t, colreg.GiveWay, report.Maneuvers[0].Role)
	assert.Equal(t, "B", report.Maneuvers[1].Vessel)
	assert.Equal(t, colreg.StandOn, report.Maneuvers[1].Role)

	vs := e.Vessels()
	assert.InDelta(t, 2.0, vs[0].TurnUsed, 1e-9)
	assert.InDelta(t, 2.0, vs[1].TurnUsed, 1e-9)

	// neither vessel can do more within this tick
	assert.NotEmpty(t, report.Unresolved)
	assert.Less(t, report.Iterations, p.MaxIterations)
	assert.Equal(t, 1, e.Stats().UnresolvedTicks)
}

func TestEngine_StandOnTurnIsCapped(t *testing.T) {
	p := DefaultParams()
	p.TurnRange = 1
	p.StandOnTurnCap = 0.5
	p.TurnStep = 0.25
	e := newEngine(t, crossingFleet(), p)

	e.Step()
	for _, v := range e.Vessels() {
		limit := p.TurnRange
		if v.ID == "B" {
			limit = p.StandOnTurnCap
		}
		assert.LessOrEqual(t, v.TurnUsed, limit+1e-9, v.ID)
	}
}

func TestEngine_ManeuversNeverWorsenSeparation(t *testing.T) {
	e := newEngine(t, ringFleet(6), DefaultParams())
	for i := 0; i < 40 && !e.AllArrived(); i++ {
		e.Step()
		for _, m := range e.LastTick().Maneuvers {
			assert.Greater(t, m.After, m.Before, "tick %d vessel %s", m.Tick, m.Vessel)
		}
	}
}

func TestEngine_TurnBudgetIsConserved(t *testing.T) {
	p := DefaultParams()
	e := newEngine(t, ringFleet(8), p)
	for !e.AllArrived() && e.Tick() < 300 {
		e.Step()
		perVessel := map[string]float64{}
		for _, m := range e.LastTick().Maneuvers {
			perVessel[m.Vessel] += m.Offset
		}
		for _, v := range e.Vessels() {
			assert.LessOrEqual(t, v.TurnUsed, p.TurnRange+1e-9)
			assert.InDelta(t, perVessel[v.ID], v.TurnUsed, 1e-9, v.ID)
		}
	}
}

func TestEngine_EightVesselsConverge(t *testing.T) {
	for _, policy := range []HeadingPolicy{PolicyReseek, PolicyHold} {
		t.Run(string(policy), func(t *testing.T) {
			p := DefaultParams()
			p.HeadingPolicy = policy
			e := newEngine(t, ringFleet(8), p)

			minSep := runToArrival(t, e, 300)
			assert.GreaterOrEqual(t, minSep, p.SafeDistance)
			assert.Zero(t, e.Stats().IterationCapHits)
			assert.LessOrEqual(t, e.Stats().Iterations, e.Stats().Ticks*p.MaxIterations)
		})
	}
}

func TestEngine_IterationCapBoundsStep(t *testing.T) {
	p := DefaultParams()
	p.MaxIterations = 1
	e := newEngine(t, ringFleet(8), p)

	e.Step()
	assert.Equal(t, 1, e.LastTick().Iterations)
	assert.Equal(t, 1, e.Stats().IterationCapHits)
}

func TestEngine_SettledLastPassIsNotACapHit(t *testing.T) {
	p := DefaultParams()
	p.TurnRange = 2
	free := newEngine(t, crossingFleet(), p)
	free.Step()
	passes := free.LastTick().Iterations
	require.Greater(t, passes, 1)

	// the final allowed pass finds nothing left to change
	p.MaxIterations = passes
	e := newEngine(t, crossingFleet(), p)
	e.Step()
	assert.Equal(t, passes, e.LastTick().Iterations)
	assert.Zero(t, e.Stats().IterationCapHits)
}

func TestEngine_ParallelSearchMatchesSequential(t *testing.T) {
	seq := newEngine(t, ringFleet(8), DefaultParams())
	pp := DefaultParams()
	pp.Workers = 4
	par := newEngine(t, ringFleet(8), pp)

	for i := 0; i < 30; i++ {
		seq.Step()
		par.Step()
		a, b := seq.Vessels(), par.Vessels()
		for k := range a {
			assert.Equal(t, a[k].Heading, b[k].Heading, "tick %d vessel %s", i+1, a[k].ID)
			assert.Equal(t, a[k].Position, b[k].Position, "tick %d vessel %s", i+1, a[k].ID)
		}
	}
}

func TestEngine_ArrivedVesselIsStaticObstacle(t *testing.T) {
	e := newEngine(t, []*Vessel{
		vessel("moored", 3, 0, 10, 3.02, 0),
		vessel("runner", 0, 0, 12, 6, 0),
	}, DefaultParams())

	require.True(t, e.Vessels()[0].Arrived())
	for !e.AllArrived() {
		require.Less(t, e.Tick(), 200)
		e.Step()
		assert.Equal(t, geometry.NewVector(3, 0), e.Vessels()[0].Position)
		for _, m := range e.LastTick().Maneuvers {
			assert.Equal(t, "runner", m.Vessel)
		}
	}
	assert.Positive(t, e.Stats().Maneuvers())
}

func TestEngine_HoldPolicyRelaxesTowardDestination(t *testing.T) {
	p := DefaultParams()
	p.HeadingPolicy = PolicyHold
	e := newEngine(t, crossingFleet(), p)

	runToArrival(t, e, 200)
	for _, v := range e.Vessels() {
		assert.Less(t, v.DistanceToDestination(), p.ArrivalThreshold, v.ID)
	}
}

func TestEngine_ClockAndArrivalTimes(t *testing.T) {
	p := DefaultParams()
	// 12 kn covers 0.1 NM per 30 s tick; inside 0.1 NM of 0.95 after nine ticks
	e := newEngine(t, []*Vessel{vessel("solo", 0, 0, 12, 0.95, 0)}, p)

	runToArrival(t, e, 20)
	v := e.Vessels()[0]
	require.NotNil(t, v.ArrivalTime)
	assert.Equal(t, 270.0, *v.ArrivalTime)
	assert.Equal(t, 9, e.Tick())
	assert.Equal(t, 270.0, e.Time())
}

func TestEngine_LogsDecisions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := NewEngine(crossingFleet(), DefaultParams(), WithLogger(logger))
	require.NoError(t, err)

	e.Step()
	assert.Contains(t, buf.String(), "starboard turn")
	assert.Contains(t, buf.String(), "vessel=A")
}

func BenchmarkEngine_Step(b *testing.B) {
	for _, workers := range []int{0, 4} {
		b.Run(map[int]string{0: "sequential", 4: "parallel"}[workers], func(b *testing.B) {
			p := DefaultParams()
			p.Workers = workers
			for i := 0; i < b.N; i++ {
				e := newEngine(b, ringFleet(8), p)
				for k := 0; k < 20; k++ {
					e.Step()
				}
			}
		})
	}
}
