// Package runner drives engines to completion without a window.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
)

// ErrTickLimit is returned, wrapped with the job name, when a run stops
// before every vessel arrived. The partial Result is returned with it.
var ErrTickLimit = errors.New("tick limit reached")

// Sink receives the snapshot taken before the first tick and after each one.
type Sink interface {
	Write(*simulation.Snapshot) error
}

// SinkFactory opens the sink of one job. The runner closes what it opens.
type SinkFactory func(name string) (Sink, io.Closer, error)

// Job is one scenario to run.
type Job struct {
	Name   string
	Fleet  []*simulation.Vessel
	Params simulation.Params
}

type Options struct {
	MaxTicks int
	Parallel int // jobs run at once by RunAll, at least 1
	Logger   *slog.Logger
	Trace    SinkFactory // nil disables traces
}

// Result is the outcome of one job.
type Result struct {
	Name      string
	Params    simulation.Params
	Completed bool // every vessel arrived
	Ticks     int
	Time      float64 // simulated seconds
	Elapsed   time.Duration

	Initial []*simulation.Vessel // fleet as submitted
	Final   []*simulation.Vessel // fleet when the run stopped

	Stats     simulation.Stats
	Maneuvers []simulation.Maneuver
	// MinSeparation is the smallest distance in NM seen between two vessels at
	// the end of any tick, counting only pairs with at least one vessel under way.
	MinSeparation float64
}

func cloneFleet(fleet []*simulation.Vessel) []*simulation.Vessel {
	out := make([]*simulation.Vessel, len(fleet))
	for i, v := range fleet {
		out[i] = v.Clone()
	}
	return out
}

func minSeparation(vessels []*simulation.Vessel) float64 {
	best := math.Inf(1)
	for i := range vessels {
		for j := i + 1; j < len(vessels); j++ {
			if vessels[i].Arrived() && vessels[j].Arrived() {
				continue
			}
			best = min(best, vessels[i].Position.DistanceTo(vessels[j].Position))
		}
	}
	return best
}

// Run steps a copy of job.Fleet until every vessel arrived, opts.MaxTicks is
// reached or ctx is done. job.Fleet itself is never modified.
func Run(ctx context.Context, job Job, opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("scenario", job.Name)
	if opts.MaxTicks <= 0 {
		return nil, fmt.Errorf("%s: max ticks must be positive, got %d", job.Name, opts.MaxTicks)
	}

	engine, err := simulation.NewEngine(cloneFleet(job.Fleet), job.Params, simulation.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}

	var sink Sink
	if opts.Trace != nil {
		s, closer, terr := opts.Trace(job.Name)
		if terr != nil {
			return nil, fmt.Errorf("%s: opening trace: %w", job.Name, terr)
		}
		defer func() {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("%s: closing trace: %w", job.Name, cerr)
			}
		}()
		sink = s
	}

	res = &Result{
		Name:          job.Name,
		Params:        job.Params,
		Initial:       cloneFleet(job.Fleet),
		MinSeparation: minSeparation(engine.Vessels()),
	}
	start := time.Now()
	finish := func() {
		res.Completed = engine.AllArrived()
		res.Ticks = engine.Tick()
		res.Time = engine.Time()
		res.Elapsed = time.Since(start)
		res.Final = engine.Vessels()
		res.Stats = engine.Stats()
	}

	write := func() error {
		if sink == nil {
			return nil
		}
		if err := sink.Write(engine.Snapshot()); err != nil {
			return fmt.Errorf("%s: writing trace at tick %d: %w", job.Name, engine.Tick(), err)
		}
		return nil
	}
	if err := write(); err != nil {
		return nil, err
	}

	logger.Info("run started", "vessels", len(job.Fleet), "policy", job.Params.HeadingPolicy)
	for !engine.AllArrived() && engine.Tick() < opts.MaxTicks {
		if err := ctx.Err(); err != nil {
			finish()
			return res, fmt.Errorf("%s: %w", job.Name, err)
		}
		engine.Step()
		last := engine.LastTick()
		res.Maneuvers = append(res.Maneuvers, last.Maneuvers...)
		res.MinSeparation = min(res.MinSeparation, minSeparation(engine.Vessels()))
		if err := write(); err != nil {
			finish()
			return res, err
		}
	}
	finish()

	if !res.Completed {
		logger.Warn("run stopped before arrival", "ticks", res.Ticks)
		return res, fmt.Errorf("%s: %w after %d ticks", job.Name, ErrTickLimit, res.Ticks)
	}
	logger.Info("run finished",
		"ticks", res.Ticks,
		"sim_seconds", res.Time,
		"maneuvers", res.Stats.Maneuvers(),
		"min_separation_nm", res.MinSeparation,
		"elapsed", res.Elapsed)
	return res, nil
}

// RunAll runs the jobs with at most opts.Parallel at a time. Results keep the
// order of jobs; a job that failed to start leaves a nil entry. A tick limit
// in one job does not stop the others; any other error cancels the rest.
// The returned error joins the errors of every job.
func RunAll(ctx context.Context, jobs []Job, opts Options) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallel))
	for i, job := range jobs {
		g.Go(func() error {
			res, err := Run(gctx, job, opts)
			results[i], errs[i] = res, err
			if err != nil && !errors.Is(err, ErrTickLimit) {
				return err
			}
			return nil
		})
	}
	_ = g.Wait() // every error is also in errs
	return results, errors.Join(errs...)
}
