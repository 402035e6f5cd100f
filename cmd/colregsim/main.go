// Command colregsim runs scenario files to completion without a window and
// prints the voyage report of each run.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/logging"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/report"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/runner"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/scenario"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/store"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/trace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "colregsim:", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("colregsim", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: colregsim [flags] scenario.json...")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "JSON or YAML configuration file")
	list := fs.Bool("list", false, "print the runs stored in --db and exit")
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(viper.New(), fs, *configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(stderr, logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	var db *store.Store
	if cfg.DBPath != "" {
		if db, err = store.Open(cfg.DBPath); err != nil {
			return err
		}
		defer db.Close()
	}

	if *list {
		if db == nil {
			return errors.New("--list needs --db")
		}
		return listRuns(ctx, db, stdout)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no scenario given")
	}

	jobs, err := loadJobs(cfg, fs.Args())
	if err != nil {
		return err
	}

	opts := runner.Options{MaxTicks: cfg.MaxTicks, Parallel: cfg.Parallel, Logger: logger}
	if cfg.TraceDir != "" {
		opts.Trace = trace.Dir(cfg.TraceDir)
	}
	results, runErr := runner.RunAll(ctx, jobs, opts)

	for _, res := range results {
		if res == nil {
			continue
		}
		rep := report.FromResult(res)
		if err := rep.Render(stdout); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		if db != nil {
			id, err := db.SaveResult(ctx, rep)
			if err != nil {
				return err
			}
			logger.Info("run stored", "scenario", rep.Scenario, "id", id)
		}
	}
	return runErr
}

// loadJobs reads each scenario file. Settings pinned by flag or environment
// override the scenario's own.
func loadJobs(cfg *config.Config, paths []string) ([]runner.Job, error) {
	jobs := make([]runner.Job, 0, len(paths))
	for _, path := range paths {
		sc, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, runner.Job{Name: sc.Name, Fleet: sc.Fleet(), Params: cfg.ScenarioParams(sc)})
	}
	return jobs, nil
}

func listRuns(ctx context.Context, db *store.Store, w io.Writer) error {
	runs, err := db.ListRuns(ctx, "")
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENARIO\tPOLICY\tARRIVED\tTICKS\tMANEUVERS\tMIN SEP NM\tSTORED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d\t%d\t%.3f\t%s\n",
			r.ID, r.Scenario, r.Policy, r.Completed, r.Ticks,
			r.HeadOn+r.Crossing+r.Overtaking, r.MinSeparationNm,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
