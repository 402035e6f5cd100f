package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/runner"
)

const headOn = "../../internal/scenario/testdata/head_on.json"

func TestRun_HeadOnWithStoreAndTrace(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	traces := filepath.Join(dir, "traces")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--db", db, "--trace-dir", traces, headOn}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "scenario head-on (reseek policy): all vessels arrived after 43 ticks")
	assert.Contains(t, stdout.String(), "ShipA")
	assert.Contains(t, stderr.String(), "run stored")

	_, err = os.Stat(filepath.Join(traces, "head-on.jsonl"))
	assert.NoError(t, err)

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"--db", db, "--list"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "SCENARIO")
	assert.Contains(t, stdout.String(), "head-on")
}

func TestRun_TickLimitStillReports(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--max-ticks", "5", headOn}, &stdout, &stderr)
	require.ErrorIs(t, err, runner.ErrTickLimit)
	assert.Contains(t, stdout.String(), "stopped before arrival after 5 ticks")
}

func TestRun_TickFlagOverridesScenario(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--tick", "10", "--max-ticks", "5", headOn}, &stdout, &stderr)
	require.ErrorIs(t, err, runner.ErrTickLimit)
	assert.Contains(t, stdout.String(), "stopped before arrival after 5 ticks, 50.0 s")
}

func TestLoadJobs_PinnedSettings(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--tick", "10", "--turn-range", "15"}))
	cfg, err := config.Load(viper.New(), fs, "")
	require.NoError(t, err)

	jobs, err := loadJobs(cfg, []string{headOn})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 10.0, jobs[0].Params.TickSeconds)
	assert.Equal(t, 15.0, jobs[0].Params.TurnRange)
	assert.Equal(t, 0.2, jobs[0].Params.SafeDistance)

	cfg, err = config.Load(viper.New(), nil, "")
	require.NoError(t, err)
	jobs, err = loadJobs(cfg, []string{headOn})
	require.NoError(t, err)
	assert.Equal(t, 30.0, jobs[0].Params.TickSeconds, "scenario value without an override")
	assert.Equal(t, 40.0, jobs[0].Params.TurnRange)
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	assert.Error(t, run(ctx, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: colregsim")

	assert.Error(t, run(ctx, []string{"--list"}, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"--log-level", "loud", headOn}, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"missing.json"}, &stdout, &stderr))
}
