package trace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/runner"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
)

func pairJob() runner.Job {
	return runner.Job{
		Name: "head on/short",
		Fleet: []*simulation.Vessel{
			simulation.NewVessel("A", geometry.NewVector(0, 0), 20, geometry.NewVector(5, 5), 0, 0),
			simulation.NewVessel("B", geometry.NewVector(5, 5), 20, geometry.NewVector(0, 0), 0, 0),
		},
		Params: simulation.DefaultParams(),
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "head-on.jsonl", FileName("head-on"))
	assert.Equal(t, "head_on_short.jsonl", FileName("head on/short"))
	assert.Equal(t, "run.jsonl", FileName(""))
}

func TestWriterRoundTrip(t *testing.T) {
	engine, err := simulation.NewEngine(pairJob().Fleet, simulation.DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(engine.Snapshot()))
	engine.Step()
	require.NoError(t, w.Write(engine.Snapshot()))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	snaps, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 0.0, snaps[0].Fields["tick"].GetNumberValue())
	assert.Equal(t, 1.0, snaps[1].Fields["tick"].GetNumberValue())
	assert.Equal(t, 30.0, snaps[1].Fields["time"].GetNumberValue())

	vessels := snaps[1].Fields["vessels"].GetListValue().GetValues()
	require.Len(t, vessels, 2)
	assert.Equal(t, "A", vessels[0].GetStructValue().Fields["id"].GetStringValue())

	// the two vessels start on a collision course
	assert.NotEmpty(t, snaps[0].Fields["conflicts"].GetListValue().GetValues())
}

func TestRead_BadLine(t *testing.T) {
	_, err := Read(strings.NewReader("{\"tick\": 0}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDir_WithRunner(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")

	_, err := runner.Run(context.Background(), pairJob(), runner.Options{MaxTicks: 4, Trace: Dir(dir)})
	require.ErrorIs(t, err, runner.ErrTickLimit)

	f, err := os.Open(filepath.Join(dir, "head_on_short.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	snaps, err := Read(f)
	require.NoError(t, err)
	require.Len(t, snaps, 5)
	assert.Equal(t, 4.0, snaps[4].Fields["tick"].GetNumberValue())
	assert.False(t, snaps[4].Fields["allArrived"].GetBoolValue())
}
