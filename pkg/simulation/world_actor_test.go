package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestWorldActor_AdvanceAndSnapshot(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("ColregWorldTest",
		actor.WithLogger(golog.DiscardLogger),
		actor.WithActorInitMaxRetries(3))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(ctx) })

	engine := newEngine(t, crossingFleet(), DefaultParams())
	snapshots := make(chan *Snapshot, 10)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(engine, snapshots))
	require.NoError(t, err)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.UInt32(5)))

	reply, err := actor.Ask(ctx, pid, &emptypb.Empty{}, time.Second)
	require.NoError(t, err)
	st, ok := reply.(*structpb.Struct)
	require.True(t, ok, "unexpected reply %T", reply)

	fields := st.GetFields()
	assert.Equal(t, 5.0, fields["tick"].GetNumberValue())
	assert.Equal(t, 150.0, fields["time"].GetNumberValue())
	vessels := fields["vessels"].GetListValue().GetValues()
	require.Len(t, vessels, 2)
	assert.Equal(t, "A", vessels[0].GetStructValue().GetFields()["id"].GetStringValue())

	// PostStart and the advance each pushed one snapshot
	var last *Snapshot
	require.Eventually(t, func() bool {
		for {
			select {
			case s := <-snapshots:
				last = s
			default:
				return last != nil && last.Tick == 5
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestWorldActor_StopsAdvancingOnceArrived(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("ColregWorldArrival",
		actor.WithLogger(golog.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(ctx) })

	engine := newEngine(t, []*Vessel{vessel("solo", 0, 0, 12, 0.95, 0)}, DefaultParams())
	pid, err := system.Spawn(ctx, "world", NewWorldActor(engine, nil))
	require.NoError(t, err)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.UInt32(1000)))
	reply, err := actor.Ask(ctx, pid, &emptypb.Empty{}, time.Second)
	require.NoError(t, err)

	fields := reply.(*structpb.Struct).GetFields()
	assert.True(t, fields["allArrived"].GetBoolValue())
	assert.Equal(t, 9.0, fields["tick"].GetNumberValue())
}
