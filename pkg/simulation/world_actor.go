package simulation

import (
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WorldActor owns one Engine and serialises access to it.
//
// Messages:
//   - *wrapperspb.UInt32Value: advance that many ticks (stops early once every vessel arrived)
//   - *emptypb.Empty: reply with the current snapshot as a *structpb.Struct
type WorldActor struct {
	engine     *Engine
	snapshotCh chan<- *Snapshot // may be nil
}

// NewWorldActor wraps engine. When snapshotCh is not nil the actor pushes a
// snapshot after every advance, dropping it if the reader is busy.
func NewWorldActor(engine *Engine, snapshotCh chan<- *Snapshot) *WorldActor {
	return &WorldActor{
		engine:     engine,
		snapshotCh: snapshotCh,
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("world starting with %d vessels", len(w.engine.vessels))
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		w.pushSnapshot()

	case *wrapperspb.UInt32Value:
		for i := uint32(0); i < msg.GetValue() && !w.engine.AllArrived(); i++ {
			w.engine.Step()
		}
		if n := len(w.engine.LastTick().Unresolved); n > 0 {
			ctx.Logger().Warnf("tick %d ended with %d unresolved pairs", w.engine.Tick(), n)
		}
		w.pushSnapshot()

	case *emptypb.Empty:
		st, err := w.engine.Snapshot().Proto()
		if err != nil {
			ctx.Logger().Errorf("snapshot: %v", err)
			ctx.Response(&structpb.Struct{})
			return
		}
		ctx.Response(st)

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.engine.Snapshot():
	default:
		// reader busy, skip this one
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("world stopped at tick %d", w.engine.Tick())
	return nil
}
