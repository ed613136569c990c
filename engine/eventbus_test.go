package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"rankboard/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventBoardCreated, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewBoardCreated("chess", "alice"))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventWinRecorded, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewWinRecorded("chess", "bob", "alice", 1, true))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusSubscribeAllAndUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	var count int32
	unsub := bus.SubscribeAll(func(ctx context.Context, e core.Event) { atomic.AddInt32(&count, 1) })
	bus.Publish(context.Background(), core.NewBoardCreated("chess", "alice"))
	bus.Publish(context.Background(), core.NewBoardDeleted("chess"))
	unsub()
	bus.Publish(context.Background(), core.NewBoardDeleted("chess"))
	if got := atomic.LoadInt32(&count); got != 2 {
		t.Fatalf("want 2 got %d", got)
	}
	bus.Close()
	bus.Close()
}

func TestEventBusAsyncDropsWhenFull(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	release := make(chan struct{})
	var handled atomic.Int32
	bus.Subscribe(core.EventParticipantAdded, func(ctx context.Context, e core.Event) {
		<-release
		handled.Add(1)
	})

	total := asyncQueueSize + asyncWorkers + 10
	for range total {
		bus.Publish(context.Background(), core.NewParticipantAdded("chess", "bob"))
	}
	// workers hold at most one event each, the queue the rest
	if got := bus.Dropped(); got < 10 {
		t.Fatalf("want at least 10 dropped got %d", got)
	}
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for uint64(handled.Load())+bus.Dropped() < uint64(total) {
		if time.Now().After(deadline) {
			t.Fatalf("handled %d dropped %d of %d", handled.Load(), bus.Dropped(), total)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
