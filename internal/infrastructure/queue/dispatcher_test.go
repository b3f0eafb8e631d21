package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/ports"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []ports.PushJob
	err   error
	block chan struct{}
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, body string) error {
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, ports.PushJob{UserID: userID, Title: title, Body: body})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestDispatcher_DeliversInOrderPerUser(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(3, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, body := range []string{"1", "2", "3"} {
		if !d.Enqueue(ports.PushJob{UserID: "u1", Title: "t", Body: body}) {
			t.Fatalf("enqueue rejected")
		}
	}

	waitFor(t, func() bool { return n.count() == 3 })

	n.mu.Lock()
	defer n.mu.Unlock()
	for i, want := range []string{"1", "2", "3"} {
		if n.calls[i].Body != want {
			t.Fatalf("out of order delivery: %+v", n.calls)
		}
	}
}

func TestDispatcher_FailureIsLoggedNotRetried(t *testing.T) {
	n := &recordingNotifier{err: errors.New("provider down")}
	d := NewDispatcher(1, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.PushJob{UserID: "u1", Title: "t"})
	waitFor(t, func() bool { return n.count() == 1 })

	time.Sleep(20 * time.Millisecond)
	if n.count() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n.count())
	}
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(1, n, zerolog.Nop())

	// Workers are not started, so the single queue fills up.
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(ports.PushJob{UserID: "u1"}) {
			t.Fatalf("enqueue %d rejected before queue was full", i)
		}
	}
	if d.Enqueue(ports.PushJob{UserID: "u1"}) {
		t.Fatalf("expected drop when queue is full")
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &recordingNotifier{}, zerolog.Nop())

	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
