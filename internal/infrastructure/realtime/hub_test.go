package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmanagement/taskboard/internal/core/ports"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zerolog.Nop())
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func next(t *testing.T, ch <-chan ports.Change) ports.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return ports.Change{}
}

func TestHub_DeliversByTopic(t *testing.T) {
	h := startHub(t)

	tasks, releaseTasks := h.Subscribe(ports.TopicTasks)
	defer releaseTasks()
	users, releaseUsers := h.Subscribe(ports.TopicUsers)
	defer releaseUsers()

	require.NoError(t, h.Publish(context.Background(), ports.Change{Topic: ports.TopicTasks, Payload: []byte("x")}))

	c := next(t, tasks)
	assert.Equal(t, ports.TopicTasks, c.Topic)
	assert.Equal(t, []byte("x"), c.Payload)

	select {
	case <-users:
		t.Fatal("users subscriber received a tasks change")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FanOut(t *testing.T) {
	h := startHub(t)

	a, releaseA := h.Subscribe("messages:a_b")
	defer releaseA()
	b, releaseB := h.Subscribe("messages:a_b")
	defer releaseB()

	require.NoError(t, h.Publish(context.Background(), ports.Change{Topic: "messages:a_b"}))

	next(t, a)
	next(t, b)
}

func TestHub_UnsubscribeClosesAndIsIdempotent(t *testing.T) {
	h := startHub(t)

	ch, release := h.Subscribe(ports.TopicUsers)
	assert.Equal(t, 1, h.SubscriberCount(ports.TopicUsers))

	release()
	release()

	assert.Equal(t, 0, h.SubscriberCount(ports.TopicUsers))
	_, ok := <-ch
	assert.False(t, ok)
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	h := startHub(t)

	slow, releaseSlow := h.Subscribe(ports.TopicTasks)
	defer releaseSlow()

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, h.Publish(context.Background(), ports.Change{Topic: ports.TopicTasks}))
	}

	fast, releaseFast := h.Subscribe(ports.TopicTasks)
	defer releaseFast()

	assert.Eventually(t, func() bool { return len(slow) == subscriberBuffer }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish(context.Background(), ports.Change{Topic: ports.TopicTasks}))
	next(t, fast)
}

func TestHub_PublishAfterStop(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.Start()
	h.Stop()
	h.Stop()

	assert.NoError(t, h.Publish(context.Background(), ports.Change{Topic: ports.TopicTasks}))
}
