package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterLoader(n *atomic.Int32) Loader[int] {
	return func(context.Context) (int, error) {
		return int(n.Add(1)), nil
	}
}

func receive[T any](t *testing.T, s *Stream[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "stream closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestWatch_EmitsInitialSnapshot(t *testing.T) {
	var n atomic.Int32
	signals := make(chan struct{}, 4)

	s, err := Watch(context.Background(), signals, func() {}, counterLoader(&n), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, receive(t, s))
}

func TestWatch_ReloadsOnSignal(t *testing.T) {
	var n atomic.Int32
	signals := make(chan struct{}, 4)

	s, err := Watch(context.Background(), signals, func() {}, counterLoader(&n), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, receive(t, s))
	signals <- struct{}{}
	assert.Equal(t, 2, receive(t, s))
}

func TestWatch_LatestWins(t *testing.T) {
	var n atomic.Int32
	signals := make(chan struct{})

	s, err := Watch(context.Background(), signals, func() {}, counterLoader(&n), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	// Nobody reads the initial snapshot; each signal replaces it.
	signals <- struct{}{}
	signals <- struct{}{}
	signals <- struct{}{}

	var seen []int
	assert.Eventually(t, func() bool {
		select {
		case v := <-s.C():
			seen = append(seen, v)
		default:
		}
		return len(seen) > 0 && seen[len(seen)-1] == 4
	}, time.Second, 5*time.Millisecond)
	assert.NotContains(t, seen, 1)
	assert.NotContains(t, seen, 2)
}

func TestWatch_InitialLoadErrorReleases(t *testing.T) {
	released := false
	boom := errors.New("boom")

	s, err := Watch(context.Background(), make(chan struct{}), func() { released = true },
		func(context.Context) (int, error) { return 0, boom }, zerolog.Nop())

	assert.Nil(t, s)
	assert.ErrorIs(t, err, boom)
	assert.True(t, released)
}

func TestWatch_ReloadErrorKeepsStreamOpen(t *testing.T) {
	var calls atomic.Int32
	signals := make(chan struct{}, 1)
	load := func(context.Context) (int, error) {
		c := calls.Add(1)
		if c == 2 {
			return 0, errors.New("transient")
		}
		return int(c), nil
	}

	s, err := Watch(context.Background(), signals, func() {}, load, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, receive(t, s))
	signals <- struct{}{}
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	signals <- struct{}{}
	assert.Equal(t, 3, receive(t, s))
}

func TestStream_CloseReleasesSubscription(t *testing.T) {
	var n atomic.Int32
	var released atomic.Bool

	s, err := Watch(context.Background(), make(chan struct{}), func() { released.Store(true) },
		counterLoader(&n), zerolog.Nop())
	require.NoError(t, err)

	s.Close()
	s.Close()

	assert.True(t, released.Load())
	_ = receive(t, s)
	_, ok := <-s.C()
	assert.False(t, ok)
}

func TestStream_ContextCancelEnds(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Watch(ctx, make(chan struct{}), func() {}, counterLoader(&n), zerolog.Nop())
	require.NoError(t, err)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("stream did not end after cancel")
	}
}

func TestEvents_ForwardsInOrder(t *testing.T) {
	signals := make(chan string, 4)
	decode := func(s string) (string, bool) { return s, s != "skip" }

	s := Events(context.Background(), signals, func() {}, decode)
	defer s.Close()

	signals <- "a"
	signals <- "skip"
	signals <- "b"

	assert.Equal(t, "a", receive(t, s))
	assert.Equal(t, "b", receive(t, s))
}

func TestEvents_EndsWhenSignalsClose(t *testing.T) {
	signals := make(chan string)
	var released atomic.Bool

	s := Events(context.Background(), signals, func() { released.Store(true) },
		func(s string) (string, bool) { return s, true })

	close(signals)
	<-s.Done()
	assert.True(t, released.Load())
}
