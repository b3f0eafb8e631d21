// Package feed turns change signals into cancellable streams.
//
// A snapshot stream (Watch) emits the full current state immediately and then
// again after every change signal. Values are delivered latest-wins: when the
// consumer falls behind, an undelivered snapshot is replaced by the newer one,
// so consumers must treat every value as a complete replacement.
//
// An event stream (Events) forwards one value per signal, in order.
//
// Every stream must be released with Close (or by cancelling its context).
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const eventBuffer = 16

// Loader produces the current snapshot.
type Loader[T any] func(ctx context.Context) (T, error)

// Stream is a live subscription handle.
type Stream[T any] struct {
	ch     chan T
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newStream[T any](cancel context.CancelFunc, buffer int) *Stream[T] {
	return &Stream[T]{
		ch:     make(chan T, buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// C returns the delivery channel. It is closed once the stream ends.
func (s *Stream[T]) C() <-chan T { return s.ch }

// Done is closed after the stream has released its subscription.
func (s *Stream[T]) Done() <-chan struct{} { return s.done }

// Close stops the stream and waits until its subscription is released.
// Calling Close more than once is a no-op.
func (s *Stream[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// offer replaces any undelivered value with v. Only the stream's own
// goroutine sends, so the loop terminates.
func (s *Stream[T]) offer(v T) {
	for {
		select {
		case s.ch <- v:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Watch loads an initial snapshot and re-loads after every signal. The caller
// must subscribe before calling Watch so no change between the subscription
// and the first load is lost; release is invoked when the stream ends.
//
// An error from the initial load is returned directly and the subscription is
// released. Later load errors are logged and the previous snapshot stands.
func Watch[T, E any](ctx context.Context, signals <-chan E, release func(), load Loader[T], log zerolog.Logger) (*Stream[T], error) {
	first, err := load(ctx)
	if err != nil {
		release()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newStream[T](cancel, 1)
	s.offer(first)

	go func() {
		defer close(s.done)
		defer close(s.ch)
		defer release()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if !drain(signals) {
					return
				}
				v, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Warn().Err(err).Msg("feed: snapshot reload failed")
					continue
				}
				s.offer(v)
			}
		}
	}()

	return s, nil
}

// drain discards queued signals so a burst of changes costs one reload.
// It reports false when the signal channel has been closed.
func drain[E any](signals <-chan E) bool {
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Events forwards every signal that decode accepts. Delivery blocks on a slow
// consumer until the stream is closed; the upstream broker is expected to
// drop for subscribers whose buffers are full.
func Events[T, E any](ctx context.Context, signals <-chan E, release func(), decode func(E) (T, bool)) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := newStream[T](cancel, eventBuffer)

	go func() {
		defer close(s.done)
		defer close(s.ch)
		defer release()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				v, ok := decode(sig)
				if !ok {
					continue
				}
				select {
				case s.ch <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return s
}
