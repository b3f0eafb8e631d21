// Package realtime fans change signals out to in-process subscribers.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/ports"
)

const (
	hubBuffer        = 100
	subscriberBuffer = 50
)

type subscriber struct {
	id string
	ch chan ports.Change
}

// Hub is a topic-keyed broker. Publish is asynchronous; a subscriber whose
// buffer is full misses the change rather than stalling everyone else.
// Snapshot consumers recover on the next change, so a miss is tolerable.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[string]*subscriber
	eventCh chan ports.Change
	stopCh  chan struct{}
	stop    sync.Once
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]map[string]*subscriber),
		eventCh: make(chan ports.Change, hubBuffer),
		stopCh:  make(chan struct{}),
		log:     log,
	}
}

// Start begins the distribution loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop ends the distribution loop. Pending changes are discarded.
func (h *Hub) Stop() {
	h.stop.Do(func() { close(h.stopCh) })
}

func (h *Hub) Publish(ctx context.Context, c ports.Change) error {
	select {
	case h.eventCh <- c:
		return nil
	case <-h.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Subscribe(topic string) (<-chan ports.Change, func()) {
	sub := &subscriber{id: uuid.NewString(), ch: make(chan ports.Change, subscriberBuffer)}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*subscriber)
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.unsubscribe(topic, sub) })
	}
}

func (h *Hub) unsubscribe(topic string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	close(sub.ch)
}

// SubscriberCount returns the number of live subscriptions on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.eventCh:
			h.broadcast(c)
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) broadcast(c ports.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.topics[c.Topic] {
		select {
		case sub.ch <- c:
		default:
			h.log.Debug().Str("topic", c.Topic).Str("subscriber", sub.id).Msg("subscriber buffer full, change skipped")
		}
	}
}
