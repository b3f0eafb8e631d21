package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Notifier performs one delivery attempt.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

// Dispatcher delivers outbound pushes on a fixed set of workers. Jobs are
// sharded by recipient so one user's notifications go out in order.
type Dispatcher struct {
	workers  []chan ports.PushJob
	notifier Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.PushJob, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PushJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// jobs still queued at that point are dropped.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands job to its recipient's worker without blocking. It reports
// false, and the job is dropped, when that worker's queue is full.
func (d *Dispatcher) Enqueue(job ports.PushJob) bool {
	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		metrics.PushQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.PushResultsTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PushJob) {
	depth := metrics.PushQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ch:
			depth.Set(float64(len(ch)))
			if err := d.notifier.Notify(ctx, job.UserID, job.Title, job.Body); err != nil {
				d.log.Warn().Err(err).
					Str("user_id", job.UserID).
					Str("title", job.Title).
					Int("worker_id", id).
					Msg("push notification failed")
			}
		}
	}
}
