// Package metrics defines the custom Prometheus metrics of the taskboard
// service. Metrics register themselves with the default registry on package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskboard"

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts created tasks.
// Label:
//   - priority: "low", "medium" or "high"
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by priority.",
	},
	[]string{"priority"},
)

// TaskStatusChangesTotal counts successful status transitions.
// Label:
//   - status: the new status ("to-do", "in-progress", "completed")
var TaskStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_status_changes_total",
		Help:      "Total number of task status changes, by new status.",
	},
	[]string{"status"},
)

// ── Messaging & presence ──────────────────────────────────────────────────────

var MessagesSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of direct messages stored.",
	},
)

// PresenceUpdatesTotal counts presence writes.
// Label:
//   - online: "true" or "false"
var PresenceUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "presence_updates_total",
		Help:      "Total number of presence updates, by new state.",
	},
	[]string{"online"},
)

// ── Push notifications ────────────────────────────────────────────────────────

// PushResultsTotal counts outbound push outcomes.
// Label:
//   - result: "sent", "failed", "unregistered" or "dropped" (queue full)
var PushResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_results_total",
		Help:      "Total number of outbound push notifications, by outcome.",
	},
	[]string{"result"},
)

// PushQueueDepth tracks jobs waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var PushQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "push_queue_depth",
		Help:      "Current number of push notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Live streams ──────────────────────────────────────────────────────────────

// ActiveStreams tracks open server-sent event streams.
// Label:
//   - kind: "tasks", "users", "messages", "session" or "notifications"
var ActiveStreams = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_streams",
		Help:      "Current number of open live streams, by kind.",
	},
	[]string{"kind"},
)

// StreamEventsTotal counts snapshots and events written to live streams.
var StreamEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_total",
		Help:      "Total number of values written to live streams, by kind.",
	},
	[]string{"kind"},
)
