package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/feed"
)

// heartbeatInterval keeps idle streams alive through proxies.
var heartbeatInterval = 25 * time.Second

// streamSSE writes every value of s to the client as a server-sent event
// named kind until the client disconnects or the stream ends. render, when
// non-nil, shapes each value before encoding. The stream is always closed on
// return.
func streamSSE[T any](c echo.Context, kind string, s *feed.Stream[T], render func(T) any) error {
	defer s.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	metrics.ActiveStreams.WithLabelValues(kind).Inc()
	defer metrics.ActiveStreams.WithLabelValues(kind).Dec()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-s.C():
			if !ok {
				return nil
			}
			var out any = v
			if render != nil {
				out = render(v)
			}
			if err := writeEvent(res, kind, out); err != nil {
				return nil
			}
			metrics.StreamEventsTotal.WithLabelValues(kind).Inc()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", kind, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
