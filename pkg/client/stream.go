package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// maxEventSize bounds one server-sent event; full snapshots can be large.
const maxEventSize = 4 << 20

// Subscription is a live server stream. Every value of a snapshot stream is
// the complete current state.
type Subscription[T any] struct {
	ch     chan T
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// C delivers decoded values. It is closed when the stream ends.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Err reports why the stream ended. It is meaningful once C is closed and is
// nil when the stream was closed by the caller.
func (s *Subscription[T]) Err() error {
	<-s.done
	return s.err
}

// Close ends the stream and waits for its reader to exit.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

func subscribe[T any](ctx context.Context, c *Client, path string) (*Subscription[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, decodeError(resp)
	}

	s := &Subscription[T]{ch: make(chan T), done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(s.done)
		defer close(s.ch)
		defer resp.Body.Close()

		err := readEvents(resp.Body, func(data []byte) bool {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return true
			}
			select {
			case s.ch <- v:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if ctx.Err() == nil {
			s.err = err
			if s.err == nil {
				s.err = io.EOF
			}
		}
	}()
	return s, nil
}

// readEvents parses a text/event-stream body and hands each event's data to
// emit. Comments (heartbeats) and event names are skipped. It stops when emit
// returns false or the body ends.
func readEvents(r io.Reader, emit func(data []byte) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case len(line) == 0:
			if data.Len() > 0 {
				if !emit(bytes.Clone(data.Bytes())) {
					return nil
				}
				data.Reset()
			}
		case line[0] == ':':
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" ")))
		}
	}
	return sc.Err()
}

// WatchTasks streams the caller's task list. assignee is honoured for admins
// only.
func (c *Client) WatchTasks(ctx context.Context, assignee string) (*Subscription[[]*domain.Task], error) {
	path := "/v1/tasks/stream"
	if assignee != "" {
		path += "?assignee=" + url.QueryEscape(assignee)
	}
	return subscribe[[]*domain.Task](ctx, c, path)
}

// WatchConversation streams the conversation with receiverID.
func (c *Client) WatchConversation(ctx context.Context, receiverID string) (*Subscription[Conversation], error) {
	return subscribe[Conversation](ctx, c, "/v1/messages/"+url.PathEscape(receiverID)+"/stream")
}

// WatchIdentity streams the signed-in state of the current session.
func (c *Client) WatchIdentity(ctx context.Context) (*Subscription[domain.Identity], error) {
	return subscribe[domain.Identity](ctx, c, "/v1/session/stream")
}

// Notifications streams in-app pushes for the signed-in user.
func (c *Client) Notifications(ctx context.Context) (*Subscription[domain.PushNotification], error) {
	return subscribe[domain.PushNotification](ctx, c, "/v1/notifications/stream")
}
