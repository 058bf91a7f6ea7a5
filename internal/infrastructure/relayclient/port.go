package relayclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/protocol"
)

// PortTransport multiplexes requests over one persistent port. Replies are
// matched to callers by correlation id.
type PortTransport struct {
	conn   *websocket.Conn
	policy protocol.TimeoutPolicy
	logger output.LoggerPort

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan protocol.Response
	closed  bool
	done    chan struct{}
}

// DialPort opens the caller's port on the relay at relayURL.
func DialPort(ctx context.Context, relayURL, caller string, policy protocol.TimeoutPolicy, logger output.LoggerPort) (*Client, error) {
	t, err := dialPortTransport(ctx, relayURL, caller, policy, logger)
	if err != nil {
		return nil, err
	}
	return newClient(t, protocol.KindCapturePage, logger), nil
}

func dialPortTransport(ctx context.Context, relayURL, caller string, policy protocol.TimeoutPolicy, logger output.LoggerPort) (*PortTransport, error) {
	u, err := portURL(relayURL, caller)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay port: %w", err)
	}

	t := &PortTransport{
		conn:    conn,
		policy:  policy,
		logger:  logger,
		pending: make(map[string]chan protocol.Response),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func portURL(relayURL, caller string) (string, error) {
	u, err := url.Parse(strings.TrimRight(relayURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}
	u.Path += "/port"
	u.RawQuery = url.Values{"caller": {caller}}.Encode()
	return u.String(), nil
}

// RoundTrip resolves to ErrTimeout when the policy's deadline for the
// request kind passes, and to ErrChannelClosed when the port goes away.
func (t *PortTransport) RoundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	ch := make(chan protocol.Response, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return protocol.Response{}, protocol.ErrChannelClosed
	}
	t.pending[req.ID] = ch
	t.mu.Unlock()

	t.writeMu.Lock()
	err := t.conn.WriteJSON(req)
	t.writeMu.Unlock()
	if err != nil {
		t.forget(req.ID)
		return protocol.Response{}, fmt.Errorf("%w: %v", protocol.ErrChannelClosed, err)
	}

	timer := time.NewTimer(t.policy.For(req.Kind))
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return protocol.Response{}, protocol.ErrChannelClosed
		}
		return resp, nil
	case <-timer.C:
		t.forget(req.ID)
		return protocol.Response{}, fmt.Errorf("%s after %s: %w", req.Kind, t.policy.For(req.Kind), protocol.ErrTimeout)
	case <-ctx.Done():
		t.forget(req.ID)
		return protocol.Response{}, ctx.Err()
	}
}

func (t *PortTransport) forget(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *PortTransport) readLoop() {
	defer t.shutdown()
	for {
		var resp protocol.Response
		if err := t.conn.ReadJSON(&resp); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Warn("Relay port closed", "error", err)
			}
			return
		}

		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		delete(t.pending, resp.ID)
		t.mu.Unlock()

		if !ok {
			// late reply to a request that already timed out
			t.logger.Debug("Dropping uncorrelated reply", "id", resp.ID, "kind", resp.Kind)
			continue
		}
		ch <- resp
	}
}

// shutdown fails every pending request with ErrChannelClosed.
func (t *PortTransport) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
	close(t.done)
}

func (t *PortTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	err := t.conn.Close()
	<-t.done
	return err
}
