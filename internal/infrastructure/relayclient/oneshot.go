package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/protocol"
)

// OneShotTransport sends every request as its own HTTP call addressed to
// an extension id.
type OneShotTransport struct {
	endpoint string
	client   *http.Client
	policy   protocol.TimeoutPolicy
}

func NewOneShot(relayURL, extensionID string, policy protocol.TimeoutPolicy, logger output.LoggerPort) *Client {
	return newClient(newOneShotTransport(relayURL, extensionID, policy, &http.Client{}), protocol.KindCaptureForm, logger)
}

func newOneShotTransport(relayURL, extensionID string, policy protocol.TimeoutPolicy, client *http.Client) *OneShotTransport {
	return &OneShotTransport{
		endpoint: strings.TrimRight(relayURL, "/") + "/extensions/" + url.PathEscape(extensionID) + "/messages",
		client:   client,
		policy:   policy,
	}
}

func (t *OneShotTransport) RoundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("encode %s: %w", req.Kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.policy.For(req.Kind))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return protocol.Response{}, fmt.Errorf("build %s request: %w", req.Kind, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return protocol.Response{}, fmt.Errorf("%s after %s: %w", req.Kind, t.policy.For(req.Kind), protocol.ErrTimeout)
		}
		return protocol.Response{}, fmt.Errorf("%w: %v", protocol.ErrChannelClosed, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return protocol.Response{}, protocol.ErrExtensionNotFound
	default:
		return protocol.Response{}, fmt.Errorf("%s: relay answered %s", req.Kind, res.Status)
	}

	var resp protocol.Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return protocol.Response{}, fmt.Errorf("%s after %s: %w", req.Kind, t.policy.For(req.Kind), protocol.ErrTimeout)
		}
		return protocol.Response{}, fmt.Errorf("decode %s response: %w", req.Kind, err)
	}
	return resp, nil
}

func (t *OneShotTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
