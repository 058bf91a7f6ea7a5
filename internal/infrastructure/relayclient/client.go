// Package relayclient is the host application's side of the messaging
// protocol.
package relayclient

import (
	"context"
	"errors"
	"fmt"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/protocol"
)

// ErrRejected wraps the error text of a {success:false} response.
var ErrRejected = errors.New("relay rejected request")

// Transport carries one request to the relay and brings back its response.
// It applies the timeout policy and maps transport failures onto the
// protocol sentinels.
type Transport interface {
	RoundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Close() error
}

var _ output.RelayPort = (*Client)(nil)

type Client struct {
	transport   Transport
	captureKind protocol.Kind
	logger      output.LoggerPort
}

func newClient(t Transport, captureKind protocol.Kind, logger output.LoggerPort) *Client {
	return &Client{transport: t, captureKind: captureKind, logger: logger}
}

func (c *Client) call(ctx context.Context, kind protocol.Kind, payload any) (protocol.Response, error) {
	req, err := protocol.NewRequest(kind, payload)
	if err != nil {
		return protocol.Response{}, err
	}

	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		c.logger.Warn("Relay request failed", "kind", kind, "id", req.ID, "error", err)
		return protocol.Response{}, err
	}
	if resp.ID != req.ID {
		return protocol.Response{}, fmt.Errorf("%s: response id %q does not match request %q", kind, resp.ID, req.ID)
	}
	if !resp.Success {
		return resp, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return resp, nil
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, protocol.KindPing, nil)
	if err != nil {
		return "", err
	}
	return resp.Version, nil
}

func (c *Client) Capture(ctx context.Context) (*entity.FormSchema, error) {
	resp, err := c.call(ctx, c.captureKind, nil)
	if err != nil {
		return nil, err
	}
	if resp.Schema == nil {
		return nil, fmt.Errorf("%s: response carries no schema", c.captureKind)
	}
	return resp.Schema, nil
}

// Fill sends already substituted values. The map must come from
// privacy.LiteralFill.Wire.
func (c *Client) Fill(ctx context.Context, fieldMappings map[string]string) ([]entity.FillResult, error) {
	resp, err := c.call(ctx, protocol.KindFillForm, protocol.FillPayload{FieldMappings: fieldMappings})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// LastCapture returns nil without error when the relay holds no current
// capture.
func (c *Client) LastCapture(ctx context.Context) (*entity.FormSchema, error) {
	resp, err := c.call(ctx, protocol.KindGetLastCapture, nil)
	if err != nil {
		return nil, err
	}
	return resp.Schema, nil
}

func (c *Client) ClearLastCapture(ctx context.Context) error {
	_, err := c.call(ctx, protocol.KindClearLastCapture, nil)
	return err
}

func (c *Client) Captures(ctx context.Context) ([]entity.CaptureHistoryEntry, error) {
	resp, err := c.call(ctx, protocol.KindListCaptures, nil)
	if err != nil {
		return nil, err
	}
	return resp.Captures, nil
}

func (c *Client) SelectCapture(ctx context.Context, index int) (*entity.FormSchema, error) {
	resp, err := c.call(ctx, protocol.KindSelectCapture, protocol.IndexPayload{Index: index})
	if err != nil {
		return nil, err
	}
	return resp.Schema, nil
}

func (c *Client) RemoveCapture(ctx context.Context, index int) error {
	_, err := c.call(ctx, protocol.KindRemoveCapture, protocol.IndexPayload{Index: index})
	return err
}

func (c *Client) Close() error {
	return c.transport.Close()
}
