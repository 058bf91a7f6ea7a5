// Package protocol defines the typed request/response messages exchanged
// between the host application, the relay and the page context.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"formbridge/internal/domain/entity"
)

const Version = "1.2.0"

type Kind string

const (
	KindPing             Kind = "PING"
	KindCapturePage      Kind = "CAPTURE_PAGE"
	KindCaptureForm      Kind = "CAPTURE_FORM"
	KindFillForm         Kind = "FILL_FORM"
	KindGetLastCapture   Kind = "GET_LAST_CAPTURE"
	KindClearLastCapture Kind = "CLEAR_LAST_CAPTURE"
	KindListCaptures     Kind = "LIST_CAPTURES"
	KindSelectCapture    Kind = "SELECT_CAPTURE"
	KindRemoveCapture    Kind = "REMOVE_CAPTURE"
)

// NeedsPage reports whether the kind requires a round trip to the page.
func (k Kind) NeedsPage() bool {
	switch k {
	case KindCapturePage, KindCaptureForm, KindFillForm:
		return true
	}
	return false
}

func (k Kind) IsCapture() bool {
	return k == KindCapturePage || k == KindCaptureForm
}

func (k Kind) Known() bool {
	switch k {
	case KindPing, KindCapturePage, KindCaptureForm, KindFillForm,
		KindGetLastCapture, KindClearLastCapture,
		KindListCaptures, KindSelectCapture, KindRemoveCapture:
		return true
	}
	return false
}

var (
	ErrUnknownKind       = errors.New("unknown message kind")
	ErrTimeout           = errors.New("request timed out")
	ErrChannelClosed     = errors.New("message channel closed")
	ErrExtensionNotFound = errors.New("extension not found")
)

// Request is the envelope for every message kind. ID correlates the reply.
type Request struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type FillPayload struct {
	FieldMappings map[string]string `json:"fieldMappings"`
}

type IndexPayload struct {
	Index int `json:"index"`
}

func NewRequest(kind Kind, payload any) (Request, error) {
	req := Request{ID: uuid.NewString(), Kind: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Request{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		req.Payload = raw
	}
	return req, nil
}

func (r Request) Decode(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", r.Kind)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", r.Kind, err)
	}
	return nil
}

type Response struct {
	ID       string                       `json:"id"`
	Kind     Kind                         `json:"kind"`
	Success  bool                         `json:"success"`
	Error    string                       `json:"error,omitempty"`
	Version  string                       `json:"version,omitempty"`
	Schema   *entity.FormSchema           `json:"schema,omitempty"`
	Results  []entity.FillResult          `json:"results,omitempty"`
	Captures []entity.CaptureHistoryEntry `json:"captures,omitempty"`
}

func Reply(req Request) Response {
	return Response{ID: req.ID, Kind: req.Kind, Success: true}
}

func Failure(req Request, format string, args ...any) Response {
	return Response{ID: req.ID, Kind: req.Kind, Success: false, Error: fmt.Sprintf(format, args...)}
}

// TimeoutPolicy is the single caller-side timeout rule for requests that
// solicit a page response.
type TimeoutPolicy struct {
	Capture time.Duration
	Fill    time.Duration
	Default time.Duration
}

func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Capture: 30 * time.Second,
		Fill:    10 * time.Second,
		Default: 5 * time.Second,
	}
}

func (p TimeoutPolicy) For(kind Kind) time.Duration {
	switch {
	case kind.IsCapture():
		return p.Capture
	case kind == KindFillForm:
		return p.Fill
	default:
		return p.Default
	}
}
