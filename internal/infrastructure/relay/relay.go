// Package relay is the background context: it owns the capture history,
// talks to the active tab and serves the ports and one-shot messages
// callers use to reach it.
package relay

import (
	"context"
	"errors"
	"strings"
	"sync"

	"formbridge/internal/application/port/input"
	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/history"
	"formbridge/internal/domain/protocol"
)

const (
	errInternalPage = "Cannot capture browser internal pages. Please navigate to a regular web page."
	errNoActiveTab  = "No active tab found"
)

var errSessionClosed = errors.New("session closed")

var internalSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"about:",
	"devtools://",
	"view-source:",
	"moz-extension://",
}

// IsInternalPage reports whether url is a browser page no script may run in.
func IsInternalPage(url string) bool {
	u := strings.ToLower(strings.TrimSpace(url))
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}

type Config struct {
	ExtensionID    string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func DefaultConfig() Config {
	return Config{
		ExtensionID:  "formbridge",
		MaxBodyBytes: 1 << 20,
	}
}

type Relay struct {
	cfg      Config
	browser  output.BrowserPort
	script   input.ContentScript
	history  *history.Ring[entity.FormSchema]
	logger   output.LoggerPort
	sessions *sessions

	// one DOM pass at a time
	pageMu sync.Mutex
}

func New(
	cfg Config,
	browser output.BrowserPort,
	script input.ContentScript,
	ring *history.Ring[entity.FormSchema],
	logger output.LoggerPort,
) *Relay {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return &Relay{
		cfg:      cfg,
		browser:  browser,
		script:   script,
		history:  ring,
		logger:   logger,
		sessions: newSessions(),
	}
}

// Session returns the current session of caller, if any.
func (r *Relay) Session(caller string) (SessionInfo, bool) {
	s, ok := r.sessions.get(caller)
	if !ok {
		return SessionInfo{}, false
	}
	return s.Info(), true
}

// Close disconnects every port.
func (r *Relay) Close() {
	r.sessions.closeAll()
}

// Dispatch answers one request. It is the internal entry point and the one
// every transport ends up in; it never returns an error, only failure
// responses.
func (r *Relay) Dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Kind {
	case protocol.KindPing:
		resp := protocol.Reply(req)
		resp.Version = protocol.Version
		return resp

	case protocol.KindCapturePage, protocol.KindCaptureForm:
		return r.capture(ctx, req)

	case protocol.KindFillForm:
		return r.fill(ctx, req)

	case protocol.KindGetLastCapture:
		resp := protocol.Reply(req)
		if e, ok := r.history.Current(); ok {
			schema := e.Value
			resp.Schema = &schema
		}
		return resp

	case protocol.KindClearLastCapture:
		r.history.ClearCurrent()
		return protocol.Reply(req)

	case protocol.KindListCaptures:
		resp := protocol.Reply(req)
		resp.Captures = r.captures()
		return resp

	case protocol.KindSelectCapture:
		var p protocol.IndexPayload
		if err := req.Decode(&p); err != nil {
			return protocol.Failure(req, "%v", err)
		}
		e, err := r.history.Select(p.Index)
		if err != nil {
			return protocol.Failure(req, "%v", err)
		}
		resp := protocol.Reply(req)
		resp.Schema = &e.Value
		return resp

	case protocol.KindRemoveCapture:
		var p protocol.IndexPayload
		if err := req.Decode(&p); err != nil {
			return protocol.Failure(req, "%v", err)
		}
		if err := r.history.Remove(p.Index); err != nil {
			return protocol.Failure(req, "%v", err)
		}
		resp := protocol.Reply(req)
		resp.Captures = r.captures()
		return resp
	}

	return protocol.Failure(req, "%v: %q", protocol.ErrUnknownKind, req.Kind)
}

func (r *Relay) captures() []entity.CaptureHistoryEntry {
	list := r.history.List()
	out := make([]entity.CaptureHistoryEntry, 0, len(list))
	for _, e := range list {
		out = append(out, entity.CaptureHistoryEntry{Seq: e.Seq, Schema: e.Value})
	}
	return out
}

// tab returns the active tab when a script can run in it, or the failure
// to send back.
func (r *Relay) tab(ctx context.Context, req protocol.Request) (output.TabPort, *protocol.Response) {
	tab, err := r.browser.ActiveTab(ctx)
	if err != nil {
		if !errors.Is(err, output.ErrNoActiveTab) {
			r.logger.Warn("Active tab lookup failed", "kind", req.Kind, "error", err)
		}
		resp := protocol.Failure(req, errNoActiveTab)
		return nil, &resp
	}

	url, err := tab.URL(ctx)
	if err != nil {
		resp := protocol.Failure(req, "Cannot read the active tab: %v", err)
		return nil, &resp
	}
	if IsInternalPage(url) {
		resp := protocol.Failure(req, errInternalPage)
		return nil, &resp
	}
	return tab, nil
}

func (r *Relay) capture(ctx context.Context, req protocol.Request) protocol.Response {
	r.pageMu.Lock()
	defer r.pageMu.Unlock()

	tab, failure := r.tab(ctx, req)
	if failure != nil {
		return *failure
	}

	schema, err := r.script.Capture(ctx, tab)
	if err != nil {
		r.logger.Error("Capture failed", "kind", req.Kind, "error", err)
		return protocol.Failure(req, "Capture failed: %v", err)
	}

	e := r.history.Push(*schema)
	r.logger.Info("Capture stored", "seq", e.Seq, "fields", len(schema.Fields))

	resp := protocol.Reply(req)
	resp.Schema = schema
	return resp
}

func (r *Relay) fill(ctx context.Context, req protocol.Request) protocol.Response {
	var p protocol.FillPayload
	if err := req.Decode(&p); err != nil {
		return protocol.Failure(req, "%v", err)
	}

	r.pageMu.Lock()
	defer r.pageMu.Unlock()

	tab, failure := r.tab(ctx, req)
	if failure != nil {
		return *failure
	}

	tally, err := r.script.Fill(ctx, tab, p.FieldMappings)
	if err != nil {
		r.logger.Error("Fill failed", "error", err)
		return protocol.Failure(req, "Fill failed: %v", err)
	}

	r.logger.Info("Fill relayed", "fields", len(p.FieldMappings), "filled", len(tally.Filled), "failed", len(tally.Errors))

	resp := protocol.Reply(req)
	resp.Results = tally.Results()
	return resp
}
