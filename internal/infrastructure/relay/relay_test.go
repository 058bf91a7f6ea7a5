package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/history"
	"formbridge/internal/domain/protocol"
	"formbridge/internal/infrastructure/dom/htmldoc"
	"formbridge/internal/infrastructure/logger"
	"formbridge/internal/usecase/matcher"
	"formbridge/internal/usecase/page"
	"formbridge/internal/usecase/page/filler"
	"formbridge/internal/usecase/page/scanner"
)

const formHTML = `<!DOCTYPE html>
<html><head><title>Aanvraag</title></head>
<body>
	<form>
		<label for="voornaam">Voornaam</label>
		<input id="voornaam" name="voornaam" />
		<input id="email" type="email" />
	</form>
</body></html>`

type fakeBrowser struct {
	mu  sync.Mutex
	tab output.TabPort
}

func (b *fakeBrowser) ActiveTab(ctx context.Context) (output.TabPort, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tab == nil {
		return nil, output.ErrNoActiveTab
	}
	return b.tab, nil
}

func (b *fakeBrowser) Close() {}

func (b *fakeBrowser) open(t *testing.T, url, html string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.Parse(url, html)
	require.NoError(t, err)
	b.mu.Lock()
	b.tab = doc
	b.mu.Unlock()
	return doc
}

// spyScript counts how often the page context is entered.
type spyScript struct {
	*page.ContentScript
	captures atomic.Int32
	fills    atomic.Int32
}

func (s *spyScript) Capture(ctx context.Context, tab output.TabPort) (*entity.FormSchema, error) {
	s.captures.Add(1)
	return s.ContentScript.Capture(ctx, tab)
}

func (s *spyScript) Fill(ctx context.Context, tab output.TabPort, values map[string]string) (entity.FillTally, error) {
	s.fills.Add(1)
	return s.ContentScript.Fill(ctx, tab, values)
}

type fixture struct {
	relay   *Relay
	browser *fakeBrowser
	script  *spyScript
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	lib, err := matcher.NewLibrary("test", nil)
	require.NoError(t, err)
	script := &spyScript{ContentScript: page.New(
		scanner.New(scanner.DefaultConfig()),
		lib,
		filler.New(filler.DefaultConfig(), log),
		log,
	)}

	browser := &fakeBrowser{}
	cfg := DefaultConfig()
	cfg.ExtensionID = "ext-test"
	r := New(cfg, browser, script, history.NewRing[entity.FormSchema](capacity), log)
	t.Cleanup(r.Close)

	return &fixture{relay: r, browser: browser, script: script, logs: logs}
}

func request(t *testing.T, kind protocol.Kind, payload any) protocol.Request {
	t.Helper()
	req, err := protocol.NewRequest(kind, payload)
	require.NoError(t, err)
	return req
}

func TestDispatch_Ping(t *testing.T) {
	f := newFixture(t, 3)
	req := request(t, protocol.KindPing, nil)

	resp := f.relay.Dispatch(context.Background(), req)
	assert.True(t, resp.Success)
	assert.Equal(t, req.ID, resp.ID)
	assert.Equal(t, protocol.Version, resp.Version)
}

func TestDispatch_InternalPageNeverScanned(t *testing.T) {
	for _, url := range []string{"chrome://settings", "about:blank", "chrome-extension://abc/popup.html", "EDGE://flags", "view-source:https://x.nl"} {
		t.Run(url, func(t *testing.T) {
			f := newFixture(t, 3)
			f.browser.open(t, url, formHTML)

			resp := f.relay.Dispatch(context.Background(), request(t, protocol.KindCapturePage, nil))
			assert.False(t, resp.Success)
			assert.Equal(t, "Cannot capture browser internal pages. Please navigate to a regular web page.", resp.Error)
			assert.Zero(t, f.script.captures.Load())
			assert.Zero(t, f.relay.history.Len())
		})
	}
}

func TestDispatch_NoActiveTab(t *testing.T) {
	f := newFixture(t, 3)

	resp := f.relay.Dispatch(context.Background(), request(t, protocol.KindCaptureForm, nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "No active tab found", resp.Error)

	resp = f.relay.Dispatch(context.Background(), request(t, protocol.KindFillForm, protocol.FillPayload{FieldMappings: map[string]string{"a": "b"}}))
	assert.False(t, resp.Success)
	assert.Zero(t, f.script.fills.Load())
}

func TestDispatch_HistoryKeepsLastN(t *testing.T) {
	const capacity = 3
	f := newFixture(t, capacity)
	ctx := context.Background()

	for i := 0; i <= capacity; i++ {
		f.browser.open(t, fmt.Sprintf("https://example.nl/page/%d", i), formHTML)
		resp := f.relay.Dispatch(ctx, request(t, protocol.KindCapturePage, nil))
		require.True(t, resp.Success, resp.Error)
	}

	resp := f.relay.Dispatch(ctx, request(t, protocol.KindListCaptures, nil))
	require.True(t, resp.Success)
	require.Len(t, resp.Captures, capacity)
	for _, c := range resp.Captures {
		assert.NotEqual(t, "https://example.nl/page/0", c.Schema.URL)
	}
	assert.Equal(t, "https://example.nl/page/3", resp.Captures[0].Schema.URL)

	last := f.relay.Dispatch(ctx, request(t, protocol.KindGetLastCapture, nil))
	require.NotNil(t, last.Schema)
	assert.Equal(t, "https://example.nl/page/3", last.Schema.URL)
}

func TestDispatch_HistoryAccessors(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		f.browser.open(t, fmt.Sprintf("https://example.nl/%d", i), formHTML)
		require.True(t, f.relay.Dispatch(ctx, request(t, protocol.KindCaptureForm, nil)).Success)
	}

	sel := f.relay.Dispatch(ctx, request(t, protocol.KindSelectCapture, protocol.IndexPayload{Index: 1}))
	require.True(t, sel.Success, sel.Error)
	assert.Equal(t, "https://example.nl/0", sel.Schema.URL)

	last := f.relay.Dispatch(ctx, request(t, protocol.KindGetLastCapture, nil))
	assert.Equal(t, "https://example.nl/0", last.Schema.URL)

	require.True(t, f.relay.Dispatch(ctx, request(t, protocol.KindClearLastCapture, nil)).Success)
	last = f.relay.Dispatch(ctx, request(t, protocol.KindGetLastCapture, nil))
	assert.True(t, last.Success)
	assert.Nil(t, last.Schema)

	rm := f.relay.Dispatch(ctx, request(t, protocol.KindRemoveCapture, protocol.IndexPayload{Index: 0}))
	require.True(t, rm.Success)
	require.Len(t, rm.Captures, 1)
	assert.Equal(t, "https://example.nl/0", rm.Captures[0].Schema.URL)

	bad := f.relay.Dispatch(ctx, request(t, protocol.KindSelectCapture, protocol.IndexPayload{Index: 9}))
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, history.ErrIndexOutOfRange.Error())

	missing := f.relay.Dispatch(ctx, request(t, protocol.KindRemoveCapture, nil))
	assert.False(t, missing.Success)
}

func TestDispatch_FillNeverLogsValues(t *testing.T) {
	f := newFixture(t, 3)
	doc := f.browser.open(t, "https://example.nl/", formHTML)

	resp := f.relay.Dispatch(context.Background(), request(t, protocol.KindFillForm, protocol.FillPayload{
		FieldMappings: map[string]string{"voornaam": "Geheimvoornaam", "nope": "Geheimwaarde"},
	}))
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, []entity.FillResult{
		{Field: "nope", Status: entity.FillStatusNotFound},
		{Field: "voornaam", Status: entity.FillStatusFilled},
	}, resp.Results)

	v, _ := doc.Value("voornaam")
	assert.Equal(t, "Geheimvoornaam", v)

	require.NotZero(t, f.logs.Len())
	for _, e := range f.logs.All() {
		line := e.Message + fmt.Sprint(e.ContextMap())
		assert.NotContains(t, line, "Geheim")
	}
}

func TestDispatch_UnknownKind(t *testing.T) {
	f := newFixture(t, 3)
	resp := f.relay.Dispatch(context.Background(), protocol.Request{ID: "1", Kind: "SCREENSHOT"})
	assert.False(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Error, protocol.ErrUnknownKind.Error()))
	assert.Equal(t, "1", resp.ID)
}

func TestIsInternalPage(t *testing.T) {
	assert.True(t, IsInternalPage("chrome://settings"))
	assert.True(t, IsInternalPage("  moz-extension://x"))
	assert.True(t, IsInternalPage("devtools://devtools/bundled"))
	assert.False(t, IsInternalPage("https://ind.nl/chrome://"))
	assert.False(t, IsInternalPage("http://localhost:8080"))
}
