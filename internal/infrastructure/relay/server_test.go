package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbridge/internal/domain/protocol"
)

func post(t *testing.T, url string, req protocol.Request) (*http.Response, protocol.Response) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var out protocol.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res, out
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, 3)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, protocol.Version, body["version"])
}

func TestServer_ExternalMessages(t *testing.T) {
	f := newFixture(t, 3)
	f.browser.open(t, "https://example.nl/", formHTML)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	res, out := post(t, srv.URL+"/extensions/unknown/messages", request(t, protocol.KindPing, nil))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, protocol.ErrExtensionNotFound.Error(), out.Error)

	ping := request(t, protocol.KindPing, nil)
	res, out = post(t, srv.URL+"/extensions/ext-test/messages", ping)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, out.Success)
	assert.Equal(t, ping.ID, out.ID)
	assert.Equal(t, protocol.Version, out.Version)

	_, out = post(t, srv.URL+"/extensions/ext-test/messages", request(t, protocol.KindCaptureForm, nil))
	require.True(t, out.Success, out.Error)
	require.NotNil(t, out.Schema)
	assert.Len(t, out.Schema.Fields, 2)

	_, out = post(t, srv.URL+"/extensions/ext-test/messages", request(t, protocol.KindCapturePage, nil))
	assert.False(t, out.Success)
	assert.EqualValues(t, 1, f.script.captures.Load())
}

func TestServer_ExternalRejectsGarbage(t *testing.T) {
	f := newFixture(t, 3)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/extensions/ext-test/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func dialPort(t *testing.T, srv *httptest.Server, caller string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/port?caller=" + caller
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_PortRoundTrip(t *testing.T) {
	f := newFixture(t, 3)
	f.browser.open(t, "https://example.nl/", formHTML)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	conn := dialPort(t, srv, "webapp")

	require.Eventually(t, func() bool {
		info, ok := f.relay.Session("webapp")
		return ok && info.State == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	capture := request(t, protocol.KindCapturePage, nil)
	fill := request(t, protocol.KindFillForm, protocol.FillPayload{FieldMappings: map[string]string{"email": "a@b.nl"}})
	require.NoError(t, conn.WriteJSON(capture))
	require.NoError(t, conn.WriteJSON(fill))

	got := map[string]protocol.Response{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for len(got) < 2 {
		var resp protocol.Response
		require.NoError(t, conn.ReadJSON(&resp))
		got[resp.ID] = resp
	}

	require.True(t, got[capture.ID].Success)
	assert.Equal(t, protocol.KindCapturePage, got[capture.ID].Kind)
	require.True(t, got[fill.ID].Success)
	assert.Equal(t, "filled", string(got[fill.ID].Results[0].Status))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, ok := f.relay.Session("webapp")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_PortSupersededBySameCaller(t *testing.T) {
	f := newFixture(t, 3)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	first := dialPort(t, srv, "webapp")
	require.Eventually(t, func() bool {
		_, ok := f.relay.Session("webapp")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	firstInfo, _ := f.relay.Session("webapp")

	dialPort(t, srv, "webapp")
	require.Eventually(t, func() bool {
		info, ok := f.relay.Session("webapp")
		return ok && info.ID != firstInfo.ID
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
}

func TestServer_PortRequiresCaller(t *testing.T) {
	f := newFixture(t, 3)
	srv := httptest.NewServer(f.relay.Routes())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/port")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestServer_CheckOrigin(t *testing.T) {
	f := newFixture(t, 3)
	f.relay.cfg.AllowedOrigins = []string{"https://app.formbridge.nl"}

	for origin, want := range map[string]bool{
		"":                          true,
		"http://localhost:5173":     true,
		"http://127.0.0.1":          true,
		"https://app.formbridge.nl": true,
		"https://evil.example":      false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/port", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, f.relay.checkOrigin(req), origin)
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	f := newFixture(t, 3)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(ln.Addr().String(), f.relay).Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
