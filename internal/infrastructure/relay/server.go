package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/gorilla/websocket"

	"formbridge/internal/domain/protocol"
)

// Routes mounts the relay's HTTP surface.
func (r *Relay) Routes() http.Handler {
	accessLog := httplog.NewLogger("formbridge-relay", httplog.Options{
		JSON:    true,
		Concise: true,
	})

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(httplog.RequestLogger(accessLog))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", r.handleHealth)
	mux.Get("/port", r.handlePort)
	mux.Post("/extensions/{extensionID}/messages", r.handleExternal)
	return mux
}

func (r *Relay) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  protocol.Version,
		"sessions": r.sessions.count(),
		"captures": r.history.Len(),
	})
}

// handleExternal is the one-shot path: one request, one response, no
// session state.
func (r *Relay) handleExternal(w http.ResponseWriter, req *http.Request) {
	if chi.URLParam(req, "extensionID") != r.cfg.ExtensionID {
		writeJSON(w, http.StatusNotFound, protocol.Response{Error: protocol.ErrExtensionNotFound.Error()})
		return
	}

	var msg protocol.Request
	body := http.MaxBytesReader(w, req.Body, r.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Response{Error: fmt.Sprintf("decode message: %v", err)})
		return
	}

	if msg.Kind == protocol.KindCapturePage {
		writeJSON(w, http.StatusOK, protocol.Failure(msg, "%s needs a port; send %s instead", protocol.KindCapturePage, protocol.KindCaptureForm))
		return
	}

	writeJSON(w, http.StatusOK, r.Dispatch(req.Context(), msg))
}

// handlePort upgrades to the caller's persistent port. Requests on the port
// are answered asynchronously and correlated by id.
func (r *Relay) handlePort(w http.ResponseWriter, req *http.Request) {
	caller := req.URL.Query().Get("caller")
	if caller == "" {
		http.Error(w, "caller is required", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     r.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("Port upgrade failed", "caller", caller, "error", err)
		return
	}
	conn.SetReadLimit(r.cfg.MaxBodyBytes)

	sess, superseded := r.sessions.open(caller, conn)
	log := r.logger.WithFields(map[string]any{"caller": caller, "session": sess.ID})
	if superseded != nil {
		log.Info("Port superseded", "previous", superseded.ID)
	}
	log.Info("Port connected")

	ctx, cancel := context.WithCancel(context.WithoutCancel(req.Context()))
	defer func() {
		cancel()
		r.sessions.close(sess)
		log.Info("Port disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && sess.State() == StateConnected {
				log.Warn("Port read failed", "error", err)
			}
			return
		}

		var msg protocol.Request
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = sess.send(protocol.Response{Error: fmt.Sprintf("decode message: %v", err)})
			continue
		}

		go func(msg protocol.Request) {
			resp := r.Dispatch(ctx, msg)
			if err := sess.send(resp); err != nil && !errors.Is(err, errSessionClosed) {
				log.Warn("Port reply failed", "id", msg.ID, "kind", msg.Kind, "error", err)
			}
		}(msg)
	}
}

// checkOrigin accepts non-browser clients, loopback pages and configured
// origins.
func (r *Relay) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range r.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server runs the relay routes until its context ends.
type Server struct {
	relay *Relay
	http  *http.Server
}

func NewServer(addr string, relay *Relay) *Server {
	return &Server{
		relay: relay,
		http: &http.Server{
			Addr:              addr,
			Handler:           relay.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Serve listens on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay server: %w", err)
	case <-ctx.Done():
	}

	s.relay.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}
