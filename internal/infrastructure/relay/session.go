package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnected    SessionState = "connected"
)

// Session is one caller's persistent port.
type Session struct {
	ID          string
	Caller      string
	ConnectedAt time.Time

	mu      sync.Mutex
	state   SessionState
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newSession(caller string, conn *websocket.Conn) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Caller:      caller,
		ConnectedAt: time.Now().UTC(),
		state:       StateConnected,
		conn:        conn,
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// send writes one message. Writers are serialised; the reader runs alone.
func (s *Session) send(v any) error {
	if s.State() != StateConnected {
		return errSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// disconnect moves the session to disconnected and closes the port. It
// reports whether this call made the transition.
func (s *Session) disconnect() bool {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return false
	}
	s.state = StateDisconnected
	s.mu.Unlock()

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	_ = s.conn.Close()
	return true
}

// SessionInfo is a read-only view of a session.
type SessionInfo struct {
	ID          string       `json:"id"`
	Caller      string       `json:"caller"`
	State       SessionState `json:"state"`
	ConnectedAt time.Time    `json:"connectedAt"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{ID: s.ID, Caller: s.Caller, State: s.State(), ConnectedAt: s.ConnectedAt}
}

// sessions holds at most one connected session per caller. A newer port
// from the same caller supersedes the older one.
type sessions struct {
	mu       sync.Mutex
	byCaller map[string]*Session
}

func newSessions() *sessions {
	return &sessions{byCaller: make(map[string]*Session)}
}

func (m *sessions) open(caller string, conn *websocket.Conn) (sess, superseded *Session) {
	sess = newSession(caller, conn)

	m.mu.Lock()
	superseded = m.byCaller[caller]
	m.byCaller[caller] = sess
	m.mu.Unlock()

	if superseded != nil {
		superseded.disconnect()
	}
	return sess, superseded
}

func (m *sessions) close(sess *Session) bool {
	m.mu.Lock()
	if m.byCaller[sess.Caller] == sess {
		delete(m.byCaller, sess.Caller)
	}
	m.mu.Unlock()
	return sess.disconnect()
}

func (m *sessions) get(caller string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byCaller[caller]
	return s, ok
}

func (m *sessions) closeAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.byCaller))
	for _, s := range m.byCaller {
		all = append(all, s)
	}
	m.byCaller = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.disconnect()
	}
}

func (m *sessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byCaller)
}
