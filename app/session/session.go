package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/neoblog/neoblog/app/request"
)

// CookieName is the session cookie carried by logged-in clients.
const CookieName = "session_id"

// Manager holds process-lifetime sessions, token → username. Sessions do not
// survive a restart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]string
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]string)}
}

// Create mints a token for the user and records the session.
func (m *Manager) Create(username string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	m.mu.Lock()
	m.sessions[token] = username
	m.mu.Unlock()
	return token
}

// Lookup resolves a token to its username.
func (m *Manager) Lookup(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	username, ok := m.sessions[token]
	return username, ok
}

// Destroy forgets a session. Unknown tokens are a no-op.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// CurrentUser resolves the session cookie on a request to a username.
func (m *Manager) CurrentUser(req *request.Request) (string, bool) {
	token := req.Cookie(CookieName)
	if token == "" {
		return "", false
	}
	return m.Lookup(token)
}
