package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoblog/neoblog/app/request"
)

func TestCreateAndLookup(t *testing.T) {
	m := NewManager()

	token := m.Create("alice")
	require.NotEmpty(t, token)

	username, ok := m.Lookup(token)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	other := m.Create("alice")
	assert.NotEqual(t, token, other, "each login mints a distinct token")
}

func TestDestroy(t *testing.T) {
	m := NewManager()
	token := m.Create("bob")

	m.Destroy(token)
	_, ok := m.Lookup(token)
	assert.False(t, ok)

	// Destroying again is a no-op.
	m.Destroy(token)
}

func TestCurrentUser(t *testing.T) {
	m := NewManager()
	token := m.Create("carol")

	tests := []struct {
		name     string
		cookie   string
		wantUser string
		wantOK   bool
	}{
		{"valid session cookie", CookieName + "=" + token, "carol", true},
		{"unknown token", CookieName + "=deadbeef", "", false},
		{"no cookie header", "", "", false},
		{"other cookies only", "theme=dark", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "GET / HTTP/1.1\r\n"
			if tt.cookie != "" {
				raw += "Cookie: " + tt.cookie + "\r\n"
			}
			raw += "\r\n"
			username, ok := m.CurrentUser(request.Parse([]byte(raw)))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUser, username)
		})
	}
}
