package response

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersSerializeInInsertionOrder(t *testing.T) {
	r := New(200, "OK")
	r.SetHeader("X-First", "1")
	r.SetHeader("X-Second", "2")
	r.SetHeader("X-Third", "3")
	// Replacing keeps the original position.
	r.SetHeader("X-First", "one")

	wire := string(r.Bytes())
	first := strings.Index(wire, "X-First: one")
	second := strings.Index(wire, "X-Second: 2")
	third := strings.Index(wire, "X-Third: 3")

	require.True(t, first >= 0 && second >= 0 && third >= 0, "all headers present:\n%s", wire)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestBytesForcesContentLength(t *testing.T) {
	r := New(200, "OK")
	r.Body = []byte("hello")
	r.SetHeader("Content-Length", "9999")

	wire := string(r.Bytes())
	assert.Contains(t, wire, "Content-Length: 5\r\n")
	assert.NotContains(t, wire, "9999")
	assert.True(t, strings.HasSuffix(wire, "\r\n\r\nhello"))
}

func TestStatusLine(t *testing.T) {
	r := New(404, "Not Found")
	assert.True(t, strings.HasPrefix(string(r.Bytes()), "HTTP/1.1 404 Not Found\r\n"))
}

func TestSetCookieFolding(t *testing.T) {
	r := New(200, "OK")
	r.SetCookie("session_id", "abc", "/", -1)
	r.SetCookie("theme", "dark", "/", 3600)

	value := r.Header("Set-Cookie")
	assert.Equal(t,
		"session_id=abc; Path=/; HttpOnly\r\nSet-Cookie: theme=dark; Path=/; HttpOnly; Max-Age=3600",
		value)

	// On the wire the folded value reads back as two separate header lines.
	wire := string(r.Bytes())
	assert.Contains(t, wire, "Set-Cookie: session_id=abc; Path=/; HttpOnly\r\n")
	assert.Contains(t, wire, "Set-Cookie: theme=dark; Path=/; HttpOnly; Max-Age=3600\r\n")
}

func TestSetCookieMaxAgeZeroExpires(t *testing.T) {
	r := New(302, "Found")
	r.SetCookie("session_id", "", "/", 0)
	assert.Equal(t, "session_id=; Path=/; HttpOnly; Max-Age=0", r.Header("Set-Cookie"))
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name        string
		resp        *Response
		wantStatus  int
		wantType    string
		wantInBody  string
	}{
		{"text", Text(200, "OK", "hi"), 200, "text/plain; charset=utf-8", "hi"},
		{"html", HTML(200, "OK", []byte("<p>x</p>")), 200, "text/html; charset=utf-8", "<p>x</p>"},
		{"json", JSON(201, "Created", map[string]any{"ok": true}), 201, "application/json; charset=utf-8", `"ok":true`},
		{"not found", NotFound(), 404, "text/plain; charset=utf-8", "404 Not Found"},
		{"forbidden", Forbidden(), 403, "text/plain; charset=utf-8", "403 Forbidden"},
		{"server error", ServerError("boom"), 500, "text/plain; charset=utf-8", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.resp.Status)
			assert.Equal(t, tt.wantType, tt.resp.Header("Content-Type"))
			assert.Equal(t, "close", tt.resp.Header("Connection"))
			assert.Contains(t, string(tt.resp.Body), tt.wantInBody)
		})
	}
}

func TestRedirect(t *testing.T) {
	r := Redirect("/login")
	assert.Equal(t, 302, r.Status)
	assert.Equal(t, "/login", r.Header("Location"))
	assert.Empty(t, r.Body)
}
