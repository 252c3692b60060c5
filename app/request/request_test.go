package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLine(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantMethod  string
		wantPath    string
		wantQuery   string
		wantVersion string
	}{
		{
			name:        "full request line",
			raw:         "GET /posts/abc?x=1 HTTP/1.1\r\nHost: example.com\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/posts/abc",
			wantQuery:   "x=1",
			wantVersion: "HTTP/1.1",
		},
		{
			name:        "two tokens keeps default version",
			raw:         "GET /\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
		},
		{
			name:        "one token keeps default path",
			raw:         "GET\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
		},
		{
			name:        "empty input yields usable defaults",
			raw:         "",
			wantMethod:  "",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Parse([]byte(tt.raw))
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, tt.wantQuery, req.Query)
			assert.Equal(t, tt.wantVersion, req.Version)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	req := Parse([]byte("GET / HTTP/1.1\r\nHost: one\r\nHOST: two\r\nBroken line\r\nX-Thing:  padded \r\n\r\n"))

	// Names lowercase, last value wins, colonless lines skipped.
	assert.Equal(t, "two", req.Header("host"))
	assert.Equal(t, "two", req.Header("Host"))
	assert.Equal(t, "padded", req.Header("X-Thing"))
	assert.Equal(t, "", req.Header("Broken line"))
}

func TestQueryParams(t *testing.T) {
	req := Parse([]byte("GET /search?q=hello+world&q=second&empty=&flag HTTP/1.1\r\n\r\n"))
	params := req.QueryParams()

	assert.Equal(t, "hello world", params["q"])
	assert.Equal(t, "", params["empty"])
	assert.Equal(t, "", params["flag"])
}

func TestCookies(t *testing.T) {
	req := Parse([]byte("GET / HTTP/1.1\r\nCookie: session_id=abc123; theme = dark ; junk\r\n\r\n"))

	assert.Equal(t, "abc123", req.Cookie("session_id"))
	assert.Equal(t, "dark", req.Cookie("theme"))
	assert.Equal(t, "", req.Cookie("junk"))
	assert.Equal(t, "", req.Cookie("missing"))
}

func TestFormDataURLEncoded(t *testing.T) {
	raw := "POST /login HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\n" +
		"username=bob&password=p%40ss&blank=&username=ignored"
	req := Parse([]byte(raw))
	form := req.FormData()

	assert.Equal(t, "bob", form["username"])
	assert.Equal(t, "p@ss", form["password"])
	assert.Equal(t, "", form["blank"])
}

func TestFormDataWrongContentType(t *testing.T) {
	req := Parse([]byte("POST / HTTP/1.1\r\nContent-Type: text/plain\r\n\r\na=b"))
	assert.Empty(t, req.FormData())
	assert.Empty(t, req.Files())
}

func TestMultipartFormData(t *testing.T) {
	body := "--BOUND\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n" +
		"\r\n" +
		"My Post\r\n" +
		"--BOUND\r\n" +
		"Content-Disposition: form-data; name=\"upload\"; filename=\"a.png\"\r\n" +
		"Content-Type: image/png\r\n" +
		"\r\n" +
		"PNGDATA\r\n" +
		"--BOUND\r\n" +
		"Content-Disposition: form-data; name=\"notafile\"; filename=\"\"\r\n" +
		"\r\n" +
		"plain value\r\n" +
		"--BOUND--\r\n"
	raw := "POST /posts/new HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=BOUND\r\n\r\n" + body
	req := Parse([]byte(raw))

	form := req.FormData()
	files := req.Files()

	assert.Equal(t, "My Post", form["title"])
	// Empty filename means the field was submitted without a file.
	assert.Equal(t, "plain value", form["notafile"])

	upload, ok := files["upload"]
	require.True(t, ok)
	assert.Equal(t, "a.png", upload.Filename)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, []byte("PNGDATA"), upload.Content)
}

func TestMultipartMissingPartContentType(t *testing.T) {
	body := "--B\r\n" +
		"Content-Disposition: form-data; name=\"f\"; filename=\"x.bin\"\r\n" +
		"\r\n" +
		"DATA\r\n" +
		"--B--\r\n"
	raw := "POST / HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=B\r\n\r\n" + body
	req := Parse([]byte(raw))

	upload, ok := req.Files()["f"]
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", upload.ContentType)
}

func TestJSONBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
	}{
		{
			name:        "valid object",
			contentType: "application/json",
			body:        `{"title":"hi","count":2}`,
			want:        map[string]any{"title": "hi", "count": float64(2)},
		},
		{
			name:        "charset parameter still counts",
			contentType: "application/json; charset=utf-8",
			body:        `{"a":true}`,
			want:        map[string]any{"a": true},
		},
		{
			name:        "empty body decodes to empty object",
			contentType: "application/json",
			body:        "",
			want:        map[string]any{},
		},
		{
			name:        "invalid json is treated as absent",
			contentType: "application/json",
			body:        `{"broken`,
			want:        nil,
		},
		{
			name:        "non-json content type is absent",
			contentType: "text/plain",
			body:        `{"a":1}`,
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "POST / HTTP/1.1\r\nContent-Type: " + tt.contentType + "\r\n\r\n" + tt.body
			req := Parse([]byte(raw))
			assert.Equal(t, tt.want, req.JSON())
		})
	}
}

func TestViewsAreMemoized(t *testing.T) {
	req := Parse([]byte("GET /?a=1 HTTP/1.1\r\nCookie: k=v\r\n\r\n"))

	// Mutating a returned view is visible on later calls, proof the view is
	// computed once and shared.
	req.QueryParams()["probe"] = "1"
	assert.Equal(t, "1", req.QueryParams()["probe"])

	req.Cookies()["injected"] = "yes"
	assert.Equal(t, "yes", req.Cookie("injected"))
}
