package response

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Response is one HTTP/1.1 response under construction. Headers serialize in
// insertion order.
type Response struct {
	Status int
	Reason string
	Body   []byte

	headerNames  []string
	headerValues map[string]string
}

func New(status int, reason string) *Response {
	return &Response{
		Status:       status,
		Reason:       reason,
		headerValues: make(map[string]string),
	}
}

// SetHeader sets a header, replacing any previous value while keeping the
// original insertion position.
func (r *Response) SetHeader(name, value string) {
	if _, ok := r.headerValues[name]; !ok {
		r.headerNames = append(r.headerNames, name)
	}
	r.headerValues[name] = value
}

// Header returns the current value for a header, or "" when unset.
func (r *Response) Header(name string) string {
	return r.headerValues[name]
}

// SetCookie appends a Set-Cookie value. Multiple cookies fold into a single
// header value joined by CRLF plus a fresh "Set-Cookie: " prefix, which
// serializes back into separate header lines on the wire. Pass maxAge < 0 to
// omit Max-Age.
func (r *Response) SetCookie(name, value, path string, maxAge int) {
	cookie := fmt.Sprintf("%s=%s; Path=%s; HttpOnly", name, value, path)
	if maxAge >= 0 {
		cookie += fmt.Sprintf("; Max-Age=%d", maxAge)
	}
	if existing := r.Header("Set-Cookie"); existing != "" {
		cookie = existing + "\r\nSet-Cookie: " + cookie
	}
	r.SetHeader("Set-Cookie", cookie)
}

// Bytes serializes the response. Content-Length is forced to match the body
// so the framing invariant cannot drift from what a handler set.
func (r *Response) Bytes() []byte {
	r.SetHeader("Content-Length", strconv.Itoa(len(r.Body)))
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, r.Reason)
	for _, name := range r.headerNames {
		fmt.Fprintf(&b, "%s: %s\r\n", name, r.headerValues[name])
	}
	b.WriteString("\r\n")
	return append([]byte(b.String()), r.Body...)
}

// Text builds a plain-text response.
func Text(status int, reason, body string) *Response {
	r := New(status, reason)
	r.Body = []byte(body)
	r.SetHeader("Content-Type", "text/plain; charset=utf-8")
	r.SetHeader("Content-Length", strconv.Itoa(len(r.Body)))
	r.SetHeader("Connection", "close")
	return r
}

// HTML builds an HTML response.
func HTML(status int, reason string, body []byte) *Response {
	r := New(status, reason)
	r.Body = body
	r.SetHeader("Content-Type", "text/html; charset=utf-8")
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	r.SetHeader("Connection", "close")
	return r
}

// JSON builds a JSON response from any encodable value.
func JSON(status int, reason string, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return ServerError("json encoding failed: " + err.Error())
	}
	r := New(status, reason)
	r.Body = body
	r.SetHeader("Content-Type", "application/json; charset=utf-8")
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	r.SetHeader("Connection", "close")
	return r
}

// Redirect builds a 302 with an empty body.
func Redirect(location string) *Response {
	r := New(302, "Found")
	r.SetHeader("Location", location)
	r.SetHeader("Content-Length", "0")
	r.SetHeader("Connection", "close")
	return r
}

func NotFound() *Response {
	return Text(404, "Not Found", "404 Not Found")
}

func Forbidden() *Response {
	return Text(403, "Forbidden", "403 Forbidden")
}

func ServerError(message string) *Response {
	return Text(500, "Internal Server Error", message)
}
