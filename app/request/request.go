package request

import (
	"bytes"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

var crlfcrlf = []byte("\r\n\r\n")

// FileUpload is one file field decoded from a multipart form body.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Request is one parsed HTTP/1.1 message. It is read-only after Parse; the
// derived views (query parameters, cookies, form fields, files, JSON body)
// are computed on first access and memoized.
type Request struct {
	Method  string
	Path    string
	Query   string
	Version string
	Headers map[string]string
	Body    []byte
	Params  map[string]string

	queryOnce   sync.Once
	queryParams map[string]string
	cookieOnce  sync.Once
	cookies     map[string]string
	formOnce    sync.Once
	formData    map[string]string
	files       map[string]FileUpload
	jsonOnce    sync.Once
	jsonBody    any
}

// Parse builds a Request from one complete buffered HTTP message. Malformed
// input degrades instead of failing: a short request line fills in defaults,
// header lines without a colon are skipped, a missing header/body separator
// means an empty body. The connection loop must never die on adversarial
// bytes, so there is no error return.
func Parse(raw []byte) *Request {
	req := &Request{
		Version: "HTTP/1.1",
		Headers: make(map[string]string),
		Params:  make(map[string]string),
	}

	headerBytes := raw
	if idx := bytes.Index(raw, crlfcrlf); idx >= 0 {
		headerBytes = raw[:idx]
		req.Body = raw[idx+len(crlfcrlf):]
	}

	lines := strings.Split(string(headerBytes), "\r\n")
	target := "/"
	parts := strings.Fields(lines[0])
	switch {
	case len(parts) >= 3:
		req.Method, target, req.Version = parts[0], parts[1], parts[2]
	case len(parts) == 2:
		req.Method, target = parts[0], parts[1]
	case len(parts) == 1:
		req.Method = parts[0]
	}

	if path, query, ok := strings.Cut(target, "?"); ok {
		req.Path, req.Query = path, query
	} else {
		req.Path = target
	}
	if req.Path == "" {
		req.Path = "/"
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return req
}

// Header returns the named header, case-insensitively, or "" when absent.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// QueryParams decodes the query string. Repeated keys keep their first value;
// blank values are preserved as empty strings.
func (r *Request) QueryParams() map[string]string {
	r.queryOnce.Do(func() {
		r.queryParams = parseURLEncoded(r.Query)
	})
	return r.queryParams
}

// Cookies splits the Cookie header on ";" and each pair on its first "=",
// trimming whitespace around both name and value.
func (r *Request) Cookies() map[string]string {
	r.cookieOnce.Do(func() {
		r.cookies = make(map[string]string)
		header := r.Header("Cookie")
		if header == "" {
			return
		}
		for _, part := range strings.Split(header, ";") {
			name, value, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			r.cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	})
	return r.cookies
}

// Cookie returns one cookie value or "" when absent.
func (r *Request) Cookie(name string) string {
	return r.Cookies()[name]
}

// FormData returns the decoded form fields. Only urlencoded and multipart
// bodies populate it; any other content type yields an empty map.
func (r *Request) FormData() map[string]string {
	r.parseForm()
	return r.formData
}

// Files returns the uploaded files from a multipart body, keyed by field name.
func (r *Request) Files() map[string]FileUpload {
	r.parseForm()
	return r.files
}

// JSON returns the decoded request body when the Content-Type names
// application/json, or nil otherwise. Invalid UTF-8 or invalid JSON is
// treated as "no JSON body" rather than an error; callers validate the shape
// of the result themselves.
func (r *Request) JSON() any {
	r.jsonOnce.Do(func() {
		contentType := strings.ToLower(r.Header("Content-Type"))
		if !strings.Contains(contentType, "application/json") {
			return
		}
		if !utf8.Valid(r.Body) {
			return
		}
		if len(bytes.TrimSpace(r.Body)) == 0 {
			r.jsonBody = map[string]any{}
			return
		}
		var decoded any
		if err := json.Unmarshal(r.Body, &decoded); err != nil {
			return
		}
		r.jsonBody = decoded
	})
	return r.jsonBody
}

func (r *Request) parseForm() {
	r.formOnce.Do(func() {
		r.formData = make(map[string]string)
		r.files = make(map[string]FileUpload)
		contentType := r.Header("Content-Type")
		switch {
		case strings.Contains(contentType, "application/x-www-form-urlencoded"):
			r.formData = parseURLEncoded(replaceInvalidUTF8(r.Body))
		case strings.Contains(contentType, "multipart/form-data"):
			r.parseMultipart(contentType)
		}
	})
}

func (r *Request) parseMultipart(contentType string) {
	boundary := multipartBoundary(contentType)
	if boundary == "" {
		return
	}
	delimiter := []byte("--" + boundary)
	for _, segment := range bytes.Split(r.Body, delimiter) {
		if len(segment) == 0 || isBoundaryResidue(segment) {
			continue
		}
		segment = bytes.TrimPrefix(segment, []byte("\r\n"))
		segment = bytes.TrimSuffix(segment, []byte("\r\n"))
		headerPart, content, ok := bytes.Cut(segment, crlfcrlf)
		if !ok {
			continue
		}

		var disposition, partType string
		for _, line := range strings.Split(string(headerPart), "\r\n") {
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, "content-disposition") {
				disposition = line
			} else if strings.HasPrefix(lower, "content-type") {
				partType = line
			}
		}
		if disposition == "" {
			continue
		}
		name, filename, hasFilename := dispositionFields(disposition)
		if name == "" {
			continue
		}

		// A part carrying a filename is a file upload; an empty filename
		// means the client submitted no file and the part is a text field.
		if hasFilename && filename != "" {
			fileType := "application/octet-stream"
			if _, value, ok := strings.Cut(partType, ":"); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					fileType = trimmed
				}
			}
			r.files[name] = FileUpload{Filename: filename, ContentType: fileType, Content: content}
		} else {
			r.formData[name] = replaceInvalidUTF8(content)
		}
	}
}

func isBoundaryResidue(segment []byte) bool {
	switch string(segment) {
	case "--\r\n", "--", "\r\n--", "--\r\n--":
		return true
	}
	return false
}

func multipartBoundary(contentType string) string {
	for _, param := range strings.Split(contentType, ";") {
		param = strings.TrimSpace(param)
		if value, ok := strings.CutPrefix(param, "boundary="); ok {
			value = strings.TrimSpace(value)
			if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2 {
				value = value[1 : len(value)-1]
			}
			return value
		}
	}
	return ""
}

func dispositionFields(header string) (name, filename string, hasFilename bool) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, "name="); ok {
			name = strings.Trim(value, `"`)
		} else if value, ok := strings.CutPrefix(part, "filename="); ok {
			filename = strings.Trim(value, `"`)
			hasFilename = true
		}
	}
	return name, filename, hasFilename
}

// parseURLEncoded decodes a urlencoded key/value string. The first value for
// a repeated key wins; blank values are preserved as empty strings.
func parseURLEncoded(s string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key := decodeComponent(rawKey)
		if key == "" {
			continue
		}
		if _, seen := params[key]; seen {
			continue
		}
		params[key] = decodeComponent(rawValue)
	}
	return params
}

// decodeComponent percent-decodes one form component, treating "+" as space.
// Undecodable escapes fall back to the literal text instead of failing.
func decodeComponent(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return decoded
}

func replaceInvalidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
