package server

import (
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/neoblog/neoblog/app/response"
)

// serveStatic resolves a /static/ request under the static root. Escaping the
// root is a 403; a missing file returns nil so the path falls through to
// normal routing.
func (s *Server) serveStatic(relative string) *response.Response {
	root, err := filepath.Abs(s.staticRoot)
	if err != nil {
		return nil
	}
	resolved := filepath.Join(root, filepath.FromSlash(relative))
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return response.Forbidden()
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil
	}

	resp := response.New(200, "OK")
	resp.Body = data
	resp.SetHeader("Content-Type", contentTypeFor(resolved))
	resp.SetHeader("Content-Length", strconv.Itoa(len(data)))
	resp.SetHeader("Connection", "close")
	return resp
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".ico":
		return "image/x-icon"
	case ".svg":
		return "image/svg+xml"
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
