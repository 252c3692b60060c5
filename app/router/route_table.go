package router

import (
	"strings"

	"github.com/neoblog/neoblog/app/types"
)

type route struct {
	method   string
	segments []string
	handler  types.Handler
}

type table struct {
	routes []route
}

func newTable() *table {
	return &table{}
}

func (t *table) Add(template string, method types.Method, handler types.Handler) {
	t.routes = append(t.routes, route{
		method:   strings.ToUpper(string(method)),
		segments: splitPath(template),
		handler:  handler,
	})
}

func (t *table) Resolve(path, method string) (types.Handler, map[string]string, bool) {
	requested := splitPath(path)
	method = strings.ToUpper(method)
	for _, rt := range t.routes {
		if rt.method != method {
			continue
		}
		if params, ok := matchSegments(rt.segments, requested); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

// splitPath breaks a path into its "/"-delimited segments. The root path
// yields no segments; empty segments from doubled slashes are dropped.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	var segments []string
	for _, segment := range strings.Split(trimmed, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// matchSegments compares left to right. A template segment wrapped in angle
// brackets always matches and binds its name; anything else must match the
// request segment exactly. Segment counts must be equal; there are no
// wildcards and no trailing-slash normalization.
func matchSegments(template, requested []string) (map[string]string, bool) {
	if len(template) != len(requested) {
		return nil, false
	}
	params := make(map[string]string)
	for i, segment := range template {
		if strings.HasPrefix(segment, "<") && strings.HasSuffix(segment, ">") {
			params[segment[1:len(segment)-1]] = requested[i]
			continue
		}
		if segment != requested[i] {
			return nil, false
		}
	}
	return params, true
}
