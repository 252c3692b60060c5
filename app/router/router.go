package router

import "github.com/neoblog/neoblog/app/types"

// Router maps (method, path) pairs onto registered handlers. Registration
// order is the priority order: the first route whose method and segments
// match wins, so literal paths must be registered before parameter paths
// that could shadow them.
type Router interface {
	Add(template string, method types.Method, handler types.Handler)

	Resolve(path, method string) (types.Handler, map[string]string, bool)
}

func New() Router {
	return newTable()
}
