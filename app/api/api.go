// Package api holds the JSON endpoints. Responses are envelope-shaped:
// {"success": bool, ...}; expected failures (auth, validation, not found)
// come back as structured errors, never as panics.
package api

import (
	"github.com/neoblog/neoblog/app/auth"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

type Handlers struct {
	auth          *auth.Service
	users         *store.UserStore
	posts         *store.PostStore
	comments      *store.CommentStore
	interactions  *store.InteractionStore
	subscriptions *store.SubscriptionStore
	messages      *store.MessageStore
	metrics       *store.MetricStore
}

func New(
	authService *auth.Service,
	users *store.UserStore,
	posts *store.PostStore,
	comments *store.CommentStore,
	interactions *store.InteractionStore,
	subscriptions *store.SubscriptionStore,
	messages *store.MessageStore,
	metrics *store.MetricStore,
) *Handlers {
	return &Handlers{
		auth:          authService,
		users:         users,
		posts:         posts,
		comments:      comments,
		interactions:  interactions,
		subscriptions: subscriptions,
		messages:      messages,
		metrics:       metrics,
	}
}

func ok(payload map[string]any) *response.Response {
	payload["success"] = true
	return response.JSON(200, "OK", payload)
}

func fail(status int, reason, message string) *response.Response {
	return response.JSON(status, reason, map[string]any{
		"success": false,
		"message": message,
	})
}

func unauthorized() *response.Response {
	return fail(401, "Unauthorized", "login required")
}

func notFound(what string) *response.Response {
	return fail(404, "Not Found", what+" not found")
}

func serverError(err error) *response.Response {
	return fail(500, "Internal Server Error", err.Error())
}

// requireUser resolves the session or returns the 401 to send instead.
func (h *Handlers) requireUser(req *request.Request) (*store.User, *response.Response) {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return nil, unauthorized()
	}
	return user, nil
}

// jsonObject returns the request body as an object; absent or malformed JSON
// yields an empty map so field lookups degrade to zero values.
func jsonObject(req *request.Request) map[string]any {
	if object, ok := req.JSON().(map[string]any); ok {
		return object
	}
	return map[string]any{}
}

func stringField(object map[string]any, key string) string {
	value, _ := object[key].(string)
	return value
}

func boolField(object map[string]any, key string, fallback bool) bool {
	if value, ok := object[key].(bool); ok {
		return value
	}
	return fallback
}
