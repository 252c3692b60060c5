package api

import (
	"context"
	"strings"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

func (h *Handlers) ListSubscriptions(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	subs, err := h.subscriptions.List(user.ID)
	if err != nil {
		return serverError(err)
	}
	payload := []map[string]any{}
	for _, sub := range subs {
		payload = append(payload, map[string]any{
			"id":         sub.ID,
			"type":       sub.Type,
			"value":      sub.Value,
			"created_at": sub.CreatedAt,
		})
	}
	return ok(map[string]any{"subscriptions": payload})
}

func (h *Handlers) CreateSubscription(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	data := jsonObject(req)
	subType := strings.TrimSpace(stringField(data, "type"))
	value := strings.TrimSpace(stringField(data, "value"))
	if (subType != store.SubscribeAuthor && subType != store.SubscribeCategory) || value == "" {
		return unprocessable("subscription type or value is invalid")
	}
	if err := h.subscriptions.Add(user.ID, subType, value); err != nil {
		return serverError(err)
	}
	return created(map[string]any{})
}

func (h *Handlers) RemoveSubscription(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	id := req.Params["subscription_id"]
	// Only the caller's own rows can be removed.
	subs, err := h.subscriptions.List(user.ID)
	if err != nil {
		return serverError(err)
	}
	for _, sub := range subs {
		if sub.ID == id {
			if err := h.subscriptions.Remove(id); err != nil {
				return serverError(err)
			}
			return ok(map[string]any{})
		}
	}
	return notFound("subscription")
}
