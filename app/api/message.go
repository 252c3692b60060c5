package api

import (
	"context"
	"strings"
	"time"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

// formatMessageTime renders stored RFC 3339 timestamps as a plain
// "YYYY-MM-DD HH:MM:SS"; unparseable values pass through with the T removed.
func formatMessageTime(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return strings.ReplaceAll(value, "T", " ")
	}
	return parsed.Format("2006-01-02 15:04:05")
}

func messagePayload(m *store.Message) map[string]any {
	return map[string]any{
		"id":            m.ID,
		"sender_id":     m.SenderID,
		"receiver_id":   m.ReceiverID,
		"sender_name":   m.SenderName,
		"receiver_name": m.ReceiverName,
		"content":       m.Content,
		"is_read":       m.IsRead,
		"created_at":    formatMessageTime(m.CreatedAt),
	}
}

func messagePayloads(messages []*store.Message) []map[string]any {
	payload := []map[string]any{}
	for _, m := range messages {
		payload = append(payload, messagePayload(m))
	}
	return payload
}

func (h *Handlers) SendMessage(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	data := jsonObject(req)
	targetName := strings.TrimSpace(stringField(data, "target"))
	content := strings.TrimSpace(stringField(data, "content"))
	if targetName == "" || content == "" {
		return unprocessable("recipient and content are required")
	}
	target, err := h.users.ByUsername(targetName)
	if err != nil {
		return serverError(err)
	}
	if target == nil {
		return notFound("recipient")
	}
	id, err := h.messages.Send(user.ID, target.ID, content)
	if err != nil {
		return serverError(err)
	}
	return created(map[string]any{"message_id": id})
}

// ListMessages summarizes the caller's conversations, one entry per
// counterpart, most recent first.
func (h *Handlers) ListMessages(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	conversations, err := h.messages.Conversations(user.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{"messages": messagePayloads(conversations)})
}

func (h *Handlers) Inbox(ctx context.Context, req *request.Request) *response.Response {
	return h.mailboxList(req, h.messages.Inbox)
}

func (h *Handlers) Sent(ctx context.Context, req *request.Request) *response.Response {
	return h.mailboxList(req, h.messages.Sent)
}

func (h *Handlers) Trash(ctx context.Context, req *request.Request) *response.Response {
	return h.mailboxList(req, h.messages.Trash)
}

func (h *Handlers) mailboxList(req *request.Request, list func(int64) ([]*store.Message, error)) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	messages, err := list(user.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{"messages": messagePayloads(messages)})
}

// GetMessage resolves the path segment first as a message id, then as a
// username whose conversation with the caller is returned. Message ids are
// random hex and never collide with usernames in practice.
func (h *Handlers) GetMessage(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	key := req.Params["message_id"]
	message, err := h.messages.ByID(key, user.ID)
	if err != nil {
		return serverError(err)
	}
	if message != nil {
		if message.ReceiverID == user.ID {
			if err := h.messages.MarkRead(message.ID); err != nil {
				return serverError(err)
			}
		}
		return ok(map[string]any{"message": messagePayload(message)})
	}

	target, err := h.users.ByUsername(key)
	if err != nil {
		return serverError(err)
	}
	if target == nil {
		return notFound("message")
	}
	conversation, err := h.messages.Conversation(user.ID, target.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{
		"conversation":    messagePayloads(conversation),
		"current_user_id": user.ID,
	})
}

func (h *Handlers) DeleteMessage(ctx context.Context, req *request.Request) *response.Response {
	return h.changeMessageState(req, h.messages.Delete)
}

func (h *Handlers) RestoreMessage(ctx context.Context, req *request.Request) *response.Response {
	return h.changeMessageState(req, h.messages.Restore)
}

func (h *Handlers) PermanentlyDeleteMessage(ctx context.Context, req *request.Request) *response.Response {
	return h.changeMessageState(req, h.messages.PermanentlyDelete)
}

func (h *Handlers) changeMessageState(req *request.Request, change func(string, int64) (bool, error)) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	changed, err := change(req.Params["message_id"], user.ID)
	if err != nil {
		return serverError(err)
	}
	if !changed {
		return notFound("message")
	}
	return ok(map[string]any{})
}
