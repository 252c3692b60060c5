package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

// Mailbox renders the private-message page: contacts, inbox and sent lists,
// plus the send form. Trash management goes through the JSON API.
func (h *Handlers) Mailbox(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	inbox, err := h.messages.Inbox(user.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	sent, err := h.messages.Sent(user.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	contactIDs, err := h.messages.ContactIDs(user.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}

	conversation := render.HTML("")
	if withName := strings.TrimSpace(req.QueryParams()["with"]); withName != "" {
		other, err := h.users.ByUsername(withName)
		if err != nil {
			return response.ServerError("Internal Server Error: " + err.Error())
		}
		if other != nil {
			thread, err := h.messages.Conversation(user.ID, other.ID)
			if err != nil {
				return response.ServerError("Internal Server Error: " + err.Error())
			}
			conversation = conversationPane(other, thread, user.ID)
		}
	}

	pageCtx := render.Context{
		"page_title":        "Messages",
		"page_description":  "Your private conversations.",
		"message_block":     alertBlock("success", req.QueryParams()["message"]),
		"contacts_html":     h.contactList(contactIDs),
		"conversation_html": conversation,
		"inbox_html":        messageList(inbox, "inbox"),
		"sent_html":         messageList(sent, "sent"),
	}
	return h.render.Render("messages.html", mergeContext(pageCtx, h.layoutContext("messages", user)))
}

// SendMessage handles the mailbox form. The JSON endpoint does the same with
// a structured body.
func (h *Handlers) SendMessage(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	form := req.FormData()
	targetName := strings.TrimSpace(form["target"])
	content := strings.TrimSpace(form["content"])
	if targetName == "" || content == "" {
		return response.Redirect("/messages?message=Recipient+and+content+are+required")
	}
	target, err := h.users.ByUsername(targetName)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if target == nil {
		return response.Redirect("/messages?message=No+such+user")
	}
	if _, err := h.messages.Send(user.ID, target.ID, content); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/messages?message=Message+sent")
}

func (h *Handlers) contactList(ids []int64) render.HTML {
	if len(ids) == 0 {
		return render.HTML(`<p class="empty">No conversations yet.</p>`)
	}
	var b strings.Builder
	b.WriteString(`<ul class="contact-list">`)
	for _, id := range ids {
		contact, err := h.users.ByID(id)
		if err != nil || contact == nil {
			continue
		}
		fmt.Fprintf(&b, `<li class="contact-item"><a href="/messages?with=%s">%s (%s)</a></li>`,
			url.QueryEscape(contact.Username),
			render.Escape(contact.DisplayName), render.Escape(contact.Username))
	}
	b.WriteString(`</ul>`)
	return render.HTML(b.String())
}

// conversationPane shows the full thread with one contact, oldest first, with
// the viewer's own messages marked.
func conversationPane(other *store.User, thread []*store.Message, viewerID int64) render.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="mailbox-conversation"><h2>Conversation with %s</h2>`,
		render.Escape(other.DisplayName))
	if len(thread) == 0 {
		b.WriteString(`<p class="empty">No messages yet.</p>`)
	}
	for _, message := range thread {
		class := "message-item message-received"
		if message.SenderID == viewerID {
			class = "message-item message-sent"
		}
		fmt.Fprintf(&b, `<div class="%s"><p class="message-meta">%s · %s</p><p>%s</p></div>`,
			class, render.Escape(message.SenderName), formatTimestamp(message.CreatedAt),
			render.Escape(message.Content))
	}
	b.WriteString(`</div>`)
	return render.HTML(b.String())
}

func messageList(messages []*store.Message, box string) render.HTML {
	if len(messages) == 0 {
		return render.HTML(`<p class="empty">Nothing here.</p>`)
	}
	var b strings.Builder
	for _, message := range messages {
		counterpart := message.SenderName
		if box == "sent" {
			counterpart = message.ReceiverName
		}
		fmt.Fprintf(&b,
			`<div class="message-item"><p class="message-meta">%s · %s</p><p>%s</p></div>`,
			render.Escape(counterpart), formatTimestamp(message.CreatedAt), render.Escape(message.Content))
	}
	return render.HTML(b.String())
}
