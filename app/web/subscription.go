package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

func (h *Handlers) ShowSubscriptions(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	subs, err := h.subscriptions.List(user.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	feed, err := h.subscriptionFeed(user, subs, req)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}

	pageCtx := render.Context{
		"page_title":              "Subscriptions",
		"page_description":        "Authors and categories you follow.",
		"message_block":           alertBlock("success", req.QueryParams()["message"]),
		"subscription_list_html":  subscriptionList(subs),
		"subscription_posts_html": h.postCards(feed),
	}
	return h.render.Render("subscriptions.html", mergeContext(pageCtx, h.layoutContext("subscriptions", user)))
}

func (h *Handlers) SubscribeAuthor(ctx context.Context, req *request.Request) *response.Response {
	return h.subscribe(req, store.SubscribeAuthor, "author")
}

func (h *Handlers) SubscribeCategory(ctx context.Context, req *request.Request) *response.Response {
	return h.subscribe(req, store.SubscribeCategory, "category")
}

func (h *Handlers) subscribe(req *request.Request, subType, field string) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	value := strings.TrimSpace(req.FormData()[field])
	if value == "" {
		return response.Redirect("/subscriptions")
	}
	if subType == store.SubscribeAuthor && value == user.Username {
		return response.Redirect("/subscriptions?message=You+cannot+subscribe+to+yourself")
	}
	if err := h.subscriptions.Add(user.ID, subType, value); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/subscriptions?message=Subscribed")
}

func (h *Handlers) CancelSubscription(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	id := req.FormData()["subscription_id"]
	if id == "" {
		return response.Redirect("/subscriptions")
	}
	// Only the owner's rows may be removed; look the row up first.
	subs, err := h.subscriptions.List(user.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	for _, sub := range subs {
		if sub.ID == id {
			if err := h.subscriptions.Remove(id); err != nil {
				return response.ServerError("Internal Server Error: " + err.Error())
			}
			break
		}
	}
	return response.Redirect("/subscriptions?message=Subscription+cancelled")
}

// subscriptionFeed gathers recent posts from subscribed authors and
// categories, visibility-filtered for the viewer.
func (h *Handlers) subscriptionFeed(user *store.User, subs []*store.Subscription, req *request.Request) ([]*store.Post, error) {
	authors := make(map[string]bool)
	categories := make(map[string]bool)
	for _, sub := range subs {
		switch sub.Type {
		case store.SubscribeAuthor:
			authors[sub.Value] = true
		case store.SubscribeCategory:
			categories[sub.Value] = true
		}
	}
	if len(authors) == 0 && len(categories) == 0 {
		return nil, nil
	}
	posts, err := h.posts.List(200)
	if err != nil {
		return nil, err
	}
	var matched []*store.Post
	for _, post := range posts {
		author, err := h.users.ByID(post.AuthorID)
		if err != nil {
			return nil, err
		}
		if (author != nil && authors[author.Username]) || categories[post.Category] {
			matched = append(matched, post)
		}
	}
	return visiblePosts(matched, user, req), nil
}

func subscriptionList(subs []*store.Subscription) render.HTML {
	if len(subs) == 0 {
		return render.HTML(`<p class="empty">You are not subscribed to anything yet.</p>`)
	}
	var b strings.Builder
	for _, sub := range subs {
		fmt.Fprintf(&b,
			`<li class="subscription-item">%s: %s`+
				`<form method="post" action="/subscriptions/cancel" class="inline">`+
				`<input type="hidden" name="subscription_id" value="%s">`+
				`<button type="submit">Cancel</button></form></li>`,
			render.Escape(sub.Type), render.Escape(sub.Value), sub.ID)
	}
	return render.HTML("<ul class=\"subscription-list\">" + b.String() + "</ul>")
}
