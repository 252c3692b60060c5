package web

import (
	"context"

	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
)

func (h *Handlers) Homepage(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	posts, err := h.posts.List(50)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	pageCtx := render.Context{
		"page_title":       "NeoBlog",
		"page_description": "Latest posts from the community.",
		"posts_html":       h.postCards(visiblePosts(posts, user, req)),
	}
	return h.render.Render("index.html", mergeContext(pageCtx, h.layoutContext("home", user)))
}
