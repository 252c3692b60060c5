package api

import (
	"context"
	"strings"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

// ListComments returns the post's comment tree, replies nested under their
// parents.
func (h *Handlers) ListComments(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return serverError(err)
	}
	if post == nil {
		return notFound("post")
	}
	if !post.CanView(user, hasUnlockCookie(req, post)) {
		return fail(403, "Forbidden", "you cannot view this post's comments")
	}
	comments, err := h.comments.Threaded(post.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{"comments": commentTree(comments)})
}

func (h *Handlers) CreateComment(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return serverError(err)
	}
	if post == nil {
		return notFound("post")
	}
	if !post.CanView(user, hasUnlockCookie(req, post)) {
		return fail(403, "Forbidden", "you cannot comment on this post")
	}
	if !post.AllowComments {
		return fail(403, "Forbidden", "comments are closed on this post")
	}
	data := jsonObject(req)
	content := strings.TrimSpace(stringField(data, "content"))
	if content == "" {
		return unprocessable("comment content is required")
	}
	id, err := h.comments.Add(post.ID, user.ID, stringField(data, "parent_id"), content, strings.TrimSpace(stringField(data, "emoji")))
	if err != nil {
		return serverError(err)
	}
	return created(map[string]any{"comment_id": id})
}

func commentTree(comments []*store.Comment) []map[string]any {
	tree := []map[string]any{}
	for _, comment := range comments {
		tree = append(tree, map[string]any{
			"id":          comment.ID,
			"author_name": comment.AuthorName,
			"parent_id":   comment.ParentID,
			"content":     comment.Content,
			"emoji":       comment.Emoji,
			"created_at":  comment.CreatedAt,
			"replies":     commentTree(comment.Replies),
		})
	}
	return tree
}
