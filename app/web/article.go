package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/sanitize"
	"github.com/neoblog/neoblog/app/store"
)

func (h *Handlers) ShowCreatePost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	return h.renderNewPost(user, "", "")
}

func (h *Handlers) CreatePost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	form := req.FormData()
	title := strings.TrimSpace(form["title"])
	content := sanitize.RichText(form["content"])
	if title == "" || strings.TrimSpace(sanitize.StripTags(content)) == "" {
		return h.renderNewPost(user, "Title and content are required.", form["category"])
	}

	summary := strings.TrimSpace(form["summary"])
	if summary == "" {
		summary = excerpt(content)
	}
	permission := form["permission_type"]
	switch permission {
	case store.PermissionPublic, store.PermissionVIP, store.PermissionPassword, store.PermissionPrivate:
	default:
		permission = store.PermissionPublic
	}
	password := form["password"]
	if permission == store.PermissionPassword && password == "" {
		return h.renderNewPost(user, "Password-protected posts need a password.", form["category"])
	}

	var tags []string
	for _, tag := range strings.Split(form["tags"], ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	post := &store.Post{
		AuthorID:      user.ID,
		Title:         title,
		Content:       content,
		Summary:       summary,
		Category:      strings.TrimSpace(form["category"]),
		Tags:          tags,
		Permission:    permission,
		PasswordHint:  strings.TrimSpace(form["password_hint"]),
		AllowComments: form["allow_comments"] != "0" && form["allow_comments"] != "off",
		IsEncrypted:   permission == store.PermissionPassword,
	}
	id, err := h.posts.Create(post, password)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if err := h.subscriptions.NotifyAuthorSubscribers(user.Username, title); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/posts/" + id)
}

func (h *Handlers) ViewPost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if post == nil {
		return response.NotFound()
	}

	if !post.CanView(user, hasPasswordAccess(req, post)) {
		if post.Permission == store.PermissionPassword {
			return h.renderUnlock(user, post, "")
		}
		if user == nil {
			return response.Redirect("/login")
		}
		return response.Forbidden()
	}

	comments, err := h.comments.Threaded(post.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	likes, _ := h.interactions.CountLikes(post.ID)
	favorites, _ := h.interactions.CountFavorites(post.ID)

	pageCtx := render.Context{
		"page_title":         post.Title,
		"page_description":   excerpt(post.Content),
		"title":              post.Title,
		"author_name":        post.AuthorName,
		"category":           post.Category,
		"created_at":         formatTimestamp(post.CreatedAt),
		"like_count":         likes,
		"favorite_count":     favorites,
		"post_content_html":  render.HTML(sanitize.RichText(post.Content)),
		"post_actions_html":  h.postActions(post, user),
		"comment_list_html":  commentList(comments, 0),
		"comment_form_html":  commentForm(post, user),
		"post_feedback_html": alertBlock("success", req.QueryParams()["message"]),
	}
	return h.render.Render("post.html", mergeContext(pageCtx, h.layoutContext("home", user)))
}

func (h *Handlers) AddComment(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if post == nil {
		return response.NotFound()
	}
	if !post.AllowComments {
		return response.Forbidden()
	}
	form := req.FormData()
	content := strings.TrimSpace(form["content"])
	if content == "" {
		return response.Redirect("/posts/" + post.ID)
	}
	if _, err := h.comments.Add(post.ID, user.ID, form["parent_id"], content, form["emoji"]); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/posts/" + post.ID)
}

func (h *Handlers) UnlockPost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if post == nil {
		return response.NotFound()
	}
	ok, err := h.posts.VerifyPassword(post.ID, req.FormData()["password"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if !ok {
		return h.renderUnlock(user, post, "Wrong password.")
	}
	resp := response.Redirect("/posts/" + post.ID)
	resp.SetCookie(accessCookieName(post.ID), post.PasswordHash, "/", -1)
	return resp
}

func (h *Handlers) ToggleFavorite(ctx context.Context, req *request.Request) *response.Response {
	return h.toggleInteraction(req, h.interactions.ToggleFavorite)
}

func (h *Handlers) ToggleLike(ctx context.Context, req *request.Request) *response.Response {
	return h.toggleInteraction(req, h.interactions.ToggleLike)
}

func (h *Handlers) toggleInteraction(req *request.Request, toggle func(int64, string) (bool, error)) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if post == nil {
		return response.NotFound()
	}
	if _, err := toggle(user.ID, post.ID); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/posts/" + post.ID)
}

func (h *Handlers) DeletePost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if post == nil {
		return response.NotFound()
	}
	if !post.IsAuthor(user) {
		return response.Forbidden()
	}
	if err := h.comments.DeleteByPost(post.ID); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if err := h.interactions.DeleteForPost(post.ID); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	if err := h.posts.Delete(post.ID); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/")
}

func (h *Handlers) renderNewPost(user *store.User, message, selectedCategory string) *response.Response {
	categories, err := h.posts.Categories()
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	pageCtx := render.Context{
		"page_title":              "Write a post",
		"page_description":        "Publish something new.",
		"message_block":           alertBlock("warning", message),
		"category_options_html":   categoryOptions(categories, selectedCategory),
		"permission_options_html": permissionOptions(store.PermissionPublic),
		"allow_comments_checked":  render.HTML("checked"),
	}
	return h.render.Render("new_post.html", mergeContext(pageCtx, h.layoutContext("new_post", user)))
}

func (h *Handlers) renderUnlock(user *store.User, post *store.Post, message string) *response.Response {
	pageCtx := render.Context{
		"page_title":       "Protected post",
		"page_description": "This post needs a password.",
		"title":            post.Title,
		"post_id":          post.ID,
		"password_hint":    post.PasswordHint,
		"message_block":    alertBlock("danger", message),
	}
	return h.render.Render("unlock.html", mergeContext(pageCtx, h.layoutContext("home", user)))
}

// postActions renders the toggle buttons, labelled for the viewer's current
// state so a second click reads as the undo it is.
func (h *Handlers) postActions(post *store.Post, user *store.User) render.HTML {
	var b strings.Builder
	if user != nil {
		likeLabel := "Like"
		if liked, _ := h.interactions.HasLiked(user.ID, post.ID); liked {
			likeLabel = "Unlike"
		}
		favoriteLabel := "Favorite"
		if favorited, _ := h.interactions.HasFavorited(user.ID, post.ID); favorited {
			favoriteLabel = "Unfavorite"
		}
		fmt.Fprintf(&b,
			`<form method="post" action="/posts/%s/like" class="inline"><button type="submit">%s</button></form>`+
				`<form method="post" action="/posts/%s/favorite" class="inline"><button type="submit">%s</button></form>`,
			post.ID, likeLabel, post.ID, favoriteLabel)
	}
	if post.IsAuthor(user) {
		fmt.Fprintf(&b,
			`<form method="post" action="/posts/%s/delete" class="inline"><button type="submit" class="btn-danger">Delete</button></form>`,
			post.ID)
	}
	return render.HTML(b.String())
}

func commentForm(post *store.Post, user *store.User) render.HTML {
	if !post.AllowComments {
		return render.HTML(`<p class="empty">Comments are closed on this post.</p>`)
	}
	if user == nil {
		return render.HTML(`<p class="empty"><a href="/login">Log in</a> to comment.</p>`)
	}
	return render.HTML(fmt.Sprintf(
		`<form method="post" action="/posts/%s/comment" class="comment-form">`+
			`<textarea name="content" rows="3" required></textarea>`+
			`<input type="hidden" name="parent_id" value="">`+
			`<button type="submit">Comment</button>`+
			`</form>`, post.ID))
}

func commentList(comments []*store.Comment, depth int) render.HTML {
	if len(comments) == 0 && depth == 0 {
		return render.HTML(`<p class="empty">No comments yet.</p>`)
	}
	var b strings.Builder
	for _, comment := range comments {
		fmt.Fprintf(&b,
			`<div class="comment comment-depth-%d">`+
				`<p class="comment-meta">%s · %s</p>`+
				`<p class="comment-body">%s %s</p>%s</div>`,
			depth,
			render.Escape(comment.AuthorName), formatTimestamp(comment.CreatedAt),
			render.Escape(comment.Content), render.Escape(comment.Emoji),
			commentList(comment.Replies, depth+1))
	}
	return render.HTML(b.String())
}

func categoryOptions(categories []string, selected string) render.HTML {
	var b strings.Builder
	b.WriteString(`<option value="">Uncategorized</option>`)
	for _, category := range categories {
		attr := ""
		if category == selected {
			attr = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
			render.Escape(category), attr, render.Escape(category))
	}
	return render.HTML(b.String())
}

func permissionOptions(selected string) render.HTML {
	options := []struct {
		value string
		label string
	}{
		{store.PermissionPublic, "Public"},
		{store.PermissionVIP, "VIP only"},
		{store.PermissionPassword, "Password protected"},
		{store.PermissionPrivate, "Private"},
	}
	var b strings.Builder
	for _, option := range options {
		attr := ""
		if option.value == selected {
			attr = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, option.value, attr, option.label)
	}
	return render.HTML(b.String())
}
