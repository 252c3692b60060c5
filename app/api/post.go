package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/store"
)

func created(payload map[string]any) *response.Response {
	payload["success"] = true
	return response.JSON(201, "Created", payload)
}

func unprocessable(message string) *response.Response {
	return fail(422, "Unprocessable Entity", message)
}

// hasUnlockCookie reports whether the unlock cookie for a password-protected
// post matches its stored digest.
func hasUnlockCookie(req *request.Request, post *store.Post) bool {
	if post.Permission != store.PermissionPassword {
		return false
	}
	return post.PasswordHash != "" && req.Cookie("post_access_"+post.ID) == post.PasswordHash
}

func safeInt(value string, fallback, minimum, maximum int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || value == "" {
		parsed = fallback
	}
	if parsed < minimum {
		parsed = minimum
	}
	if maximum > 0 && parsed > maximum {
		parsed = maximum
	}
	return parsed
}

// ListPosts returns post summaries the caller may see, newest first.
func (h *Handlers) ListPosts(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	query := req.QueryParams()
	limit := safeInt(query["limit"], 50, 1, 200)

	posts, err := h.posts.List(limit)
	if err != nil {
		return serverError(err)
	}
	summaries := []map[string]any{}
	for _, post := range posts {
		if !matchesFilters(post, query) {
			continue
		}
		if !post.CanView(user, hasUnlockCookie(req, post)) {
			continue
		}
		summaries = append(summaries, postSummary(post))
	}
	return ok(map[string]any{"posts": summaries})
}

func matchesFilters(post *store.Post, query map[string]string) bool {
	if category := query["category"]; category != "" && post.Category != category {
		return false
	}
	if author := query["author"]; author != "" && post.AuthorName != author {
		return false
	}
	if permission := query["permission_type"]; permission != "" && post.Permission != permission {
		return false
	}
	if keyword := query["keyword"]; keyword != "" {
		haystack := strings.ToLower(post.Title + " " + post.Summary)
		if !strings.Contains(haystack, strings.ToLower(keyword)) {
			return false
		}
	}
	return true
}

func (h *Handlers) GetPost(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return serverError(err)
	}
	if post == nil {
		return notFound("post")
	}
	if !post.CanView(user, hasUnlockCookie(req, post)) {
		return fail(403, "Forbidden", "you cannot view this post")
	}
	detail := postSummary(post)
	detail["content"] = post.Content
	if user != nil {
		liked, err := h.interactions.HasLiked(user.ID, post.ID)
		if err != nil {
			return serverError(err)
		}
		favorited, err := h.interactions.HasFavorited(user.ID, post.ID)
		if err != nil {
			return serverError(err)
		}
		detail["liked"] = liked
		detail["favorited"] = favorited
	}
	return ok(map[string]any{"post": detail})
}

func (h *Handlers) CreatePost(ctx context.Context, req *request.Request) *response.Response {
	user, denied := h.requireUser(req)
	if denied != nil {
		return denied
	}
	data := jsonObject(req)
	title := strings.TrimSpace(stringField(data, "title"))
	content := strings.TrimSpace(stringField(data, "content"))
	if title == "" || content == "" {
		return unprocessable("title and content are required")
	}

	summary := strings.TrimSpace(stringField(data, "summary"))
	if summary == "" {
		runes := []rune(content)
		if len(runes) > 160 {
			runes = runes[:160]
		}
		summary = strings.TrimSpace(string(runes))
	}
	permission := strings.TrimSpace(stringField(data, "permission_type"))
	if permission == "" {
		permission = store.PermissionPublic
	}
	password := strings.TrimSpace(stringField(data, "password"))
	hint := strings.TrimSpace(stringField(data, "password_hint"))
	if permission == store.PermissionPassword && password == "" {
		return unprocessable("password-protected posts need a password")
	}
	if permission != store.PermissionPassword {
		password = ""
		hint = ""
	}

	var tags []string
	if raw, isList := data["tags"].([]any); isList {
		for _, item := range raw {
			if tag, isString := item.(string); isString && tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	post := &store.Post{
		AuthorID:      user.ID,
		Title:         title,
		Content:       content,
		Summary:       summary,
		Category:      strings.TrimSpace(stringField(data, "category")),
		Tags:          tags,
		CoverImage:    strings.TrimSpace(stringField(data, "cover_image")),
		Permission:    permission,
		PasswordHint:  hint,
		AllowComments: boolField(data, "allow_comments", true),
		IsEncrypted:   boolField(data, "is_encrypted", false),
	}
	id, err := h.posts.Create(post, password)
	if err != nil {
		return serverError(err)
	}
	if err := h.subscriptions.NotifyAuthorSubscribers(user.Username, title); err != nil {
		return serverError(err)
	}
	return created(map[string]any{"post_id": id})
}

func (h *Handlers) UpdatePermissions(ctx context.Context, req *request.Request) *response.Response {
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
	if !post.IsAuthor(user) {
		return fail(403, "Forbidden", "only the author can change permissions")
	}
	data := jsonObject(req)
	permission := strings.TrimSpace(stringField(data, "permission_type"))
	if permission == "" {
		permission = post.Permission
	}
	password := strings.TrimSpace(stringField(data, "password"))
	hint := strings.TrimSpace(stringField(data, "password_hint"))
	if permission == store.PermissionPassword && password == "" && post.PasswordHash == "" {
		return unprocessable("password-protected posts need a password")
	}
	if permission != store.PermissionPassword {
		password = ""
		hint = ""
	}
	allowComments := boolField(data, "allow_comments", post.AllowComments)
	if err := h.posts.SetPermissions(post.ID, permission, hint, password, allowComments); err != nil {
		return serverError(err)
	}
	return ok(map[string]any{})
}

// UnlockPost verifies a password attempt and, on success, grants the unlock
// cookie used by subsequent requests.
func (h *Handlers) UnlockPost(ctx context.Context, req *request.Request) *response.Response {
	post, err := h.posts.ByID(req.Params["post_id"])
	if err != nil {
		return serverError(err)
	}
	if post == nil {
		return notFound("post")
	}
	password := stringField(jsonObject(req), "password")
	verified, err := h.posts.VerifyPassword(post.ID, password)
	if err != nil {
		return serverError(err)
	}
	if !verified {
		return fail(403, "Forbidden", "wrong password")
	}
	resp := ok(map[string]any{})
	resp.SetCookie("post_access_"+post.ID, post.PasswordHash, "/", -1)
	return resp
}

func (h *Handlers) ToggleLike(ctx context.Context, req *request.Request) *response.Response {
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
	liked, err := h.interactions.ToggleLike(user.ID, post.ID)
	if err != nil {
		return serverError(err)
	}
	count, err := h.interactions.CountLikes(post.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{"liked": liked, "like_count": count})
}

func (h *Handlers) ToggleFavorite(ctx context.Context, req *request.Request) *response.Response {
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
	favorited, err := h.interactions.ToggleFavorite(user.ID, post.ID)
	if err != nil {
		return serverError(err)
	}
	count, err := h.interactions.CountFavorites(post.ID)
	if err != nil {
		return serverError(err)
	}
	return ok(map[string]any{"favorited": favorited, "favorite_count": count})
}

func postSummary(post *store.Post) map[string]any {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":          post.ID,
		"title":       post.Title,
		"summary":     post.Summary,
		"category":    post.Category,
		"tags":        tags,
		"cover_image": post.CoverImage,
		"created_at":  post.CreatedAt,
		"updated_at":  post.UpdatedAt,
		"author": map[string]any{
			"display_name": post.AuthorName,
		},
		"security": map[string]any{
			"permission_type":    post.Permission,
			"allow_comments":     post.AllowComments,
			"is_encrypted":       post.IsEncrypted,
			"password_protected": post.PasswordHash != "",
			"password_hint":      post.PasswordHint,
		},
	}
}
