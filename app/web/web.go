// Package web holds the HTML page handlers. Every page renders through the
// two-stage template renderer; user-submitted rich text passes through the
// sanitizer before it is ever marked as a trusted fragment.
package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/neoblog/neoblog/app/auth"
	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/sanitize"
	"github.com/neoblog/neoblog/app/store"
)

type Handlers struct {
	render        *render.Renderer
	auth          *auth.Service
	users         *store.UserStore
	posts         *store.PostStore
	comments      *store.CommentStore
	interactions  *store.InteractionStore
	subscriptions *store.SubscriptionStore
	messages      *store.MessageStore
	privacy       *store.PrivacyStore
}

func New(
	renderer *render.Renderer,
	authService *auth.Service,
	users *store.UserStore,
	posts *store.PostStore,
	comments *store.CommentStore,
	interactions *store.InteractionStore,
	subscriptions *store.SubscriptionStore,
	messages *store.MessageStore,
	privacy *store.PrivacyStore,
) *Handlers {
	return &Handlers{
		render:        renderer,
		auth:          authService,
		users:         users,
		posts:         posts,
		comments:      comments,
		interactions:  interactions,
		subscriptions: subscriptions,
		messages:      messages,
		privacy:       privacy,
	}
}

var navItems = []struct {
	key   string
	label string
	href  string
}{
	{"home", "Home", "/"},
	{"profile", "Profile", "/profile"},
	{"new_post", "Write", "/posts/new"},
	{"subscriptions", "Subscriptions", "/subscriptions"},
	{"messages", "Messages", "/messages"},
}

func navbarLinks(active string) render.HTML {
	var b strings.Builder
	for _, item := range navItems {
		class := "nav-link"
		if item.key == active {
			class = "nav-link nav-link-active"
		}
		fmt.Fprintf(&b, `<li class="nav-item"><a class="%s" href="%s">%s</a></li>`,
			class, item.href, render.Escape(item.label))
	}
	return render.HTML(b.String())
}

func headerActions(user *store.User) render.HTML {
	if user == nil {
		return render.HTML(
			`<a class="btn btn-outline" href="/login">Log in</a>` +
				`<a class="btn btn-primary" href="/register">Sign up</a>`)
	}
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	return render.HTML(fmt.Sprintf(
		`<span class="navbar-user">%s</span>`+
			`<a class="btn btn-outline" href="/posts/new">Write</a>`+
			`<a class="btn btn-primary" href="/logout">Log out</a>`,
		render.Escape(name)))
}

// layoutContext fills the layout-reserved keys for one page render.
func (h *Handlers) layoutContext(active string, user *store.User) render.Context {
	return render.Context{
		"navbar_links":   navbarLinks(active),
		"header_actions": headerActions(user),
		"current_year":   time.Now().UTC().Year(),
		"body_class":     "",
	}
}

func mergeContext(base, extra render.Context) render.Context {
	for key, value := range extra {
		base[key] = value
	}
	return base
}

// excerpt strips markup and truncates for feed cards. The result is a plain
// string, escaped by the renderer on substitution.
func excerpt(content string) string {
	plain := sanitize.StripTags(content)
	runes := []rune(plain)
	if len(runes) <= 120 {
		return plain
	}
	return string(runes[:120]) + "..."
}

func alertBlock(kind, message string) render.HTML {
	if message == "" {
		return render.HTML("")
	}
	return render.HTML(fmt.Sprintf(`<div class="alert alert-%s" role="alert">%s</div>`,
		kind, render.Escape(message)))
}

// accessCookieName is the per-post unlock cookie set after a successful
// password check.
func accessCookieName(postID string) string {
	return "post_access_" + postID
}

// hasPasswordAccess checks the unlock cookie against the post's stored
// digest, so a forged cookie value grants nothing.
func hasPasswordAccess(req *request.Request, post *store.Post) bool {
	if post.PasswordHash == "" {
		return false
	}
	return req.Cookie(accessCookieName(post.ID)) == post.PasswordHash
}

// visiblePosts filters a feed down to what the viewer may read.
func visiblePosts(posts []*store.Post, viewer *store.User, req *request.Request) []*store.Post {
	var visible []*store.Post
	for _, post := range posts {
		if post.CanView(viewer, hasPasswordAccess(req, post)) {
			visible = append(visible, post)
		}
	}
	return visible
}

func (h *Handlers) postCards(posts []*store.Post) render.HTML {
	if len(posts) == 0 {
		return render.HTML(`<p class="empty">No posts yet.</p>`)
	}
	var b strings.Builder
	for _, post := range posts {
		likes, _ := h.interactions.CountLikes(post.ID)
		favorites, _ := h.interactions.CountFavorites(post.ID)
		commentCount, _ := h.comments.Count(post.ID)
		fmt.Fprintf(&b,
			`<article class="post-card">`+
				`<h2><a href="/posts/%s">%s</a></h2>`+
				`<p class="post-meta">%s · %s · %s</p>`+
				`<p class="post-excerpt">%s</p>`+
				`<p class="post-stats">%d likes · %d favorites · %d comments</p>`+
				`</article>`,
			post.ID, render.Escape(post.Title),
			render.Escape(post.AuthorName), render.Escape(post.Category), formatTimestamp(post.CreatedAt),
			render.Escape(excerpt(post.Content)),
			likes, favorites, commentCount)
	}
	return render.HTML(b.String())
}

// formatTimestamp normalizes stored RFC 3339 timestamps for display; raw
// values that fail to parse show as-is.
func formatTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return strings.ReplaceAll(raw, "T", " ")
	}
	return parsed.Format("2006-01-02 15:04:05")
}
