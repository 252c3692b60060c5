package render

import (
	"fmt"
	stdhtml "html"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/neoblog/neoblog/app/response"
)

// HTML marks a context value as pre-rendered trusted markup, inserted into
// templates verbatim. Plain strings are escaped at substitution time, so a
// handler cannot smuggle unescaped user input into a page by accident.
type HTML string

// Context maps placeholder names to values. Values may be HTML fragments,
// strings, or anything stringifiable; nil renders as the empty string.
type Context map[string]any

// layoutKeys belong to the outer layout and are removed from the context
// before the inner content template renders.
var layoutKeys = []string{
	"_layout",
	"navbar_links",
	"header_actions",
	"extra_css_links",
	"extra_js_scripts",
	"body_class",
	"page_description",
	"current_year",
}

// optionalFragments are fragment slots that pages may leave empty. They
// default to an empty trusted fragment so an unused slot never trips the
// missing-placeholder check.
var optionalFragments = []string{
	"message_block",
	"posts_html",
	"subscription_posts_html",
	"subscription_list_html",
	"comment_list_html",
	"comment_form_html",
	"authored_posts_html",
	"favorite_posts_html",
	"contacts_html",
	"conversation_html",
	"inbox_html",
	"sent_html",
	"post_content_html",
	"post_actions_html",
	"post_feedback_html",
	"category_options_html",
	"permission_options_html",
	"allow_comments_checked",
	"bio_html",
	"profile_feedback_html",
	"profile_edit_html",
	"privacy_section_html",
}

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// Renderer performs two-stage rendering: the named content template first,
// then the shared layout around it.
type Renderer struct {
	root string
}

func New(root string) *Renderer {
	return &Renderer{root: root}
}

// Render loads the content and layout templates, substitutes placeholders in
// both stages and returns the finished page. A missing template or a
// placeholder with no context entry yields a 500 naming the culprit; both are
// declared failure paths, not crashes.
func (r *Renderer) Render(name string, ctx Context) *response.Response {
	layoutName := "layout.html"
	if v, ok := ctx["_layout"].(string); ok && v != "" {
		layoutName = v
	}
	page, ok := r.load(name)
	if !ok {
		return templateNotFound(name)
	}
	layout, ok := r.load(layoutName)
	if !ok {
		return templateNotFound(layoutName)
	}

	contentCtx := make(Context, len(ctx))
	for key, value := range ctx {
		contentCtx[key] = value
	}
	for _, key := range layoutKeys {
		delete(contentCtx, key)
	}
	for _, key := range optionalFragments {
		if _, present := contentCtx[key]; !present {
			contentCtx[key] = HTML("")
		}
	}

	content, missing := substitute(page, contentCtx)
	if missing != "" {
		return missingPlaceholder(name, missing)
	}

	layoutCtx := Context{
		"page_title":       valueOr(ctx, "page_title", "NeoBlog"),
		"page_description": valueOr(ctx, "page_description", ""),
		"navbar_links":     fragmentOr(ctx, "navbar_links"),
		"header_actions":   fragmentOr(ctx, "header_actions"),
		"main_content":     HTML(content),
		"extra_css_links":  fragmentOr(ctx, "extra_css_links"),
		"extra_js_scripts": fragmentOr(ctx, "extra_js_scripts"),
		"body_class":       valueOr(ctx, "body_class", ""),
		"current_year":     valueOr(ctx, "current_year", time.Now().UTC().Year()),
	}
	rendered, missing := substitute(layout, layoutCtx)
	if missing != "" {
		return missingPlaceholder(layoutName, missing)
	}
	return response.HTML(200, "OK", []byte(rendered))
}

func (r *Renderer) load(name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(r.root, name))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// substitute replaces every identifier-shaped {name} token in one pass.
// Tokens naming a context key take the stringified value; tokens without one
// report the first missing key. Brace runs that are not identifier-shaped
// (CSS rules, inline JS) are never treated as placeholders.
func substitute(templateText string, ctx Context) (result, missing string) {
	result = placeholderPattern.ReplaceAllStringFunc(templateText, func(token string) string {
		key := token[1 : len(token)-1]
		value, ok := ctx[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return token
		}
		return stringify(value)
	})
	if missing != "" {
		return "", missing
	}
	return result, ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case HTML:
		return string(v)
	case string:
		return stdhtml.EscapeString(v)
	default:
		return stdhtml.EscapeString(fmt.Sprint(v))
	}
}

func valueOr(ctx Context, key string, fallback any) any {
	if value, ok := ctx[key]; ok && value != nil {
		return value
	}
	return fallback
}

func fragmentOr(ctx Context, key string) HTML {
	switch v := ctx[key].(type) {
	case HTML:
		return v
	case string:
		return HTML(stdhtml.EscapeString(v))
	}
	return HTML("")
}

func templateNotFound(name string) *response.Response {
	return response.ServerError(fmt.Sprintf("Template %s not found", name))
}

func missingPlaceholder(name, key string) *response.Response {
	return response.ServerError(fmt.Sprintf("Template %s is missing placeholder %s", name, key))
}

// Escape exposes attribute-safe HTML escaping to handlers building fragments.
func Escape(value string) string {
	return stdhtml.EscapeString(value)
}
