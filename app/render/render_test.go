package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T, files map[string]string) *Renderer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return New(dir)
}

const minimalLayout = "<title>{page_title}</title><body>{main_content}</body>"

func TestRenderEscapesPlainStrings(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "<h1>{heading}</h1>{fragment}",
	})

	resp := r.Render("page.html", Context{
		"page_title": "Title",
		"heading":    `<script>alert("x")</script>`,
		"fragment":   HTML("<em>trusted</em>"),
	})

	require.Equal(t, 200, resp.Status)
	body := string(resp.Body)
	assert.Contains(t, body, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.Contains(t, body, "<em>trusted</em>")
}

func TestRenderMissingTemplate(t *testing.T) {
	r := writeTemplates(t, map[string]string{"layout.html": minimalLayout})

	resp := r.Render("absent.html", Context{})
	assert.Equal(t, 500, resp.Status)
	assert.Contains(t, string(resp.Body), "Template absent.html not found")
}

func TestRenderMissingPlaceholder(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "Hello {nobody_set_this}",
	})

	resp := r.Render("page.html", Context{"page_title": "x"})
	assert.Equal(t, 500, resp.Status)
	assert.Contains(t, string(resp.Body), "page.html")
	assert.Contains(t, string(resp.Body), "nobody_set_this")
}

func TestRenderOptionalFragmentsDefaultEmpty(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "before{message_block}after",
	})

	resp := r.Render("page.html", Context{"page_title": "x"})
	require.Equal(t, 200, resp.Status)
	assert.Contains(t, string(resp.Body), "beforeafter")
}

func TestRenderLayoutKeysStrippedFromContent(t *testing.T) {
	// The content template must not see layout-reserved keys; referencing one
	// there is a hard failure even when the outer context carries it.
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "{current_year}",
	})

	resp := r.Render("page.html", Context{"page_title": "x", "current_year": 2026})
	assert.Equal(t, 500, resp.Status)
	assert.Contains(t, string(resp.Body), "current_year")
}

func TestRenderLayoutDefaults(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": "<title>{page_title}</title><meta content=\"{page_description}\">{main_content}",
		"page.html":   "content",
	})

	resp := r.Render("page.html", Context{})
	require.Equal(t, 200, resp.Status)
	assert.Contains(t, string(resp.Body), "<title>NeoBlog</title>")
}

func TestRenderLeavesNonIdentifierBracesAlone(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "<style>body { margin: 0; }</style>{value}",
	})

	resp := r.Render("page.html", Context{"page_title": "x", "value": "ok"})
	require.Equal(t, 200, resp.Status)
	assert.Contains(t, string(resp.Body), "body { margin: 0; }")
	assert.Contains(t, string(resp.Body), "ok")
}

func TestRenderSubstitutedValueIsNotReexpanded(t *testing.T) {
	// A value containing placeholder-shaped text must come through literally.
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"page.html":   "{content}",
	})

	resp := r.Render("page.html", Context{
		"page_title": "x",
		"content":    HTML("{page_title}"),
	})
	require.Equal(t, 200, resp.Status)
	assert.Contains(t, string(resp.Body), "{page_title}")
}

func TestRenderAlternateLayout(t *testing.T) {
	r := writeTemplates(t, map[string]string{
		"layout.html": minimalLayout,
		"bare.html":   "BARE:{main_content}",
		"page.html":   "inner",
	})

	resp := r.Render("page.html", Context{"_layout": "bare.html"})
	require.Equal(t, 200, resp.Status)
	assert.Contains(t, string(resp.Body), "BARE:inner")
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil renders empty", nil, ""},
		{"html passes verbatim", HTML("<b>x</b>"), "<b>x</b>"},
		{"string escapes", "<b>", "&lt;b&gt;"},
		{"int stringifies", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringify(tt.value))
		})
	}
}
