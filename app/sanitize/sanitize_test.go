package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRichText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain allowed markup passes",
			input: "<p>Hello <strong>world</strong></p>",
			want:  "<p>Hello <strong>world</strong></p>",
		},
		{
			name:  "script tag and its body disappear",
			input: `<p>before</p><script>alert("xss")</script><p>after</p>`,
			want:  "<p>before</p><p>after</p>",
		},
		{
			name:  "style tag and its body disappear",
			input: "<style>body { display: none }</style><p>kept</p>",
			want:  "<p>kept</p>",
		},
		{
			name:  "disallowed tag loses markers but keeps text",
			input: "<p><marquee>loud</marquee></p>",
			want:  "<p>loud</p>",
		},
		{
			name:  "event handler attributes are stripped",
			input: `<p onclick="steal()">click</p>`,
			want:  "<p>click</p>",
		},
		{
			name:  "javascript href is dropped",
			input: `<a href="javascript:alert(1)">x</a>`,
			want:  "<a>x</a>",
		},
		{
			name:  "http href survives",
			input: `<a href="https://example.com">x</a>`,
			want:  `<a href="https://example.com">x</a>`,
		},
		{
			name:  "target blank without rel gains a safe rel",
			input: `<a href="/p" target="_blank">x</a>`,
			want:  `<a href="/p" target="_blank" rel="noopener noreferrer">x</a>`,
		},
		{
			name:  "existing safe rel tokens are kept",
			input: `<a href="/p" target="_blank" rel="nofollow">x</a>`,
			want:  `<a href="/p" target="_blank" rel="nofollow">x</a>`,
		},
		{
			name:  "unknown target is removed",
			input: `<a href="/p" target="evil">x</a>`,
			want:  `<a href="/p">x</a>`,
		},
		{
			name:  "img src allows data images only among data urls",
			input: `<img src="data:image/png;base64,AAA" alt="pic">`,
			want:  `<img src="data:image/png;base64,AAA" alt="pic">`,
		},
		{
			name:  "non-image data url src is dropped",
			input: `<img src="data:text/html,<script>" alt="pic">`,
			want:  `<img alt="pic">`,
		},
		{
			name:  "style attribute keeps only allowed properties",
			input: `<span style="color: red; position: fixed">x</span>`,
			want:  `<span style="color: red">x</span>`,
		},
		{
			name:  "style values referencing urls are dropped",
			input: `<span style="color: url(http://evil)">x</span>`,
			want:  "<span>x</span>",
		},
		{
			name:  "class tokens are filtered",
			input: `<p class="fine bad&quot;one also-fine">x</p>`,
			want:  `<p class="fine also-fine">x</p>`,
		},
		{
			name:  "void tags never emit a close",
			input: "<p>a<br></br>b<hr/></p>",
			want:  "<p>a<br>b<hr></p>",
		},
		{
			name:  "comments are dropped",
			input: "<p>a<!-- hidden -->b</p>",
			want:  "<p>ab</p>",
		},
		{
			name:  "text is escaped",
			input: "1 < 2 & 3 > 2",
			want:  "1 &lt; 2 &amp; 3 &gt; 2",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RichText(tt.input)
			assert.Equal(t, tt.want, got)
			// Sanitizing is idempotent: a second pass changes nothing.
			assert.Equal(t, got, RichText(got))
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"removes markup", "<p>Hello <strong>world</strong></p>", "Hello world"},
		{"unescapes entities", "a &amp; b", "a & b"},
		{"collapses whitespace", "<div>a</div>\n\n<div>b</div>", "a b"},
		{"plain text untouched", "just text", "just text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.input))
		})
	}
}
