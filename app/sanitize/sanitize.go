// Package sanitize renders untrusted rich-text HTML safe for embedding.
// A streaming tokenizer drives an allow-list filter: approved tags pass with
// filtered attributes, disallowed tags lose their markers while ordinary text
// between tags survives escaped, and script/style bodies are dropped whole.
package sanitize

import (
	stdhtml "html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "em": true, "u": true, "s": true,
	"blockquote": true, "code": true, "pre": true,
	"ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"span": true, "a": true, "img": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"hr": true, "figure": true, "figcaption": true,
	"sup": true, "sub": true, "div": true,
}

// voidTags never emit a closing tag, even when the source wrote one.
var voidTags = map[string]bool{"br": true, "img": true, "hr": true}

var globalAttrs = map[string]bool{"class": true, "style": true}

var allowedAttrs = map[string]map[string]bool{
	"a":   {"href": true, "target": true, "rel": true, "title": true},
	"img": {"src": true, "alt": true, "title": true},
	"th":  {"colspan": true, "rowspan": true},
	"td":  {"colspan": true, "rowspan": true},
}

var allowedStyles = map[string]bool{
	"color": true, "background-color": true,
	"font-size": true, "font-weight": true, "font-style": true, "font-family": true,
	"text-align": true, "text-decoration": true,
	"line-height": true, "letter-spacing": true,
	"margin": true, "margin-left": true, "margin-right": true,
	"margin-top": true, "margin-bottom": true,
}

var frameTargets = map[string]bool{"_blank": true, "_self": true, "_parent": true, "_top": true}

var relTokens = map[string]bool{"noopener": true, "noreferrer": true, "nofollow": true, "external": true}

var classToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RichText filters untrusted editor output down to the allow-listed HTML
// subset. The output is safe to embed directly in a page and sanitizing it a
// second time returns it unchanged.
func RichText(input string) string {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(input))
	var out strings.Builder
	rawTextDepth := 0
	for {
		switch tokenizer.Next() {
		case xhtml.ErrorToken:
			return out.String()
		case xhtml.TextToken:
			if rawTextDepth > 0 {
				continue
			}
			out.WriteString(stdhtml.EscapeString(string(tokenizer.Text())))
		case xhtml.StartTagToken:
			token := tokenizer.Token()
			if token.Data == "script" || token.Data == "style" {
				rawTextDepth++
				continue
			}
			writeTag(&out, token)
		case xhtml.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data == "script" || token.Data == "style" {
				continue
			}
			writeTag(&out, token)
		case xhtml.EndTagToken:
			token := tokenizer.Token()
			if token.Data == "script" || token.Data == "style" {
				if rawTextDepth > 0 {
					rawTextDepth--
				}
				continue
			}
			if !allowedTags[token.Data] || voidTags[token.Data] {
				continue
			}
			out.WriteString("</" + token.Data + ">")
		case xhtml.CommentToken, xhtml.DoctypeToken:
			// dropped entirely
		}
	}
}

func writeTag(out *strings.Builder, token xhtml.Token) {
	if !allowedTags[token.Data] {
		return
	}
	out.WriteString("<" + token.Data + sanitizeAttributes(token.Data, token.Attr) + ">")
}

func sanitizeAttributes(tag string, attrs []xhtml.Attribute) string {
	perTag := allowedAttrs[tag]
	var out strings.Builder
	relPresent := false
	targetBlank := false
	for _, attr := range attrs {
		name := strings.ToLower(attr.Key)
		if !globalAttrs[name] && !perTag[name] {
			continue
		}
		value := attr.Val
		switch name {
		case "class":
			value = sanitizeClasses(value)
		case "style":
			value = sanitizeStyle(value)
		case "href":
			value = sanitizeHref(value)
		case "src":
			value = sanitizeSrc(value)
		case "target":
			value = strings.ToLower(strings.TrimSpace(value))
			if !frameTargets[value] {
				value = ""
			} else if value == "_blank" {
				targetBlank = true
			}
		case "rel":
			value = sanitizeRel(value)
			if value != "" {
				relPresent = true
			}
		default:
			out.WriteString(" " + name + `="` + stdhtml.EscapeString(value) + `"`)
			continue
		}
		if value == "" {
			continue
		}
		out.WriteString(" " + name + `="` + stdhtml.EscapeString(value) + `"`)
	}
	if tag == "a" && targetBlank && !relPresent {
		out.WriteString(` rel="noopener noreferrer"`)
	}
	return out.String()
}

func sanitizeClasses(value string) string {
	var kept []string
	for _, token := range strings.Fields(value) {
		if classToken.MatchString(token) {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

func sanitizeStyle(value string) string {
	var kept []string
	for _, item := range strings.Split(value, ";") {
		prop, raw, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(prop))
		if !allowedStyles[name] {
			continue
		}
		val := strings.TrimSpace(raw)
		lowered := strings.ToLower(val)
		if strings.Contains(lowered, "javascript:") ||
			strings.Contains(lowered, "expression") ||
			strings.Contains(lowered, "url(") {
			continue
		}
		kept = append(kept, name+": "+val)
	}
	return strings.Join(kept, "; ")
}

func sanitizeHref(value string) string {
	trimmed := strings.TrimSpace(value)
	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"http://", "https://", "mailto:", "tel:", "/", "#"} {
		if strings.HasPrefix(lowered, prefix) {
			return trimmed
		}
	}
	return ""
}

func sanitizeSrc(value string) string {
	trimmed := strings.TrimSpace(value)
	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"http://", "https://", "data:image/"} {
		if strings.HasPrefix(lowered, prefix) {
			return trimmed
		}
	}
	return ""
}

func sanitizeRel(value string) string {
	var kept []string
	for _, token := range strings.Fields(value) {
		if relTokens[token] {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripTags removes all markup for excerpt generation: tags become spaces,
// entities are unescaped, whitespace runs collapse. Deliberately lossy; the
// result is HTML-escaped again before it is ever displayed.
func StripTags(value string) string {
	withoutTags := tagPattern.ReplaceAllString(value, " ")
	unescaped := stdhtml.UnescapeString(withoutTags)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(unescaped, " "))
}
