// Package htmlsanitize cleans user-supplied content before it is stored.
//
// Note bodies are rich text produced by the editor and keep a UGC subset of
// HTML. Comments are plain text; all markup is stripped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Editor blocks carry data-block-id so comments can anchor to them.
	p.AllowDataAttributes()
	return p
}

// Sanitize keeps safe rich-text markup and drops scripts, event handlers
// and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// PlainText strips all markup and surrounding whitespace. The result is
// unescaped text, not HTML.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
