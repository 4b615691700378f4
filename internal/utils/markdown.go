package utils

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	mdhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			mdhtml.WithHardWraps(),
			mdhtml.WithXHTML(),
		),
	)
	htmlPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

func init() {
	htmlPolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// sanitizePasses bounds SanitizeText; each pass either shrinks the text or
// leaves it unchanged.
const sanitizePasses = 8

// SanitizeText strips every tag from user supplied text and returns it
// unescaped, so "5 < 7 & more" round-trips unchanged. Sanitizing and decoding
// repeat until the text is stable: entity-encoded markup and fragments joined
// by stripping a tag are removed on a later pass instead of surviving as
// live tags.
func SanitizeText(s string) string {
	for i := 0; i < sanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
		if next == s {
			return next
		}
		s = next
	}
	// Still changing: keep the escaped form rather than decode it.
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
