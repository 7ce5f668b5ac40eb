package mailer

import (
	"bytes"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// BodyRenderer turns a plain-text (or light markdown) message body into
// sanitized HTML. Personalized bodies contain prospect-supplied values,
// so the rendered HTML always goes through a bluemonday policy.
type BodyRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewBodyRenderer creates a renderer with hard line breaks enabled, so
// single newlines in outreach copy become <br>.
func NewBodyRenderer() *BodyRenderer {
	policy := bluemonday.NewPolicy()
	policy.AllowStandardURLs()
	policy.AllowElements(
		"p", "br",
		"strong", "b", "em", "i",
		"ul", "ol", "li",
		"code", "pre", "blockquote",
	)
	policy.AllowAttrs("href").OnElements("a")
	policy.RequireNoFollowOnLinks(true)

	return &BodyRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

// Render converts body to sanitized HTML.
func (r *BodyRenderer) Render(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}

	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}
