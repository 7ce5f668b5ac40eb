package mailer

import (
	"fmt"
	"strings"
)

// Tags represents email tags that are either presence-only (struct{}{})
// or key-value pairs. Providers convert them to their own format.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into "Name <email>" form.
// Returns just the email when the name is blank.
func Recipient(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers map[string]string // Custom headers
	Tags    Tags              // Provider-specific tags
	Subject string
	HTML    string // HTML body
	Text    string // Plain text alternative
	From    string // Sender; providers fall back to their configured default when empty
	ReplyTo string
	To      []string // At least one required
}
