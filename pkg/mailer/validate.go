package mailer

import (
	"regexp"
	"strings"
)

// addressPattern accepts "local@domain.tld" with no whitespace and exactly one @.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidAddress reports whether s is a syntactically valid email address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Validate checks the minimum fields every provider needs.
func Validate(email *Email) error {
	if email == nil || len(email.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range email.To {
		if strings.TrimSpace(to) == "" {
			return ErrNoRecipient
		}
	}
	if email.Subject == "" {
		return ErrNoSubject
	}
	if email.HTML == "" && email.Text == "" {
		return ErrNoContent
	}
	return nil
}
