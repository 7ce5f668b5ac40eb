package outreach

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/placeholder"
)

// DefaultSubject is used when neither the step nor its front matter sets one.
const DefaultSubject = "Quick question about [company]"

const (
	defaultName       = "there"
	defaultCompany    = "your company"
	defaultTitle      = "your role"
	defaultSenderName = "Your Name"
)

// Variables builds the placeholder values for one prospect.
func Variables(p Prospect, sender User) placeholder.Vars {
	name := strings.TrimSpace(p.Name)
	fields := strings.Fields(name)

	vars := placeholder.Vars{
		"name":        defaultName,
		"firstName":   defaultName,
		"lastName":    "",
		"company":     orDefault(p.Company, defaultCompany),
		"title":       orDefault(p.Title, defaultTitle),
		"sender_name": orDefault(sender.Name, defaultSenderName),
	}
	if len(fields) > 0 {
		vars["name"] = name
		vars["firstName"] = fields[0]
		vars["lastName"] = strings.Join(fields[1:], " ")
	}
	return vars
}

// variableNames are the placeholders Variables always fills.
var variableNames = map[string]bool{
	"name": true, "firstName": true, "lastName": true,
	"company": true, "title": true, "sender_name": true,
}

// UnknownPlaceholders returns the placeholders in tmpl that no prospect
// variable fills, in order of first appearance. They would render empty.
func UnknownPlaceholders(tmpl string) []string {
	var unknown []string
	for _, k := range placeholder.Keys(tmpl) {
		if !variableNames[k] {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// FirstStep returns the step with order 0, or the lowest order present.
func FirstStep(steps []Step) (Step, bool) {
	if len(steps) == 0 {
		return Step{}, false
	}
	first := steps[0]
	for _, s := range steps[1:] {
		if s.Order < first.Order {
			first = s
		}
	}
	return first, true
}

// template is a step split into its subject and body templates.
type template struct {
	subject string
	body    string
}

func stepTemplate(ctx context.Context, log *slog.Logger, step Step) template {
	t := template{subject: strings.TrimSpace(step.Subject), body: step.Content}

	parsed, err := placeholder.ParseStep(step.Content)
	if err != nil {
		log.WarnContext(ctx, "step front matter ignored",
			slog.String("step_id", step.ID.String()), slog.String("error", err.Error()))
	} else {
		t.body = parsed.Body
		if t.subject == "" {
			t.subject = strings.TrimSpace(parsed.Subject())
		}
	}

	if t.subject == "" {
		t.subject = DefaultSubject
	}
	return t
}

// compose renders one message per prospect with a valid address, in input
// order. Invalid addresses are logged and counted as skipped.
func compose(ctx context.Context, log *slog.Logger, step Step, prospects []Prospect, sender User) ([]Message, int) {
	tmpl := stepTemplate(ctx, log, step)

	msgs := make([]Message, 0, len(prospects))
	skipped := 0
	for _, p := range prospects {
		// Addresses are checked as stored; surrounding whitespace makes them invalid.
		if !mailer.IsValidAddress(p.Email) {
			skipped++
			log.WarnContext(ctx, "invalid prospect email skipped",
				slog.String("prospect_id", p.ID.String()), slog.String("email", p.Email))
			continue
		}

		vars := Variables(p, sender)
		msgs = append(msgs, Message{
			ProspectID: p.ID,
			To:         p.Email,
			Subject:    placeholder.Render(tmpl.subject, vars),
			Body:       placeholder.Render(tmpl.body, vars),
			FromName:   sender.Name,
			FromEmail:  sender.Email,
		})
	}
	return msgs, skipped
}

func hasValidRecipient(prospects []Prospect) bool {
	for _, p := range prospects {
		if mailer.IsValidAddress(p.Email) {
			return true
		}
	}
	return false
}
