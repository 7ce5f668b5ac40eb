// Package mailer defines the provider-neutral email model used by the outreach
// pipeline.
//
// A [Sender] delivers one fully-prepared [Email]. Providers live in
// subpackages:
//
//   - resend: transactional relay (service-level API key)
//   - gmail: the user's connected Google mailbox (OAuth2 tokens)
//   - outlook: the user's connected Microsoft 365 mailbox (OAuth2 tokens)
//
// [BodyRenderer] converts plain-text outreach copy into sanitized HTML so the
// same body can be sent as text and HTML alternatives:
//
//	r := mailer.NewBodyRenderer()
//	html, err := r.Render("Hi Alice,\nquick question about Acme.")
//
// # Errors
//
//   - ErrNoRecipient: No recipient specified
//   - ErrNoSubject: No subject provided
//   - ErrNoContent: Neither HTML nor text body
//   - ErrNoSender: No from address and no provider default
//   - ErrRenderFailed: Body rendering failed
//   - ErrSendFailed: Provider rejected the message or transport failed
package mailer
