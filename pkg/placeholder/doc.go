// Package placeholder renders bracketed placeholders in outreach templates.
//
// Templates reference variables as [name], [company] and so on. Rendering is a
// single left-to-right pass: substituted values are never re-scanned, and a
// placeholder without a matching variable is replaced with an empty string.
//
//	body := placeholder.Render("Hi [name] from [company]", map[string]string{
//		"name":    "Alice",
//		"company": "Acme",
//	})
//	// body == "Hi Alice from Acme"
//
// Sequence step content may start with YAML front matter carrying a subject
// line. [ParseStep] separates it from the body:
//
//	---
//	Subject: Quick question about [company]
//	---
//	Hi [firstName], ...
package placeholder
