package placeholder

import "regexp"

// pattern matches [identifier]. Bracketed text that is not an identifier,
// such as "[see link]" or "[1]", is left as is.
var pattern = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_]*)\]`)

// Vars maps placeholder names to their values.
type Vars = map[string]string

// Render replaces every [key] in tmpl with vars[key].
// Missing keys are replaced with an empty string.
func Render(tmpl string, vars Vars) string {
	if tmpl == "" {
		return tmpl
	}
	return pattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		// m is "[key]"; the value is inserted verbatim, so it is never expanded again.
		return vars[m[1:len(m)-1]]
	})
}

// Keys returns the placeholder names referenced by tmpl, in order of first appearance.
func Keys(tmpl string) []string {
	matches := pattern.FindAllStringSubmatch(tmpl, -1)
	seen := make(map[string]struct{}, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
