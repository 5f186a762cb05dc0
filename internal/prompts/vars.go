package prompts

import "regexp"

// placeholderPattern matches {{ name }} tokens. Names may be dotted, e.g.
// {{ property.address }}.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.-]+)\s*\}\}`)

// Substitute replaces each {{ name }} placeholder using lookup. Placeholders
// the lookup cannot resolve are left verbatim: downstream consumers may supply
// the remaining context themselves.
func Substitute(template string, lookup func(name string) (string, bool)) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if val, ok := lookup(name); ok {
			return val
		}
		return token
	})
}

// ParsePlaceholders returns the distinct placeholder names in template, in
// order of first appearance.
func ParsePlaceholders(template string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
