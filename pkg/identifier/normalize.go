package identifier

import "strings"

var separators = strings.NewReplacer(" ", "", "-", "")

// Normalize removes spaces and hyphens, trims surrounding whitespace and
// uppercases the result. Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(separators.Replace(raw)))
}
