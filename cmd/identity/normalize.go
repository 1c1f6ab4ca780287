package identity

import "strings"

// NormalizeEmail trims surrounding whitespace. Emails are stored and
// matched case-sensitively, so no case folding is applied.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
