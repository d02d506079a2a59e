// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RegNo trims and upper-cases a registration number.
func RegNo(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Code trims a submitted verification code.
func Code(s string) string {
	return strings.TrimSpace(s)
}
