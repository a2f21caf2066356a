// Package casting formats and checks casting-number input for the lookup
// form.
//
// These are format helpers only: a number that passes [Valid] is shaped like
// a casting number, nothing more.
package casting

import (
	"regexp"
	"strings"
	"unicode"
)

var pattern = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)

// Normalize strips all whitespace and upper-cases s, the way the lookup form
// rewrites its input as the user types.
func Normalize(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// Valid reports whether s, upper-cased, is 6 to 8 ASCII letters or digits.
//
// Whitespace is not stripped; call [Normalize] first for raw input.
func Valid(s string) bool {
	return pattern.MatchString(strings.ToUpper(s))
}

// HasCriteria reports whether any search field holds a non-blank value.
func HasCriteria(fields map[string]string) bool {
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
