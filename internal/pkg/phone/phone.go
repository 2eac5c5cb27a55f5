// Package phone normalizes US phone numbers for storage.
package phone

import "strings"

// E164 converts raw user input to E.164 with a +1 country code.
// A leading 1 in an 11-digit number is treated as the country code.
// Returns "" when no digits are present.
func E164(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return "+1" + digits
}
