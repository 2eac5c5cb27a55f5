// Package slug holds the pure string rules for seller handles: slugification,
// the syntax contract, name alignment, and the date/phone disambiguator codes.
package slug

import (
	"regexp"
	"strings"
	"time"
)

const (
	MinLen = 3
	MaxLen = 30
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	validForm = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])$`)
	digitsRe  = regexp.MustCompile(`\D+`)
)

// Slugify lowercases raw, collapses every non-alphanumeric run into a single
// hyphen and trims leading/trailing hyphens. It does not enforce length.
func Slugify(raw string) string {
	s := strings.ToLower(raw)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Validate reports whether s satisfies the handle syntax contract:
// [a-z0-9-] only, length 3..30, no leading/trailing hyphen, no "--".
func Validate(s string) bool {
	if len(s) < MinLen || len(s) > MaxLen {
		return false
	}
	if strings.Contains(s, "--") {
		return false
	}
	return validForm.MatchString(s)
}

// DDMM returns the zero-padded day+month code for a YYYY-MM-DD date of
// birth, interpreted in UTC. Returns "" when dob is empty or malformed.
func DDMM(dob string) string {
	if dob == "" {
		return ""
	}
	t, err := time.ParseInLocation("2006-01-02", dob, time.UTC)
	if err != nil {
		return ""
	}
	return t.Format("0201")
}

// Last4 returns the last four digits of the phone's digit string,
// or "" when fewer than four digits are present.
func Last4(phone string) string {
	digits := digitsRe.ReplaceAllString(phone, "")
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// Aligned reports whether the leading tokens of s are drawn, in order, from
// the user's own name: at least two tokens of firstTokens++lastTokens, or of
// lastTokens++firstTokens. Trailing tokens (date codes, random suffixes) are
// free. When the combined name yields fewer than two tokens there is nothing
// to align against and any handle is accepted.
func Aligned(s, firstName, lastName string) bool {
	first := tokens(firstName)
	last := tokens(lastName)
	if len(first)+len(last) < 2 {
		return true
	}
	got := strings.Split(s, "-")
	if len(got) < 2 {
		return false
	}
	return leadsWith(got, append(append([]string{}, first...), last...)) ||
		leadsWith(got, append(append([]string{}, last...), first...))
}

// leadsWith reports whether the first two entries of got appear, in order,
// as a subsequence of want.
func leadsWith(got, want []string) bool {
	matched := 0
	j := 0
	for _, g := range got[:2] {
		found := false
		for ; j < len(want); j++ {
			if want[j] == g {
				found = true
				j++
				break
			}
		}
		if !found {
			return false
		}
		matched++
	}
	return matched == 2
}

// TitleCase normalizes a display name: single spaces, each word capitalized.
func TitleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

func tokens(name string) []string {
	s := Slugify(name)
	if s == "" {
		return nil
	}
	return strings.Split(s, "-")
}
