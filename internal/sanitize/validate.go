package sanitize

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MaxEmailLength follows the SMTP path limit.
	MaxEmailLength = 254

	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

	// phonePattern matches digits with an optional leading '+', after Phone normalization.
	phonePattern = regexp.MustCompile(`^\+?[0-9]+$`)

	// namePattern allows letters with combining marks and the punctuation used in names.
	namePattern = regexp.MustCompile(`^[\p{L}][\p{L}\p{M} '.\-]*$`)
)

// IsEmail reports whether s is a plausible, already-normalized email address.
func IsEmail(s string) bool {
	return len(s) <= MaxEmailLength && emailPattern.MatchString(s)
}

// IsPhone reports whether s is a normalized phone number of 10 to 15 digits.
func IsPhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := len(s)
	if s[0] == '+' {
		digits--
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// IsPersonName reports whether s contains only name characters.
func IsPersonName(s string) bool {
	return namePattern.MatchString(s)
}

// Length returns the number of runes in s.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Within reports whether s has between min and max runes, inclusive.
func Within(s string, min, max int) bool {
	n := Length(s)
	return n >= min && n <= max
}
