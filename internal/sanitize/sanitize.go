// Package sanitize normalizes raw form input before validation and storage.
//
// All functions are pure and safe to call on untrusted input. Control
// characters are removed, whitespace is collapsed, and contact fields are
// reduced to a canonical form so uniqueness checks compare like with like.
package sanitize

import (
	"strings"
	"unicode"
)

// Text cleans a single-line field.
//
// Rules applied:
//   - Removes control and format characters
//   - Collapses runs of whitespace into one space
//   - Trims leading/trailing whitespace
//
// Examples:
//
//	"  Ada\tLovelace " -> "Ada Lovelace"
//	"Drama\x00Club"    -> "DramaClub"
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MultiLine cleans a free-text field, keeping line breaks.
// CRLF and CR are normalized to LF and at most two consecutive blank lines survive.
func MultiLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = Text(line)
		if line == "" {
			blank++
			if blank > 2 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Email lower-cases and trims an email address.
func Email(s string) string {
	return strings.ToLower(Text(s))
}

// Phone strips common separators from a phone number, keeping a leading '+'.
//
//	"+234 (801) 234-5678" -> "+2348012345678"
//	"0801.234.5678"       -> "08012345678"
//
// Characters other than digits and separators are kept so validation can reject them.
func Phone(s string) string {
	s = Text(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separator
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// List cleans each item, drops empties and removes case-insensitive duplicates.
// First occurrence wins and order is preserved.
func List(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = Text(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
