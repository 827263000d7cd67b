package config

import (
	"fmt"
	"io"
	"strconv"
)

// Secret is a configuration string that never prints its value. Call
// Value where the secret is actually used.
type Secret string

const masked = "[REDACTED]"

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether the secret is non-empty.
func (s Secret) IsSet() bool {
	return s != ""
}

// String returns a placeholder, or "" when unset.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return masked
}

// Format keeps every fmt verb, including %#v and %x, from revealing the value.
func (s Secret) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('#'):
		_, _ = io.WriteString(f, "config.Secret("+strconv.Quote(s.String())+")")
	case verb == 'q':
		_, _ = io.WriteString(f, strconv.Quote(s.String()))
	default:
		_, _ = io.WriteString(f, s.String())
	}
}

// MarshalText writes the placeholder, so JSON and YAML dumps of a Config are safe.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText stores the raw value.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
