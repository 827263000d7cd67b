package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
)

// Secret logs only the length of a configured secret.
func Secret(key string, s config.Secret) zap.Field {
	return RedactedString(key, s.Value())
}

// RedactedString replaces val with its length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, fmt.Sprintf("[REDACTED:%d]", len(val)))
}

// MaskedEmail keeps the first character of the local part and the domain.
//
//	"jane.doe@example.com" -> "j***@example.com"
func MaskedEmail(key, email string) zap.Field {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return zap.String(key, "***")
	}
	return zap.String(key, string([]rune(local)[0])+"***@"+domain)
}

// MaskedPhone keeps the last four characters.
func MaskedPhone(key, phone string) zap.Field {
	if len(phone) <= 4 {
		return zap.String(key, "***")
	}
	return zap.String(key, "***"+phone[len(phone)-4:])
}
