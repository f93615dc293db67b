package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeField trims a caller supplied field, collapses inner whitespace
// runs to a single space and applies Unicode NFC so that "Steaua București"
// typed with combining diacritics matches the precomposed form.
func NormalizeField(value string) string {
	value = norm.NFC.String(value)
	value = whitespaceRun.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// TruncateForLog shortens s to at most limit bytes without splitting a rune.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// GenerateRequestID creates a unique request identifier using UUID v4.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ValidRequestID reports whether an incoming X-Request-ID is safe to reuse.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
