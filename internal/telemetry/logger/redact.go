package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys containing any of these fragments are treated as secrets.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

// redactSensitive replaces non-empty string values of sensitive keys.
// Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			redacted[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	return a
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// Mask hides all but the last few characters of a secret so it can be
// correlated in logs without being disclosed. Short values are fully masked.
func Mask(value string) string {
	const visible = 3
	if len(value) <= 2*visible {
		return "***"
	}
	return "***" + value[len(value)-visible:]
}
