// Package logger defines the structured logging contract used across the esign client.
// Implementations live in internal/infrastructure/monitoring; this package only holds the
// interface, the field type and value redaction helpers.
package logger

import (
	"context"
	"strings"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Fields is a set of structured key-value pairs attached to a log entry
type Fields map[string]interface{}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that adds fields to every entry
	WithFields(fields Fields) Logger

	// ForContext returns the request-scoped logger stored in ctx, if any
	ForContext(ctx context.Context) Logger
}

// ================================================================================
// Redaction
// ================================================================================

var sensitiveKeys = []string{
	"secret",
	"token",
	"signature",
	"password",
	"authorization",
	"api_key",
}

// IsSensitive reports whether a field or header name holds credential material
func IsSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Redact masks value when key is sensitive
func Redact(key string, value interface{}) interface{} {
	if !IsSensitive(key) {
		return value
	}
	if str, ok := value.(string); ok && len(str) > 0 {
		return MaskString(str)
	}
	return "***REDACTED***"
}

// MaskString keeps the first and last four characters of long values
func MaskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// RedactHeaders flattens a header map and masks credential-bearing values
func RedactHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = strings.Join(v, ",")
		if IsSensitive(k) {
			out[k] = MaskString(out[k])
		}
	}
	return out
}
