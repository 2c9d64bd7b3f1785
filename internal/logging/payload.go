package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const clipLimit = 240

// FormatHTTPPayload normalizes an HTTP body for log output. JSON bodies are
// re-encoded without HTML escaping; anything else is returned trimmed.
func FormatHTTPPayload(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "<empty>"
	}

	var quoted string
	if err := json.Unmarshal([]byte(trimmed), &quoted); err == nil {
		trimmed = strings.TrimSpace(quoted)
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if encErr := enc.Encode(value); encErr == nil {
			return strings.TrimSpace(buf.String())
		}
	}
	return trimmed
}

// Truncate flattens value to one line and clips it for inline log fields.
func Truncate(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	if value == "" {
		return "<empty>"
	}
	if len(value) > clipLimit {
		cut := clipLimit
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		return value[:cut] + "..."
	}
	return value
}

// MaskSecret keeps the first four characters of a credential for
// correlation and hides the rest.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "<empty>"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}
