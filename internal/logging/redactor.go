package logging

import (
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor handles secret redaction in log fields.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a new Redactor with default sensitive keys.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]bool{
			// Portal credentials
			"password": true,
			"passwd":   true,
			"pass":     true,

			// Sessions and cookies handed out by the portal
			"token":         true,
			"secret":        true,
			"key":           true,
			"cookie":        true,
			"set-cookie":    true,
			"session":       true,
			"authorization": true,

			// Request bodies carry the password in clear text
			"body":    true,
			"payload": true,

			// Credential store material
			"sealed": true,
			"nonce":  true,
		},
	}
}

// AddSensitiveKey adds a custom key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RedactFields redacts sensitive values from a map of fields.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))

	for k, v := range fields {
		if r.isSensitiveKey(k) {
			redacted[k] = redactedValue
		} else if nested, ok := v.(map[string]any); ok {
			redacted[k] = r.RedactFields(nested)
		} else {
			redacted[k] = v
		}
	}

	return redacted
}

// isSensitiveKey checks if a field key is marked as sensitive.
// Only exact (case-insensitive) matches count; substring matching caught
// legitimate fields like "password_set".
func (r *Redactor) isSensitiveKey(key string) bool {
	return r.sensitiveKeys[strings.ToLower(key)]
}
