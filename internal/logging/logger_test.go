package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.SetOutput(&stdout, &stderr)

	logger.Info("test message", map[string]any{
		"foo": "bar",
		"num": 42,
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])

	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bar", fields["foo"])
	assert.Equal(t, float64(42), fields["num"])
	assert.Empty(t, stderr.String())
}

func TestLogger_HumanFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatHuman)
	logger.SetOutput(&stdout, &stderr)

	logger.Info("test message", map[string]any{
		"foo": "bar",
	})

	output := stdout.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, `"foo": "bar"`)
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  logging.LogLevel
		logFunc   func(*logging.Logger)
		shouldLog bool
	}{
		{
			name:      "debug logged when level is debug",
			logLevel:  logging.LevelDebug,
			logFunc:   func(l *logging.Logger) { l.Debug("test") },
			shouldLog: true,
		},
		{
			name:      "debug not logged when level is info",
			logLevel:  logging.LevelInfo,
			logFunc:   func(l *logging.Logger) { l.Debug("test") },
			shouldLog: false,
		},
		{
			name:      "warn logged when level is info",
			logLevel:  logging.LevelInfo,
			logFunc:   func(l *logging.Logger) { l.Warn("test") },
			shouldLog: true,
		},
		{
			name:      "info not logged when level is error",
			logLevel:  logging.LevelError,
			logFunc:   func(l *logging.Logger) { l.Info("test") },
			shouldLog: false,
		},
		{
			name:      "error logged when level is error",
			logLevel:  logging.LevelError,
			logFunc:   func(l *logging.Logger) { l.Error("test") },
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			logger := logging.New(tt.logLevel, logging.FormatJSON)
			logger.SetOutput(&stdout, &stderr)

			tt.logFunc(logger)

			if tt.shouldLog {
				assert.NotEmpty(t, stdout.String()+stderr.String())
			} else {
				assert.Empty(t, stdout.String()+stderr.String())
			}
		})
	}
}

func TestLogger_SecretRedaction(t *testing.T) {
	var stdout bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.SetOutput(&stdout, &stdout)

	logger.Info("login attempt", map[string]any{
		"username": "student",
		"password": "super-secret",
		"cookie":   "sid=abc123",
	})

	output := stdout.String()
	assert.NotContains(t, output, "super-secret")
	assert.NotContains(t, output, "abc123")
	assert.Contains(t, output, "[REDACTED]")
	assert.Contains(t, output, "student")
}

func TestLogger_ErrorToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.SetOutput(&stdout, &stderr)

	logger.Error("error message", map[string]any{"error": errors.New("boom")})

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "error message")
	assert.Contains(t, stderr.String(), "boom")
}

func TestLogger_WithFields(t *testing.T) {
	var stdout bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.SetOutput(&stdout, &stdout)

	contextLogger := logger.WithFields(map[string]any{
		"attempt_id": "3f1c",
		"action":     "login",
	})

	contextLogger.Info("portal replied", map[string]any{
		"success": true,
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &entry))

	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "3f1c", fields["attempt_id"])
	assert.Equal(t, "login", fields["action"])
	assert.Equal(t, true, fields["success"])
}

func TestNewNop(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("discarded")
	assert.NoError(t, logger.Sync())
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel("verbose"))
	assert.Equal(t, logging.FormatJSON, logging.ParseFormat("json"))
	assert.Equal(t, logging.FormatHuman, logging.ParseFormat(""))
}

func TestRedactor_SensitiveKeys(t *testing.T) {
	redactor := logging.NewRedactor()

	tests := []struct {
		name     string
		input    map[string]any
		expected map[string]any
	}{
		{
			name: "redact password",
			input: map[string]any{
				"username": "student",
				"password": "secret123",
			},
			expected: map[string]any{
				"username": "student",
				"password": "[REDACTED]",
			},
		},
		{
			name: "redact request body and cookies case-insensitively",
			input: map[string]any{
				"Body":       `{"password":"x"}`,
				"Set-Cookie": "sid=1",
				"status":     200,
			},
			expected: map[string]any{
				"Body":       "[REDACTED]",
				"Set-Cookie": "[REDACTED]",
				"status":     200,
			},
		},
		{
			name: "redact nested fields",
			input: map[string]any{
				"credentials": map[string]any{
					"username": "student",
					"password": "secret",
				},
			},
			expected: map[string]any{
				"credentials": map[string]any{
					"username": "student",
					"password": "[REDACTED]",
				},
			},
		},
		{
			name:     "nil fields",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redactor.RedactFields(tt.input))
		})
	}
}

func TestRedactor_CustomKeys(t *testing.T) {
	redactor := logging.NewRedactor()
	redactor.AddSensitiveKey("Student_ID")

	result := redactor.RedactFields(map[string]any{
		"student_id": "201900001",
		"target":     "NJU-WLAN",
	})
	assert.Equal(t, "[REDACTED]", result["student_id"])
	assert.Equal(t, "NJU-WLAN", result["target"])
}

func TestLogger_RedactKeys(t *testing.T) {
	var stdout bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.RedactKeys("Username")
	logger.SetOutput(&stdout, &stdout)

	logger.Info("Submitting credentials", map[string]any{
		"username":  "201900001",
		"automatic": true,
	})

	output := stdout.String()
	assert.NotContains(t, output, "201900001")
	assert.Contains(t, output, "[REDACTED]")
	assert.Contains(t, output, "automatic")
}
