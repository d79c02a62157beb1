package logger

import "testing"

func TestRedactSensitive_BearerValue(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.Info("request", "header", "Bearer abcdefghijklmnop")

	entry := decodeEntry(t, buf)
	if got := entry["header"]; got != "Bearer abc...nop" {
		t.Errorf("bearer value should be masked, got %v", got)
	}
}

func TestRedactSensitive_Keys(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"password", "hunter22", redactedValue},
		{"credential", "abc123", redactedValue},
		{"Authorization", "xyz", redactedValue},
		{"passphrase", "", ""},
		{"email", "a@b.com", "a@b.com"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			l, buf := newJSONLogger(t, "info")
			l.Info("event", tt.key, tt.value)

			entry := decodeEntry(t, buf)
			if got := entry[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactCredential(t *testing.T) {
	if got := RedactCredential("short"); got != "***" {
		t.Errorf("RedactCredential(short) = %q", got)
	}
	if got := RedactCredential("abcdefghijkl"); got != "abc...jkl" {
		t.Errorf("RedactCredential() = %q", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	if !IsSensitiveKey("X-Session-Token") {
		t.Error("token keys are sensitive")
	}
	if IsSensitiveKey("path") {
		t.Error("path is not sensitive")
	}
}
