package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		key  string
		val  any
		want string
	}{
		{key: "email", val: "jane@example.com", want: "[REDACTED]"},
		{key: "phone_number", val: "+1 555 0100", want: "[REDACTED]"},
		{key: "openai_api_key", val: "sk-abc", want: "[REDACTED]"},
		{key: "transcript", val: "hello there", want: "[REDACTED]"},
		{key: "model", val: "gpt-4o", want: "gpt-4o"},
	}
	for _, tc := range tests {
		got := sanitizeValue(tc.key, tc.val)
		if got != tc.want {
			t.Fatalf("sanitizeValue(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestSanitizeValueHashesIdentifiers(t *testing.T) {
	got, ok := sanitizeValue("profile_id", "4f5c").(string)
	if !ok {
		t.Fatalf("expected string result")
	}
	if !strings.HasPrefix(got, "hash:") || strings.Contains(got, "4f5c") {
		t.Fatalf("expected hashed identifier, got %q", got)
	}
	if again := sanitizeValue("profile_id", "4f5c"); again != got {
		t.Fatalf("hash not stable: %v vs %v", again, got)
	}
}

func TestSanitizeNestedMap(t *testing.T) {
	out := sanitizeValue("payload", map[string]interface{}{
		"Email": "a@b.c",
		"Name":  "Jane",
	}).(map[string]interface{})
	if out["Email"] != "[REDACTED]" {
		t.Fatalf("expected nested email redacted, got %v", out["Email"])
	}
	if out["Name"] != "Jane" {
		t.Fatalf("expected name untouched, got %v", out["Name"])
	}
}

func TestNewTestModeIsQuiet(t *testing.T) {
	l, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("should be discarded", "k", "v")
	l.With("service", "x").Warn("also discarded")
}
