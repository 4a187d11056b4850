package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "calendar.create")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithService(t *testing.T) {
	logger := slog.Default()
	result := WithService(logger, "calendar")
	if result == nil {
		t.Error("WithService returned nil")
	}
}

func TestWithTurn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithTurn(logger, "turn-1", "whatsapp:+56912345678").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "turn_id=turn-1") {
		t.Errorf("expected turn_id in output, got %q", out)
	}
	if strings.Contains(out, "+56912345678") {
		t.Errorf("phone number leaked into log output: %q", out)
	}
	if !strings.Contains(out, KeyUserHash+"=user:") {
		t.Errorf("expected user hash in output, got %q", out)
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("test_op")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "test_op" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "test_op")
	}
}

func TestServiceAttr(t *testing.T) {
	attr := Service("calendar")
	if attr.Key != KeyService {
		t.Errorf("Service key = %q, want %q", attr.Key, KeyService)
	}
}

func TestIntentAndEventIDAttrs(t *testing.T) {
	if attr := Intent("edit"); attr.Key != KeyIntent || attr.Value.String() != "edit" {
		t.Errorf("Intent attr = %v", attr)
	}
	if attr := EventID("evt1"); attr.Key != KeyEventID || attr.Value.String() != "evt1" {
		t.Errorf("EventID attr = %v", attr)
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("Status key = %q, want %q", attr.Key, KeyStatus)
	}
	if attr.Value.String() != StatusSuccess {
		t.Errorf("Status value = %q, want %q", attr.Value.String(), StatusSuccess)
	}
}

func TestErr(t *testing.T) {
	err := errors.New("test error")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Test with nil - should return an empty group that slog will omit
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeUser(t *testing.T) {
	tests := []struct {
		id       string
		wantLen  int
		hasValue bool
	}{
		{"whatsapp:+56912345678", 21, true}, // "user:" + 16 hex chars
		{"+15551234567", 21, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			result := AnonymizeUser(tt.id)
			if tt.hasValue {
				if len(result) != tt.wantLen {
					t.Errorf("AnonymizeUser(%q) length = %d, want %d", tt.id, len(result), tt.wantLen)
				}
				if result[:5] != "user:" {
					t.Errorf("AnonymizeUser(%q) should start with 'user:', got %q", tt.id, result)
				}
			} else if result != "" {
				t.Errorf("AnonymizeUser(%q) = %q, want empty string", tt.id, result)
			}
		})
	}

	if AnonymizeUser("whatsapp:+1") != AnonymizeUser("whatsapp:+1") {
		t.Error("AnonymizeUser should return deterministic results")
	}
	if AnonymizeUser("whatsapp:+1") == AnonymizeUser("whatsapp:+2") {
		t.Error("Different identities should produce different hashes")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("whatsapp:+56912345678")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
	if len(attr.Value.String()) != 21 {
		t.Errorf("UserHash value length = %d, want 21", len(attr.Value.String()))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := SanitizeToken(tt.token); result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
		})
	}
}

func TestExtractChannel(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"whatsapp:+56912345678", "whatsapp"},
		{"sms:+15551234567", "sms"},
		{"+15551234567", ""},
		{"", ""},
		{":+1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if result := ExtractChannel(tt.id); result != tt.expected {
				t.Errorf("ExtractChannel(%q) = %q, want %q", tt.id, result, tt.expected)
			}
		})
	}
}

func TestChannel(t *testing.T) {
	attr := Channel("whatsapp:+56912345678")
	if attr.Key != KeyChannel {
		t.Errorf("Channel key = %q, want %q", attr.Key, KeyChannel)
	}
	if attr.Value.String() != "whatsapp" {
		t.Errorf("Channel value = %q, want %q", attr.Value.String(), "whatsapp")
	}
}
