package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("fetch"), KeyOperation, "fetch"},
		{"service", Service("drive"), KeyService, "drive"},
		{"account", Account("work"), KeyAccount, "work"},
		{"tool", Tool("drive_upload_from_url"), KeyTool, "drive_upload_from_url"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"url", URL("https://example.com/a"), KeyURL, "https://example.com/a"},
		{"host", Host("example.com"), KeyHost, "example.com"},
		{"addr", Addr("93.184.215.14"), KeyAddr, "93.184.215.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantVal {
				t.Errorf("value = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
	}
}

func TestErrNil(t *testing.T) {
	attr := Err(nil)
	// A nil error must produce an attribute slog omits from output.
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	hash := AnonymizeEmail("user@example.com")
	if !strings.HasPrefix(hash, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want user: prefix", hash)
	}
	if strings.Contains(hash, "example.com") {
		t.Errorf("AnonymizeEmail() leaked the address: %q", hash)
	}
	if hash != AnonymizeEmail("user@example.com") {
		t.Error("AnonymizeEmail() is not deterministic")
	}
	if AnonymizeEmail("") != "" {
		t.Error("AnonymizeEmail(\"\") should be empty")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("ya29.secret-token")
	if strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken() leaked token content: %q", got)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"user@example.com", "example.com"},
		{"", ""},
		{"not-an-email", ""},
		{"a@b@c", ""},
	}
	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
