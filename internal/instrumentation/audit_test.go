package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"user@gmail.com", "gmail.com"},
		{"invalid", "unknown"},
		{"", "unknown"},
		{"trailing@", "unknown"},
	}

	for _, tt := range tests {
		if got := ExtractUserDomain(tt.email); got != tt.want {
			t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestToolInvocationComplete(t *testing.T) {
	ti := NewToolInvocation("drive_upload_from_url").
		WithUser("jane@example.com").
		WithAccount("work").
		WithService(ServiceDrive, OperationUpload)

	ti.Complete(false, errors.New("quota exceeded"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "quota exceeded" {
		t.Errorf("Error = %q", ti.Error)
	}
	if ti.Duration < 0 {
		t.Error("Duration should be non-negative")
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
	if ti.UserDomain() != "example.com" {
		t.Errorf("UserDomain() = %q", ti.UserDomain())
	}
}

func TestAuditLoggerAnonymizesByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLogger(logger)
	ti := NewToolInvocation("gmail_send_message").
		WithUser("jane@example.com").
		WithService(ServiceGmail, OperationSend)
	ti.Complete(true, nil)

	al.LogToolInvocation(ti)

	out := buf.String()
	if strings.Contains(out, "jane@example.com") {
		t.Errorf("audit log leaked the full email: %s", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Errorf("audit log missing the user domain: %s", out)
	}
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("audit log missing the event name: %s", out)
	}
}

func TestAuditLoggerIncludesPIIWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludePII: true})
	ti := NewToolInvocation("gmail_send_message").WithUser("jane@example.com")
	ti.Complete(false, errors.New("denied"))

	al.LogToolInvocation(ti)

	out := buf.String()
	if !strings.Contains(out, "jane@example.com") {
		t.Errorf("audit log should include the full email: %s", out)
	}
	if !strings.Contains(out, "tool_failed") {
		t.Errorf("failed invocation should log tool_failed: %s", out)
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})
	ti := NewToolInvocation("t")
	ti.Complete(true, nil)
	al.LogToolInvocation(ti)

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %s", buf.String())
	}
}
