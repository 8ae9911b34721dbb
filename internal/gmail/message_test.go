package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not base64url: %v", err)
	}
	return string(data)
}

func TestBuildRawMessage(t *testing.T) {
	raw, err := buildRawMessage(&SendRequest{
		To:      []string{"a@example.com", "b@example.com"},
		Cc:      []string{"c@example.com"},
		Subject: "Weekly sync",
		Body:    "See you at 10.",
	})
	if err != nil {
		t.Fatalf("buildRawMessage() error = %v", err)
	}

	msg := decodeRaw(t, raw)
	for _, want := range []string{
		"To: a@example.com, b@example.com\r\n",
		"Cc: c@example.com\r\n",
		"Subject: Weekly sync\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
		"MIME-Version: 1.0\r\n",
		"\r\n\r\nSee you at 10.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Bcc:") {
		t.Error("empty Bcc should not produce a header")
	}
}

func TestBuildRawMessageHTML(t *testing.T) {
	raw, err := buildRawMessage(&SendRequest{
		To:      []string{"a@example.com"},
		Subject: "Hi",
		Body:    "<p>Hello</p>",
		IsHTML:  true,
	})
	if err != nil {
		t.Fatalf("buildRawMessage() error = %v", err)
	}
	if !strings.Contains(decodeRaw(t, raw), "Content-Type: text/html") {
		t.Error("HTML request should set text/html content type")
	}
}

func TestBuildRawMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *SendRequest
	}{
		{"nil request", nil},
		{"no recipients", &SendRequest{Subject: "s", Body: "b"}},
		{"no subject", &SendRequest{To: []string{"a@example.com"}, Body: "b"}},
		{"no body", &SendRequest{To: []string{"a@example.com"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRawMessage(tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEncodeRFC2047(t *testing.T) {
	if got := encodeRFC2047("plain ascii subject"); got != "plain ascii subject" {
		t.Errorf("ASCII subject should pass through, got %q", got)
	}
	got := encodeRFC2047("Grüße aus Köln")
	if !strings.HasPrefix(got, "=?UTF-8?") {
		t.Errorf("non-ASCII subject should be RFC 2047 encoded, got %q", got)
	}
}

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestDecodeBodyPrefersPlainText(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: b64url("<p>hello</p>")},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: b64url("hello")},
			},
		},
	}

	body, isHTML := decodeBody(payload)
	if body != "hello" || isHTML {
		t.Errorf("decodeBody() = (%q, %v), want (hello, false)", body, isHTML)
	}
}

func TestDecodeBodyFallsBackToHTML(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/html",
		Body:     &gmail.MessagePartBody{Data: b64url("<p>only html</p>")},
	}

	body, isHTML := decodeBody(payload)
	if body != "<p>only html</p>" || !isHTML {
		t.Errorf("decodeBody() = (%q, %v), want (<p>only html</p>, true)", body, isHTML)
	}
}

func TestDecodeBodyNestedMultipart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						// Unpadded data, as the Gmail API returns it.
						Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("nested body"))},
					},
				},
			},
			{
				MimeType: "application/pdf",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1"},
			},
		},
	}

	body, _ := decodeBody(payload)
	if body != "nested body" {
		t.Errorf("decodeBody() = %q, want %q", body, "nested body")
	}
}

func TestDecodeBodyEmpty(t *testing.T) {
	if body, _ := decodeBody(nil); body != "" {
		t.Errorf("decodeBody(nil) = %q", body)
	}
}

func TestHeaderValue(t *testing.T) {
	part := &gmail.MessagePart{
		Headers: []*gmail.MessagePartHeader{
			{Name: "Subject", Value: "Hi"},
			{Name: "FROM", Value: "jane@example.com"},
		},
	}
	if got := headerValue(part, "subject"); got != "Hi" {
		t.Errorf("headerValue(subject) = %q", got)
	}
	if got := headerValue(part, "From"); got != "jane@example.com" {
		t.Errorf("headerValue(From) = %q", got)
	}
	if got := headerValue(part, "Date"); got != "" {
		t.Errorf("headerValue(Date) = %q, want empty", got)
	}
}
