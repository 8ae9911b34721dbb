package chat

import (
	"context"
	"testing"

	chat "google.golang.org/api/chat/v1"
)

func TestNormalizeSpaceName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"spaces/AAAA1234", "spaces/AAAA1234", false},
		{"AAAA1234", "spaces/AAAA1234", false},
		{"", "", true},
		{"users/123/spaces/x", "", true},
	}

	for _, tt := range tests {
		got, err := normalizeSpaceName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("normalizeSpaceName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeSpaceName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertMessage(t *testing.T) {
	msg := convertMessage(&chat.Message{
		Name:       "spaces/A/messages/B.C",
		Text:       "hello",
		CreateTime: "2026-03-01T09:00:00Z",
		Sender:     &chat.User{Name: "users/123", DisplayName: "Jane"},
		Thread:     &chat.Thread{Name: "spaces/A/threads/T"},
	})

	if msg.Sender != "Jane" {
		t.Errorf("Sender = %q, want display name", msg.Sender)
	}
	if msg.Thread != "spaces/A/threads/T" {
		t.Errorf("Thread = %q", msg.Thread)
	}

	noName := convertMessage(&chat.Message{Sender: &chat.User{Name: "users/123"}})
	if noName.Sender != "users/123" {
		t.Errorf("Sender fallback = %q, want resource name", noName.Sender)
	}
}

func TestSendMessageValidation(t *testing.T) {
	c := &Client{}
	if _, err := c.SendMessage(context.Background(), "spaces/A", ""); err == nil {
		t.Error("empty text should fail before any API call")
	}
	if _, err := c.SendMessage(context.Background(), "", "hi"); err == nil {
		t.Error("empty space should fail before any API call")
	}
}

func TestNewClientRequiresProvider(t *testing.T) {
	if _, err := NewClientForAccount(context.Background(), "default", nil); err == nil {
		t.Error("NewClientForAccount with nil provider should fail")
	}
}
