package ai

import (
	"context"
	"errors"
	"testing"

	"ai-chat-backend/internal/domain/ports/adapter"
)

func TestNoopClientEchoesLastMessage(t *testing.T) {
	c := NewNoopClient("noop-1")
	text, usage, err := c.ChatWithUsage(context.Background(), []adapter.Message{
		{Role: "user", Content: "first"},
		{Role: "user", Content: "second"},
	})
	if err != nil {
		t.Fatalf("ChatWithUsage: %v", err)
	}
	if text != "noop reply to: second" {
		t.Errorf("reply %q", text)
	}
	if usage.TotalTokens != 3 {
		t.Errorf("usage %+v", usage)
	}
}

func TestNoopClientHonorsContext(t *testing.T) {
	c := NewNoopClient("noop-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Chat(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
