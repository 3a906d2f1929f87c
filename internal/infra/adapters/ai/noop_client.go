package ai

import (
	"context"
	"fmt"
	"time"

	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ModelClient = (*NoopClient)(nil)

// NoopClient implements adapter.ModelClient for local/dev use. It echoes a
// canned reply instead of calling a real provider.
type NoopClient struct {
	model string
}

func NewNoopClient(model string) *NoopClient {
	return &NoopClient{model: model}
}

func (n *NoopClient) Provider() string { return "noop" }
func (n *NoopClient) Model() string    { return n.model }

func (n *NoopClient) Chat(ctx context.Context, messages []adapter.Message) (string, error) {
	text, _, err := n.ChatWithUsage(ctx, messages)
	return text, err
}

func (n *NoopClient) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	// Simulate slight processing time and respect ctx.
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	text := fmt.Sprintf("noop reply to: %s", last)
	return text, adapter.Usage{PromptTokens: len(messages), CompletionTokens: 1, TotalTokens: len(messages) + 1}, nil
}

func (n *NoopClient) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return len(messages), nil
}
