package adapter

import "context"

// Message represents a chat message on the wire.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelClient is the port for one provider/model pair. A client is bound to
// its model at construction; every call is a single round trip.
type ModelClient interface {
	Provider() string
	Model() string

	// Chat returns only the assistant text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	ChatWithUsage(ctx context.Context, messages []Message) (string, Usage, error)

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, messages []Message) (int, error)
}

// ClientFactory builds a ModelClient from a provider/model name pair.
// Empty names fail with domain.ErrInvalidArgument, names outside the
// recognized set with domain.ErrUnsupportedProvider.
type ClientFactory interface {
	Create(provider, model string) (ModelClient, error)
}
