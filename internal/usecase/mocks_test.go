package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"ai-chat-backend/internal/domain/ports/adapter"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockClient struct {
	mu         sync.Mutex
	reply      string
	err        error
	noUsage    bool
	calls      [][]adapter.Message
	countCalls int
}

func (m *mockClient) Provider() string { return "mock" }
func (m *mockClient) Model() string    { return "mock-1" }

func (m *mockClient) Chat(ctx context.Context, msgs []adapter.Message) (string, error) {
	text, _, err := m.ChatWithUsage(ctx, msgs)
	return text, err
}

func (m *mockClient) ChatWithUsage(ctx context.Context, msgs []adapter.Message) (string, adapter.Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]adapter.Message, len(msgs))
	copy(cp, msgs)
	m.calls = append(m.calls, cp)
	if m.err != nil {
		return "", adapter.Usage{}, m.err
	}
	if m.noUsage {
		return m.reply, adapter.Usage{}, nil
	}
	return m.reply, adapter.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}, nil
}

func (m *mockClient) CountTokens(ctx context.Context, msgs []adapter.Message) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	return len(msgs), nil
}

type mockFactory struct {
	client adapter.ModelClient
	err    error

	mu       sync.Mutex
	requests []string
}

func (m *mockFactory) Create(provider, model string) (adapter.ModelClient, error) {
	m.mu.Lock()
	m.requests = append(m.requests, provider+"/"+model)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.client, nil
}

type mockLauncher struct {
	mu       sync.Mutex
	launched []string
}

func (m *mockLauncher) Launch(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launched = append(m.launched, jobID)
}

var _ adapter.ModelClient = (*mockClient)(nil)
var _ adapter.ClientFactory = (*mockFactory)(nil)
var _ Launcher = (*mockLauncher)(nil)
