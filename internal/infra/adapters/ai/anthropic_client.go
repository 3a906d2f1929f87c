package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ModelClient = (*AnthropicClient)(nil)

// AnthropicClient implements adapter.ModelClient over the Messages API.
// Base URL defaults to https://api.anthropic.com (configurable).
type AnthropicClient struct {
	apiKey string
	base   string
	model  string
	maxOut int
	client *http.Client
}

func NewAnthropicClient(apiKey, baseURL, model string, maxOut int) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: empty api key")
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	if maxOut <= 0 {
		maxOut = 2048
	}
	return &AnthropicClient{
		apiKey: apiKey,
		base:   strings.TrimRight(baseURL, "/"),
		model:  model,
		maxOut: maxOut,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (a *AnthropicClient) Provider() string { return "anthropic" }
func (a *AnthropicClient) Model() string    { return a.model }

func (a *AnthropicClient) Chat(ctx context.Context, messages []adapter.Message) (string, error) {
	text, _, err := a.ChatWithUsage(ctx, messages)
	return text, err
}

func (a *AnthropicClient) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("anthropic: no messages")
	}

	// The Messages API takes system prompts out of band; only user/assistant
	// turns go into the messages array.
	var system string
	turns := make([]adapter.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		turns = append(turns, m)
	}

	reqBody := struct {
		Model     string            `json:"model"`
		MaxTokens int               `json:"max_tokens"`
		System    string            `json:"system,omitempty"`
		Messages  []adapter.Message `json:"messages"`
	}{Model: a.model, MaxTokens: a.maxOut, System: system, Messages: turns}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return "", adapter.Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", adapter.Usage{}, fmt.Errorf("anthropic http %d", resp.StatusCode)
	}

	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", adapter.Usage{}, err
	}
	usage := adapter.Usage{
		PromptTokens:     payload.Usage.InputTokens,
		CompletionTokens: payload.Usage.OutputTokens,
		TotalTokens:      payload.Usage.InputTokens + payload.Usage.OutputTokens,
	}
	for _, c := range payload.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text, usage, nil
		}
	}
	return "", usage, errors.New("anthropic: no text content")
}

// CountTokens approximates prompt tokens; Anthropic has no local tokenizer,
// so this uses the usual ~4 chars per token heuristic.
func (a *AnthropicClient) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars/4 + len(messages)*4, nil
}
