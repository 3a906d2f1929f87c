package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/adapter"
	"ai-chat-backend/internal/domain/ports/repository"
	"ai-chat-backend/internal/infra/logging"
	"ai-chat-backend/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	Create(ctx context.Context, provider, modelName, agentID, title string) (*model.Chat, error)
	Get(ctx context.Context, chatID string) (*model.Chat, error)
	List(ctx context.Context) ([]*model.Chat, error)

	// SendMessage runs one synchronous model round trip over the full
	// history (direct-chat mode only; agent-bound chats must go through
	// jobs) and records both turns on the chat.
	SendMessage(ctx context.Context, chatID, prompt string) (string, error)

	// Providers lists the advertised provider -> models catalog.
	Providers() map[string][]string
}

type chatUC struct {
	store   repository.Store
	clients adapter.ClientFactory
	catalog map[string][]string
	log     *zerolog.Logger
}

func NewChatUseCase(store repository.Store, clients adapter.ClientFactory, catalog map[string][]string, log *zerolog.Logger) *chatUC {
	return &chatUC{store: store, clients: clients, catalog: catalog, log: log}
}

// Create stores a new chat. Provider/model values are not validated here;
// the client factory rejects them when the first call is made.
func (c *chatUC) Create(ctx context.Context, provider, modelName, agentID, title string) (*model.Chat, error) {
	chat, err := c.store.CreateChat(ctx, strings.TrimSpace(provider), strings.TrimSpace(modelName), strings.TrimSpace(agentID), title)
	if err != nil {
		return nil, err
	}
	logging.With(logging.WithChatID(ctx, chat.ID), c.log).Info().
		Str("provider", chat.Provider).Str("model", chat.Model).
		Str("agent_id", chat.AgentID).Msg("chat created")
	return chat, nil
}

func (c *chatUC) Get(ctx context.Context, chatID string) (*model.Chat, error) {
	return c.store.GetChat(ctx, chatID)
}

func (c *chatUC) List(ctx context.Context) ([]*model.Chat, error) {
	return c.store.ListChats(ctx)
}

func (c *chatUC) SendMessage(ctx context.Context, chatID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.ErrInvalidArgument
	}
	ctx = logging.WithChatID(ctx, chatID)
	defer logging.TraceDuration(logging.With(ctx, c.log), "ChatUC.SendMessage")()

	chat, err := c.store.GetChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if chat.AgentID != "" {
		return "", domain.ErrAgentModeChat
	}

	client, err := c.clients.Create(chat.Provider, chat.Model)
	if err != nil {
		return "", err
	}

	history := make([]adapter.Message, 0, len(chat.Messages)+1)
	for _, m := range chat.Messages {
		history = append(history, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, adapter.Message{Role: "user", Content: prompt})

	start := time.Now()
	reply, usage, err := client.ChatWithUsage(ctx, history)
	if err == nil && usage.TotalTokens == 0 {
		// Providers without usage reporting still feed the token metrics
		// through a local count.
		if n, cerr := client.CountTokens(ctx, history); cerr == nil {
			usage.PromptTokens = n
			usage.TotalTokens = n
		}
	}
	metrics.ObserveChatUsage(client.Provider(), client.Model(),
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		int(time.Since(start)/time.Millisecond), err == nil)
	if err != nil {
		return "", err
	}

	if _, err := c.store.AppendMessage(ctx, chatID, model.RoleUser, prompt); err != nil {
		return "", err
	}
	if _, err := c.store.AppendMessage(ctx, chatID, model.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (c *chatUC) Providers() map[string][]string {
	return c.catalog
}
