package agents

import (
	"context"

	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Agent = (*Summarizer)(nil)

const summarizerInstruction = "Summarize the conversation so far and answer the user's request " +
	"concisely. Keep the key facts, drop pleasantries."

// Summarizer condenses the conversation in a single model call. Text only,
// no artifact.
type Summarizer struct{}

func NewSummarizer() *Summarizer { return &Summarizer{} }

func (a *Summarizer) ID() string   { return "summarizer" }
func (a *Summarizer) Name() string { return "Summarizer" }
func (a *Summarizer) Description() string {
	return "Condenses the conversation and answers the prompt in one pass."
}

func (a *Summarizer) Run(ctx context.Context, chat *model.Chat, client adapter.ModelClient, jobID, prompt string) (adapter.AgentResult, error) {
	req := transcript(chat)
	req = append(req,
		adapter.Message{Role: "system", Content: summarizerInstruction},
		adapter.Message{Role: "user", Content: prompt},
	)
	text, err := client.Chat(ctx, req)
	if err != nil {
		return adapter.AgentResult{}, err
	}
	return adapter.AgentResult{Text: text}, nil
}
