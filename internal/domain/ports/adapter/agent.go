package adapter

import (
	"context"

	"ai-chat-backend/internal/domain/model"
)

// AgentResult is what an agent run produces: the assistant text plus an
// optional path to a generated document on local disk.
type AgentResult struct {
	Text           string
	OutputDocxPath string
}

// Agent is the port for a named long-running task implementation.
type Agent interface {
	ID() string
	Name() string
	Description() string

	Run(ctx context.Context, chat *model.Chat, client ModelClient, jobID, prompt string) (AgentResult, error)
}

// AgentRegistry resolves agents by identifier. Unknown identifiers fail with
// domain.ErrAgentNotRegistered; there is no fallback agent.
type AgentRegistry interface {
	Resolve(id string) (Agent, error)
	List() []Agent
}
