package repository

import (
	"context"

	"ai-chat-backend/internal/domain/model"
)

// JobPatch carries the fields of a partial job update. Nil pointer fields are
// left untouched; AppendLog adds one line when non-empty.
type JobPatch struct {
	Status         *model.JobStatus
	AppendLog      string
	ResultMessage  *string
	OutputDocxPath *string
	OutputPayload  map[string]any
	Error          *string
}

// Store is the single authoritative holder of all chats and jobs for the
// process lifetime. UpdateJob is the sole mutation path for a job after
// creation and must be applied under mutual exclusion so that concurrent
// observers never see a half-applied update.
type Store interface {
	CreateChat(ctx context.Context, provider, modelName, agentID, title string) (*model.Chat, error)
	GetChat(ctx context.Context, id string) (*model.Chat, error)
	ListChats(ctx context.Context) ([]*model.Chat, error)
	AppendMessage(ctx context.Context, chatID string, role model.MessageRole, content string) (model.Message, error)

	CreateJob(ctx context.Context, chatID, prompt string, metadata map[string]any) (*model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	UpdateJob(ctx context.Context, id string, patch JobPatch) (*model.Job, error)
}
