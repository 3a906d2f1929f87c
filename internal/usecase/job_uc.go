package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/repository"
	"ai-chat-backend/internal/infra/logging"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// Launcher is the fire-and-forget scheduling contract the runner fulfils.
type Launcher interface {
	Launch(jobID string)
}

type JobUseCase interface {
	// Create registers a job for the chat and schedules its execution.
	// The returned job is the initial (queued) snapshot.
	Create(ctx context.Context, chatID, prompt string) (*model.Job, error)
	Get(ctx context.Context, jobID string) (*model.Job, error)

	// ArtifactPath resolves the generated document for a job. It fails with
	// domain.ErrNotFound when the job is unknown, produced no document, or
	// the file is gone from disk.
	ArtifactPath(ctx context.Context, jobID string) (string, error)
}

type jobUC struct {
	store  repository.Store
	runner Launcher
	log    *zerolog.Logger
}

func NewJobUseCase(store repository.Store, runner Launcher, log *zerolog.Logger) *jobUC {
	return &jobUC{store: store, runner: runner, log: log}
}

func (u *jobUC) Create(ctx context.Context, chatID, prompt string) (*model.Job, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	ctx = logging.WithChatID(ctx, chatID)
	defer logging.TraceDuration(logging.With(ctx, u.log), "JobUC.Create")()

	chat, err := u.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	job, err := u.store.CreateJob(ctx, chatID, prompt, map[string]any{
		"chat_id":  chatID,
		"agent_id": chat.AgentID,
	})
	if err != nil {
		return nil, err
	}

	logging.With(logging.WithJobID(ctx, job.ID), u.log).Info().
		Str("agent_id", chat.AgentID).Msg("job created")
	u.runner.Launch(job.ID)
	return job, nil
}

func (u *jobUC) Get(ctx context.Context, jobID string) (*model.Job, error) {
	return u.store.GetJob(ctx, jobID)
}

func (u *jobUC) ArtifactPath(ctx context.Context, jobID string) (string, error) {
	job, err := u.store.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.OutputDocxPath == "" {
		return "", fmt.Errorf("job %s has no generated document: %w", jobID, domain.ErrNotFound)
	}
	if _, err := os.Stat(job.OutputDocxPath); err != nil {
		return "", fmt.Errorf("document for job %s missing on disk: %w", jobID, domain.ErrNotFound)
	}
	return job.OutputDocxPath, nil
}
