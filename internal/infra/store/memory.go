package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/repository"
	"ai-chat-backend/internal/infra/status"
)

// Compile-time check
var _ repository.Store = (*MemoryStore)(nil)

// MemoryStore holds all chats and jobs for the process lifetime. One mutex
// guards the whole store; every job transition and every message append is
// applied under it, so concurrent jobs against the same chat serialize their
// appends and no observer ever sees a half-applied update.
//
// The hub receives every applied job update inside the same critical
// section, which keeps hub replay order identical to job log order.
type MemoryStore struct {
	mu    sync.Mutex
	chats map[string]*model.Chat
	order []string // chat ids in creation order
	jobs  map[string]*model.Job
	hub   *status.Hub
}

// NewMemoryStore creates the store. hub may be nil when no observer is wired
// (unit tests of the store itself).
func NewMemoryStore(hub *status.Hub) *MemoryStore {
	return &MemoryStore{
		chats: make(map[string]*model.Chat),
		jobs:  make(map[string]*model.Job),
		hub:   hub,
	}
}

func (s *MemoryStore) CreateChat(ctx context.Context, provider, modelName, agentID, title string) (*model.Chat, error) {
	id := fmt.Sprintf("chat_%s", uuid.NewString())
	chat := model.NewChat(id, provider, modelName, agentID, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[id] = chat
	s.order = append(s.order, id)
	return chat.Clone(), nil
}

func (s *MemoryStore) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	return chat.Clone(), nil
}

// ListChats returns a snapshot in creation order.
func (s *MemoryStore) ListChats(ctx context.Context) ([]*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chats[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, chatID string, role model.MessageRole, content string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return model.Message{}, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return chat.AddMessage(role, content), nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, chatID, prompt string, metadata map[string]any) (*model.Job, error) {
	id := fmt.Sprintf("job_%s", ulid.Make().String())
	job := model.NewJob(id, chatID, prompt, metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = job
	if s.hub != nil {
		s.hub.Register(id)
	}
	return job.Clone(), nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return job.Clone(), nil
}

// UpdateJob applies a partial patch to a job. It is the sole mutation path
// for a job after creation. Transitions out of a terminal status are
// rejected with domain.ErrTerminalJob.
func (s *MemoryStore) UpdateJob(ctx context.Context, id string, patch repository.JobPatch) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if job.Status.Terminal() && patch.Status != nil && *patch.Status != job.Status {
		return nil, fmt.Errorf("job %s is %s: %w", id, job.Status, domain.ErrTerminalJob)
	}

	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.AppendLog != "" {
		job.Logs = append(job.Logs, patch.AppendLog)
	}
	if patch.ResultMessage != nil {
		job.ResultMessage = *patch.ResultMessage
	}
	if patch.OutputDocxPath != nil {
		job.OutputDocxPath = *patch.OutputDocxPath
	}
	if patch.OutputPayload != nil {
		job.OutputPayload = patch.OutputPayload
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	job.UpdatedAt = time.Now()

	if s.hub != nil {
		s.hub.Apply(id, status.Update{
			Status:    patch.Status,
			AppendLog: patch.AppendLog,
			Result:    patch.OutputPayload,
		})
	}
	return job.Clone(), nil
}
