package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/adapter"
	"ai-chat-backend/internal/domain/ports/repository"
	"ai-chat-backend/internal/infra/logging"
	"ai-chat-backend/internal/infra/metrics"
)

// Runner advances one job from queued to a terminal state, exactly once,
// without blocking the caller. Every launched job gets its own goroutine —
// there is no queue, no admission control and no retry. A handle per job is
// retained so callers (and tests) can await completion.
type Runner struct {
	store   repository.Store
	clients adapter.ClientFactory
	agents  adapter.AgentRegistry
	log     *zerolog.Logger

	mu      sync.Mutex
	handles map[string]chan struct{}
	wg      sync.WaitGroup
}

func NewRunner(store repository.Store, clients adapter.ClientFactory, agents adapter.AgentRegistry, log *zerolog.Logger) *Runner {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Runner{
		store:   store,
		clients: clients,
		agents:  agents,
		log:     log,
		handles: make(map[string]chan struct{}),
	}
}

// Launch schedules the job fire-and-forget and returns immediately.
func (r *Runner) Launch(jobID string) {
	done := make(chan struct{})
	r.mu.Lock()
	if _, running := r.handles[jobID]; running {
		r.mu.Unlock()
		r.log.Warn().Str("job_id", jobID).Msg("job already launched")
		return
	}
	r.handles[jobID] = done
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)
		r.run(context.Background(), jobID)
	}()
}

// Wait blocks until the job's run goroutine finishes or ctx is cancelled.
// Unknown (never launched) job ids return immediately.
func (r *Runner) Wait(ctx context.Context, jobID string) error {
	r.mu.Lock()
	done, ok := r.handles[jobID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits for all in-flight jobs to finish.
func (r *Runner) Shutdown() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, jobID string) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, r.log)

	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("launched job not found")
		return
	}
	ctx = logging.WithChatID(ctx, job.ChatID)
	log = logging.With(ctx, r.log)

	chat, err := r.store.GetChat(ctx, job.ChatID)
	if err != nil {
		log.Error().Err(err).Msg("chat for launched job not found")
		return
	}

	mode := "chat"
	if chat.AgentID != "" {
		mode = "agent"
	}
	log.Info().Str("mode", mode).Msg("processing job")
	start := time.Now()

	err = r.handle(ctx, job, chat)
	elapsed := time.Since(start)

	finalStatus := model.JobStatusCompleted
	if err != nil {
		finalStatus = model.JobStatusFailed
		line := fmt.Sprintf("Job failed: %v", err)
		errText := err.Error()
		if _, uerr := r.store.UpdateJob(ctx, jobID, repository.JobPatch{
			Status:    &finalStatus,
			AppendLog: line,
			Error:     &errText,
		}); uerr != nil {
			log.Error().Err(uerr).Msg("failed to record job failure")
		}
		log.Error().Err(err).Msg("job failed")
	}

	metrics.IncJob(string(finalStatus))
	metrics.ObserveJobDuration(mode, elapsed)
	log.Info().Str("status", string(finalStatus)).Dur("duration", elapsed).Msg("job finished")
}

// handle contains the core logic for a single job. Any returned error sends
// the job to failed; the terminal completed update happens inside the mode
// branch since the payload differs between them.
func (r *Runner) handle(ctx context.Context, job *model.Job, chat *model.Chat) error {
	// Transition to running first so the observed lifecycle is always
	// queued -> running -> terminal, even when client construction fails.
	running := model.JobStatusRunning
	if _, err := r.store.UpdateJob(ctx, job.ID, repository.JobPatch{
		Status:    &running,
		AppendLog: "Job started",
	}); err != nil {
		return err
	}

	client, err := r.clients.Create(chat.Provider, chat.Model)
	if err != nil {
		return err
	}

	if chat.AgentID == "" {
		return r.runDirectChat(ctx, job, chat, client)
	}
	return r.runAgent(ctx, job, chat, client)
}

func (r *Runner) runDirectChat(ctx context.Context, job *model.Job, chat *model.Chat, client adapter.ModelClient) error {
	history := make([]adapter.Message, 0, len(chat.Messages)+1)
	for _, m := range chat.Messages {
		history = append(history, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, adapter.Message{Role: "user", Content: job.Prompt})

	callStart := time.Now()
	text, usage, err := client.ChatWithUsage(ctx, history)
	latency := time.Since(callStart)
	if err == nil && usage.TotalTokens == 0 {
		// Not every provider reports usage; fall back to a local count so
		// the token metrics stay populated.
		if n, cerr := client.CountTokens(ctx, history); cerr == nil {
			usage.PromptTokens = n
			usage.TotalTokens = n
		}
	}
	metrics.ObserveChatUsage(client.Provider(), client.Model(),
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		int(latency/time.Millisecond), err == nil)
	if err != nil {
		return fmt.Errorf("model call: %w", err)
	}

	// Record the exchange on the chat: the prompt as a user turn, then the
	// reply. Both appends serialize through the store.
	if _, err := r.store.AppendMessage(ctx, chat.ID, model.RoleUser, job.Prompt); err != nil {
		return err
	}
	if _, err := r.store.AppendMessage(ctx, chat.ID, model.RoleAssistant, text); err != nil {
		return err
	}

	completed := model.JobStatusCompleted
	_, err = r.store.UpdateJob(ctx, job.ID, repository.JobPatch{
		Status:        &completed,
		AppendLog:     "Normal chat completed",
		ResultMessage: &text,
		OutputPayload: map[string]any{"text": text},
	})
	return err
}

func (r *Runner) runAgent(ctx context.Context, job *model.Job, chat *model.Chat, client adapter.ModelClient) error {
	agent, err := r.agents.Resolve(chat.AgentID)
	if err != nil {
		return err
	}
	logging.With(ctx, r.log).Info().Str("agent", agent.ID()).Msg("running agent")

	result, err := agent.Run(ctx, chat, client, job.ID, job.Prompt)
	if err != nil {
		return fmt.Errorf("agent %s: %w", agent.ID(), err)
	}

	if _, err := r.store.AppendMessage(ctx, chat.ID, model.RoleAssistant, result.Text); err != nil {
		return err
	}

	completed := model.JobStatusCompleted
	patch := repository.JobPatch{
		Status:        &completed,
		AppendLog:     "Agent job completed",
		ResultMessage: &result.Text,
		OutputPayload: map[string]any{
			"text":             result.Text,
			"output_docx_path": result.OutputDocxPath,
		},
	}
	if result.OutputDocxPath != "" {
		patch.OutputDocxPath = &result.OutputDocxPath
	}
	_, err = r.store.UpdateJob(ctx, job.ID, patch)
	return err
}
