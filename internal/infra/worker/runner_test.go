package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/adapter"
	"ai-chat-backend/internal/infra/store"
)

type fakeClient struct {
	mu         sync.Mutex
	reply      string
	err        error
	noUsage    bool
	calls      [][]adapter.Message
	countCalls int
	latency    time.Duration
}

func (f *fakeClient) Provider() string { return "fake" }
func (f *fakeClient) Model() string    { return "fake-1" }

func (f *fakeClient) Chat(ctx context.Context, msgs []adapter.Message) (string, error) {
	text, _, err := f.ChatWithUsage(ctx, msgs)
	return text, err
}

func (f *fakeClient) ChatWithUsage(ctx context.Context, msgs []adapter.Message) (string, adapter.Usage, error) {
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]adapter.Message, len(msgs))
	copy(cp, msgs)
	f.calls = append(f.calls, cp)
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	if f.noUsage {
		return f.reply, adapter.Usage{}, nil
	}
	return f.reply, adapter.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, nil
}

func (f *fakeClient) CountTokens(ctx context.Context, msgs []adapter.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return len(msgs), nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeFactory struct {
	client adapter.ModelClient
	err    error
}

func (f *fakeFactory) Create(provider, model string) (adapter.ModelClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type fakeAgent struct {
	id     string
	result adapter.AgentResult
	err    error
}

func (a *fakeAgent) ID() string          { return a.id }
func (a *fakeAgent) Name() string        { return a.id }
func (a *fakeAgent) Description() string { return "test agent" }

func (a *fakeAgent) Run(ctx context.Context, chat *model.Chat, client adapter.ModelClient, jobID, prompt string) (adapter.AgentResult, error) {
	if a.err != nil {
		return adapter.AgentResult{}, a.err
	}
	return a.result, nil
}

type fakeRegistry struct {
	agents map[string]adapter.Agent
}

func (r *fakeRegistry) Resolve(id string) (adapter.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotRegistered)
	}
	return a, nil
}

func (r *fakeRegistry) List() []adapter.Agent {
	out := make([]adapter.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

var _ adapter.ModelClient = (*fakeClient)(nil)
var _ adapter.ClientFactory = (*fakeFactory)(nil)
var _ adapter.Agent = (*fakeAgent)(nil)
var _ adapter.AgentRegistry = (*fakeRegistry)(nil)

func waitJob(t *testing.T, r *Runner, jobID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx, jobID); err != nil {
		t.Fatalf("Wait(%s): %v", jobID, err)
	}
}

func TestDirectChatJobCompletes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "Hi there!"}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "Hello", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("status %s, error %q", got.Status, got.Error)
	}
	if got.ResultMessage != "Hi there!" {
		t.Errorf("result message %q", got.ResultMessage)
	}
	if got.OutputPayload["text"] != "Hi there!" {
		t.Errorf("payload %v", got.OutputPayload)
	}
	wantLogs := []string{"Job started", "Normal chat completed"}
	if len(got.Logs) != 2 || got.Logs[0] != wantLogs[0] || got.Logs[1] != wantLogs[1] {
		t.Errorf("logs %v", got.Logs)
	}

	c, _ := s.GetChat(ctx, chat.ID)
	if len(c.Messages) != 2 {
		t.Fatalf("want 2 messages, got %d", len(c.Messages))
	}
	if c.Messages[0].Role != model.RoleUser || c.Messages[0].Content != "Hello" {
		t.Errorf("first message %+v", c.Messages[0])
	}
	if c.Messages[1].Role != model.RoleAssistant || c.Messages[1].Content != "Hi there!" {
		t.Errorf("second message %+v", c.Messages[1])
	}
}

func TestDirectChatSendsHistoryPlusPrompt(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "second reply"}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	_, _ = s.AppendMessage(ctx, chat.ID, model.RoleUser, "earlier question")
	_, _ = s.AppendMessage(ctx, chat.ID, model.RoleAssistant, "earlier answer")

	job, _ := s.CreateJob(ctx, chat.ID, "follow-up", nil)
	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.calls) != 1 {
		t.Fatalf("want 1 model call, got %d", len(client.calls))
	}
	sent := client.calls[0]
	if len(sent) != 3 {
		t.Fatalf("want history(2)+prompt, got %d messages", len(sent))
	}
	if sent[0].Content != "earlier question" || sent[1].Content != "earlier answer" {
		t.Errorf("history not forwarded: %+v", sent[:2])
	}
	if sent[2].Role != "user" || sent[2].Content != "follow-up" {
		t.Errorf("prompt turn %+v", sent[2])
	}
}

func TestDirectChatCountsTokensWhenUsageMissing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "ok", noUsage: true}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "Hello", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("status %s (%s)", got.Status, got.Error)
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.countCalls != 1 {
		t.Errorf("want 1 CountTokens call, got %d", client.countCalls)
	}
}

func TestDirectChatSkipsCountWhenUsageReported(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "ok"}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "Hello", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.countCalls != 0 {
		t.Errorf("CountTokens called %d times despite reported usage", client.countCalls)
	}
}

func TestModelErrorFailsJob(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{err: errors.New("upstream 500")}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "Hello", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("status %s", got.Status)
	}
	if got.Error == "" {
		t.Error("error field empty")
	}
	if got.ResultMessage != "" || got.OutputPayload != nil {
		t.Errorf("failed job carries result: msg=%q payload=%v", got.ResultMessage, got.OutputPayload)
	}
	if len(got.Logs) == 0 || !strings.HasPrefix(got.Logs[len(got.Logs)-1], "Job failed:") {
		t.Errorf("logs %v", got.Logs)
	}

	c, _ := s.GetChat(ctx, chat.ID)
	if len(c.Messages) != 0 {
		t.Errorf("failed job appended messages: %v", c.Messages)
	}
}

func TestFactoryErrorFailsJob(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	r := NewRunner(s, &fakeFactory{err: domain.ErrUnsupportedProvider}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "nope", "x", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "Hello", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("status %s", got.Status)
	}
	// The job passes through running before client construction, so even a
	// factory failure leaves the full queued -> running -> failed trail.
	if len(got.Logs) != 2 || got.Logs[0] != "Job started" || !strings.HasPrefix(got.Logs[1], "Job failed:") {
		t.Errorf("logs %v", got.Logs)
	}
}

func TestAgentJobCompletesWithArtifact(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "irrelevant"}
	agent := &fakeAgent{
		id:     "report_writer",
		result: adapter.AgentResult{Text: "report body", OutputDocxPath: "/tmp/out.docx"},
	}
	reg := &fakeRegistry{agents: map[string]adapter.Agent{agent.id: agent}}
	r := NewRunner(s, &fakeFactory{client: client}, reg, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "report_writer", "")
	job, _ := s.CreateJob(ctx, chat.ID, "write the report", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("status %s, error %q", got.Status, got.Error)
	}
	if got.OutputDocxPath != "/tmp/out.docx" {
		t.Errorf("artifact path %q", got.OutputDocxPath)
	}
	if got.OutputPayload["output_docx_path"] != "/tmp/out.docx" || got.OutputPayload["text"] != "report body" {
		t.Errorf("payload %v", got.OutputPayload)
	}

	c, _ := s.GetChat(ctx, chat.ID)
	if len(c.Messages) != 1 || c.Messages[0].Role != model.RoleAssistant {
		t.Errorf("agent job messages %v", c.Messages)
	}
}

func TestUnknownAgentFailsJob(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	r := NewRunner(s, &fakeFactory{client: &fakeClient{}}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "no_such_agent", "")
	job, _ := s.CreateJob(ctx, chat.ID, "go", nil)

	r.Launch(job.ID)
	waitJob(t, r, job.ID)

	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("status %s", got.Status)
	}
	c, _ := s.GetChat(ctx, chat.ID)
	if len(c.Messages) != 0 {
		t.Errorf("failed agent job appended messages: %v", c.Messages)
	}
}

func TestConcurrentJobsOnOneChat(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "ok", latency: 20 * time.Millisecond}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	jobA, _ := s.CreateJob(ctx, chat.ID, "first", nil)
	jobB, _ := s.CreateJob(ctx, chat.ID, "second", nil)

	r.Launch(jobA.ID)
	r.Launch(jobB.ID)
	waitJob(t, r, jobA.ID)
	waitJob(t, r, jobB.ID)

	for _, id := range []string{jobA.ID, jobB.ID} {
		j, _ := s.GetJob(ctx, id)
		if j.Status != model.JobStatusCompleted {
			t.Errorf("job %s: %s (%s)", id, j.Status, j.Error)
		}
	}
	c, _ := s.GetChat(ctx, chat.ID)
	if len(c.Messages) != 4 {
		t.Errorf("want 4 messages (2 per job), got %d", len(c.Messages))
	}
}

func TestLaunchSameJobTwiceRunsOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	client := &fakeClient{reply: "ok", latency: 20 * time.Millisecond}
	r := NewRunner(s, &fakeFactory{client: client}, &fakeRegistry{}, nil)

	chat, _ := s.CreateChat(ctx, "fake", "fake-1", "", "")
	job, _ := s.CreateJob(ctx, chat.ID, "once", nil)

	r.Launch(job.ID)
	r.Launch(job.ID)
	waitJob(t, r, job.ID)
	r.Shutdown()

	if n := client.callCount(); n != 1 {
		t.Errorf("want 1 model call, got %d", n)
	}
}

func TestWaitUnknownJobReturnsImmediately(t *testing.T) {
	r := NewRunner(store.NewMemoryStore(nil), &fakeFactory{}, &fakeRegistry{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Wait(ctx, "job_never_launched"); err != nil {
		t.Errorf("Wait: %v", err)
	}
}
