package status

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/model"
)

// Snapshot is a point-in-time copy of one job's streamable state.
type Snapshot struct {
	Status model.JobStatus
	Logs   []string
	Result map[string]any
}

// Update carries one applied job transition into the hub. Nil/empty fields
// are ignored, mirroring the store's patch semantics.
type Update struct {
	Status    *model.JobStatus
	AppendLog string
	Result    map[string]any
}

type entry struct {
	status model.JobStatus
	logs   []string
	result map[string]any
	subs   map[string]chan struct{}
}

// Hub holds the streamable view of every job and wakes subscribers whenever
// the store applies an update. The store is the system of record; the hub
// only exists so that pollers and event streams never touch the store's
// mutation path. Notifications are coalesced wake-ups, not payloads: a
// subscriber reads Snapshot after each wake-up and tracks its own cursor,
// so a slow reader misses nothing.
type Hub struct {
	mu      sync.RWMutex
	entries map[string]*entry
	subBuf  int
	logger  *zerolog.Logger
}

// NewHub creates the hub. subscriberBuffer is the pending wake-up capacity
// per subscription; values below 1 fall back to 1 (coalescing).
func NewHub(subscriberBuffer int, logger *zerolog.Logger) *Hub {
	if subscriberBuffer < 1 {
		subscriberBuffer = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		entries: make(map[string]*entry),
		subBuf:  subscriberBuffer,
		logger:  logger,
	}
}

// Register creates the entry for a new job with status queued, no logs and
// no result. Registering an existing id is a no-op.
func (h *Hub) Register(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.entries[jobID]; ok {
		return
	}
	h.entries[jobID] = &entry{
		status: model.JobStatusQueued,
		logs:   make([]string, 0, 4),
		subs:   make(map[string]chan struct{}),
	}
}

// Apply records an update and wakes all subscribers of the job. The send is
// non-blocking: a subscriber that already has a pending wake-up does not get
// another, it will observe the change on its next Snapshot read.
func (h *Hub) Apply(jobID string, u Update) {
	h.mu.Lock()
	e, ok := h.entries[jobID]
	if !ok {
		h.mu.Unlock()
		h.logger.Warn().Str("job_id", jobID).Msg("update for unregistered job dropped")
		return
	}
	if u.Status != nil {
		e.status = *u.Status
	}
	if u.AppendLog != "" {
		e.logs = append(e.logs, u.AppendLog)
	}
	if u.Result != nil {
		e.result = u.Result
	}
	targets := make([]chan struct{}, 0, len(e.subs))
	for _, ch := range e.subs {
		targets = append(targets, ch)
	}
	h.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- struct{}{}:
		default:
			// wake-up already pending
		}
	}
}

// Snapshot returns a copy of the entry. It never blocks the writer beyond
// the read lock and the returned slices/maps are detached from the hub.
func (h *Hub) Snapshot(jobID string) (Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[jobID]
	if !ok {
		return Snapshot{}, domain.ErrNotFound
	}
	snap := Snapshot{
		Status: e.status,
		Logs:   make([]string, len(e.logs)),
	}
	copy(snap.Logs, e.logs)
	if e.result != nil {
		snap.Result = make(map[string]any, len(e.result))
		for k, v := range e.result {
			snap.Result[k] = v
		}
	}
	return snap, nil
}

// Subscribe registers a wake-up channel for the job. Pending signals are
// bounded by the hub's buffer; the subscriber re-reads Snapshot after each.
// The subscription is removed automatically when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context, jobID string) (<-chan struct{}, string, error) {
	h.mu.Lock()
	e, ok := h.entries[jobID]
	if !ok {
		h.mu.Unlock()
		return nil, "", domain.ErrNotFound
	}
	subID := uuid.NewString()
	ch := make(chan struct{}, h.subBuf)
	e.subs[subID] = ch
	h.mu.Unlock()

	h.logger.Debug().Str("job_id", jobID).Str("sub_id", subID).Msg("subscriber added")

	go func() {
		<-ctx.Done()
		h.Unsubscribe(jobID, subID)
	}()

	return ch, subID, nil
}

// Unsubscribe removes a subscription. Safe to call more than once.
func (h *Hub) Unsubscribe(jobID, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[jobID]
	if !ok {
		return
	}
	if _, exists := e.subs[subID]; !exists {
		return
	}
	delete(e.subs, subID)
	h.logger.Debug().Str("job_id", jobID).Str("sub_id", subID).Msg("subscriber removed")
}
