package agents

import (
	"fmt"
	"sort"
	"sync"

	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AgentRegistry = (*Registry)(nil)

// Registry maps agent identifiers to implementations. Resolution of an
// unknown identifier is a hard failure; there is no fallback agent.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]adapter.Agent
}

func NewRegistry(agents ...adapter.Agent) *Registry {
	r := &Registry{agents: make(map[string]adapter.Agent, len(agents))}
	for _, a := range agents {
		r.agents[a.ID()] = a
	}
	return r
}

func (r *Registry) Register(a adapter.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.ID()]; exists {
		return fmt.Errorf("agent %q already registered", a.ID())
	}
	r.agents[a.ID()] = a
	return nil
}

func (r *Registry) Resolve(id string) (adapter.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotRegistered)
	}
	return a, nil
}

func (r *Registry) List() []adapter.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]adapter.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
