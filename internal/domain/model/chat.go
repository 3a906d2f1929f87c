package model

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one turn within a chat. Immutable once appended.
type Message struct {
	Role      MessageRole
	Content   string
	Timestamp time.Time
}

// Chat is the aggregate root for a conversation against one provider/model.
// A non-empty AgentID switches every job created under this chat into agent
// mode. Messages keep insertion order and are never reordered or removed.
type Chat struct {
	ID        string
	Provider  string
	Model     string
	AgentID   string
	Title     string
	Messages  []Message
	CreatedAt time.Time
}

func NewChat(id, provider, modelName, agentID, title string) *Chat {
	return &Chat{
		ID:        id,
		Provider:  provider,
		Model:     modelName,
		AgentID:   agentID,
		Title:     title,
		Messages:  make([]Message, 0, 8),
		CreatedAt: time.Now(),
	}
}

func (c *Chat) AddMessage(role MessageRole, content string) Message {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.Messages = append(c.Messages, msg)
	return msg
}

// Clone returns a deep copy so readers never observe later mutation.
func (c *Chat) Clone() *Chat {
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}
