package model

import "time"

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one unit of asynchronous work tied to a chat and a prompt.
// Lifecycle: queued -> running -> completed | failed, strictly monotonic.
// Result fields are set only on completed, Error only on failed.
type Job struct {
	ID     string
	ChatID string
	Prompt string

	Status JobStatus
	Logs   []string

	ResultMessage  string
	OutputDocxPath string
	OutputPayload  map[string]any

	Error    string
	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewJob(id, chatID, prompt string, metadata map[string]any) *Job {
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now()
	return &Job{
		ID:        id,
		ChatID:    chatID,
		Prompt:    prompt,
		Status:    JobStatusQueued,
		Logs:      make([]string, 0, 4),
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy for snapshot reads.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Logs = make([]string, len(j.Logs))
	copy(cp.Logs, j.Logs)
	if j.OutputPayload != nil {
		cp.OutputPayload = make(map[string]any, len(j.OutputPayload))
		for k, v := range j.OutputPayload {
			cp.OutputPayload[k] = v
		}
	}
	if j.Metadata != nil {
		cp.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
