package agents

import (
	"context"
	"fmt"
	"path/filepath"

	"ai-chat-backend/internal/domain/model"
	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Agent = (*ReportWriter)(nil)

const reportOutlineInstruction = "You are a report-writing assistant. Produce a short numbered outline " +
	"for a report answering the user's request. Use prior conversation context when relevant."

const reportDraftInstruction = "You are a report-writing assistant. Write the full report following the " +
	"outline provided. Plain text, one blank line between sections."

// ReportWriter drafts a report in two model calls (outline, then full text)
// and saves the result as a .docx artifact named after the job.
type ReportWriter struct {
	outputDir string
}

func NewReportWriter(outputDir string) *ReportWriter {
	return &ReportWriter{outputDir: outputDir}
}

func (a *ReportWriter) ID() string   { return "report_writer" }
func (a *ReportWriter) Name() string { return "Report Writer" }
func (a *ReportWriter) Description() string {
	return "Drafts a structured report from the prompt and generates a downloadable DOCX."
}

func (a *ReportWriter) Run(ctx context.Context, chat *model.Chat, client adapter.ModelClient, jobID, prompt string) (adapter.AgentResult, error) {
	outlineReq := transcript(chat)
	outlineReq = append(outlineReq,
		adapter.Message{Role: "system", Content: reportOutlineInstruction},
		adapter.Message{Role: "user", Content: prompt},
	)
	outline, err := client.Chat(ctx, outlineReq)
	if err != nil {
		return adapter.AgentResult{}, fmt.Errorf("outline call: %w", err)
	}

	draftReq := transcript(chat)
	draftReq = append(draftReq,
		adapter.Message{Role: "system", Content: reportDraftInstruction},
		adapter.Message{Role: "user", Content: fmt.Sprintf("Request:\n%s\n\nOutline:\n%s", prompt, outline)},
	)
	draft, err := client.Chat(ctx, draftReq)
	if err != nil {
		return adapter.AgentResult{}, fmt.Errorf("draft call: %w", err)
	}

	path := filepath.Join(a.outputDir, jobID+".docx")
	if err := writeDocx(path, draft); err != nil {
		return adapter.AgentResult{}, err
	}
	return adapter.AgentResult{Text: draft, OutputDocxPath: path}, nil
}

// transcript converts the chat history into wire messages.
func transcript(chat *model.Chat) []adapter.Message {
	out := make([]adapter.Message, 0, len(chat.Messages)+2)
	for _, m := range chat.Messages {
		out = append(out, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
