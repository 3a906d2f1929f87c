package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-chat-backend/internal/domain/model"
)

type chatCreateRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	AgentID  string `json:"agent_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

type messageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type chatView struct {
	ID       string        `json:"id"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	AgentID  string        `json:"agent_id,omitempty"`
	Title    string        `json:"title,omitempty"`
	Messages []messageView `json:"messages"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type messageResponse struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

type jobView struct {
	JobID         string `json:"job_id"`
	ChatID        string `json:"chat_id"`
	Status        string `json:"status"`
	ResultMessage string `json:"result_message,omitempty"`
	OutputDocxURL string `json:"output_docx_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

type agentView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toChatView(c *model.Chat) chatView {
	v := chatView{
		ID:       c.ID,
		Provider: c.Provider,
		Model:    c.Model,
		AgentID:  c.AgentID,
		Title:    c.Title,
		Messages: make([]messageView, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		v.Messages = append(v.Messages, messageView{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return v
}

func toJobView(j *model.Job) jobView {
	v := jobView{
		JobID:         j.ID,
		ChatID:        j.ChatID,
		Status:        string(j.Status),
		ResultMessage: j.ResultMessage,
		Error:         j.Error,
	}
	if j.OutputDocxPath != "" {
		v.OutputDocxURL = fmt.Sprintf("/api/v1/jobs/%s/docx", j.ID)
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req chatCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	chat, err := s.chatUC.Create(r.Context(), req.Provider, req.Model, req.AgentID, req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChatView(chat))
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.chatUC.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]chatView, 0, len(chats))
	for _, c := range chats {
		views = append(views, toChatView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.chatUC.Get(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatView(chat))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reply, err := s.chatUC.SendMessage(r.Context(), chatID, req.Prompt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ChatID: chatID, Message: reply})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.chatUC.Providers()})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	views := make([]agentView, 0)
	for _, a := range s.agents.List() {
		views = append(views, agentView{ID: a.ID(), Name: a.Name(), Description: a.Description()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	job, err := s.jobUC.Create(r.Context(), chatID, req.Prompt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobView(job))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobUC.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobView(job))
}

func (s *Server) handleDownloadDocx(w http.ResponseWriter, r *http.Request) {
	path, err := s.jobUC.ArtifactPath(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	http.ServeFile(w, r, path)
}
