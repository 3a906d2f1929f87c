package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-chat-backend/internal/config"
	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/ports/adapter"
	"ai-chat-backend/internal/infra/logging"
	"ai-chat-backend/internal/infra/status"
	"ai-chat-backend/internal/usecase"
)

// Server exposes the chat/job API. It holds no state of its own; every
// request is answered from the use cases, the status hub, or the agent
// registry.
type Server struct {
	chatUC usecase.ChatUseCase
	jobUC  usecase.JobUseCase
	hub    *status.Hub
	agents adapter.AgentRegistry
	stream config.StreamConfig
	log    *zerolog.Logger

	server *http.Server
}

func NewServer(chatUC usecase.ChatUseCase, jobUC usecase.JobUseCase, hub *status.Hub, agents adapter.AgentRegistry, stream config.StreamConfig, logger *zerolog.Logger) *Server {
	return &Server{
		chatUC: chatUC,
		jobUC:  jobUC,
		hub:    hub,
		agents: agents,
		stream: stream,
		log:    logger,
	}
}

// Router builds the chi router with all API routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Carry the request id as trace_id so every log line below resolves it.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logging.WithTraceID(req.Context(), middleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/chats", func(r chi.Router) {
			r.Post("/", s.handleCreateChat)
			r.Get("/", s.handleListChats)
			r.Get("/{chatID}", s.handleGetChat)
			r.Post("/{chatID}/messages", s.handleSendMessage)
		})
		r.Get("/providers", s.handleListProviders)
		r.Get("/agents", s.handleListAgents)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/{chatID}", s.handleCreateJob)
			r.Get("/{jobID}", s.handleGetJob)
			r.Get("/{jobID}/events", s.handleJobEvents)
			r.Get("/{jobID}/docx", s.handleDownloadDocx)
		})
	})
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnsupportedProvider),
		errors.Is(err, domain.ErrAgentModeChat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("internal error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
