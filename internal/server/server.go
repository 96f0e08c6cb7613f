package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/config"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/conversation"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/db"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/funnel"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/llm"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/store"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/types"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/vector"
)

// The funnel makes up to three LLM calls per message; give each request
// enough headroom.
const requestTimeout = 60 * time.Second

// ConversationService is the session manager the HTTP layer delegates to.
type ConversationService interface {
	SendMessage(ctx context.Context, phoneNumber, content string) (*types.SendMessageResponse, error)
	GetStatus(ctx context.Context, phoneNumber string) (*types.ConversationStatus, error)
}

type Server struct {
	router        *chi.Mux
	conversations ConversationService
	database      *db.DB
	log           *zap.Logger
}

// New wires the full service: database, migrations, LLM provider, semantic
// matcher, funnel agent and session manager.
func New(cfg config.Config, log *zap.Logger) (*Server, error) {
	database, err := db.New(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.RunMigrations(cfg.MigrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	generator, embedder, err := llm.New(context.Background(), cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	prompts, err := funnel.LoadPromptSpec(cfg.PromptsFile)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load prompt spec: %w", err)
	}

	matcher := vector.New(database, embedder, log)
	agent := funnel.NewAgent(generator, matcher, prompts, log)
	svc := conversation.NewService(store.NewConversationStore(database), agent, log)

	return newServer(svc, database, cfg.AllowedOrigin, log), nil
}

func newServer(svc ConversationService, database *db.DB, allowedOrigin string, log *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{router: r, conversations: svc, database: database, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/conversations/{phoneNumber}/messages", s.handleSendMessage)
	s.router.Get("/api/conversations/{phoneNumber}/status", s.handleGetStatus)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.HealthCheck(); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	phoneNumber := chi.URLParam(r, "phoneNumber")
	if strings.TrimSpace(phoneNumber) == "" {
		s.writeError(w, http.StatusBadRequest, "phone number is required")
		return
	}

	var req types.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := s.conversations.SendMessage(ctx, phoneNumber, req.Content)
	if err != nil {
		s.log.Error("send message failed",
			zap.String("phone_number", phoneNumber),
			zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "we could not process your message right now, please try again")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	phoneNumber := chi.URLParam(r, "phoneNumber")
	if strings.TrimSpace(phoneNumber) == "" {
		s.writeError(w, http.StatusBadRequest, "phone number is required")
		return
	}

	status, err := s.conversations.GetStatus(r.Context(), phoneNumber)
	if err != nil {
		s.log.Error("status lookup failed",
			zap.String("phone_number", phoneNumber),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if status == nil {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}
