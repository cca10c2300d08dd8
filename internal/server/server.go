package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"facility-intake-backend/internal/config"
	"facility-intake-backend/internal/draft"
	"facility-intake-backend/internal/intake"
	"facility-intake-backend/internal/store"
	"facility-intake-backend/internal/types"
)

// Dependencies are built by the caller and shared by all handlers.
type Dependencies struct {
	Intake   *intake.Client
	Sessions *store.SessionStore
	// Drafts is optional; without it /api/draft answers 503.
	Drafts *draft.Generator
	Logger *zap.Logger
}

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	intake   *intake.Client
	sessions *store.SessionStore
	drafts   *draft.Generator
	logger   *zap.Logger
	// secureCookies marks the session cookie Secure; on when no origin is a wildcard.
	secureCookies bool
}

func NewServer(cfg config.Config, deps Dependencies) (*Server, error) {
	if deps.Intake == nil {
		return nil, fmt.Errorf("intake client is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("chat session store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // Enable credentials for cookies
		MaxAge:           300,
	}))

	s := &Server{
		router:        r,
		cfg:           cfg,
		intake:        deps.Intake,
		sessions:      deps.Sessions,
		drafts:        deps.Drafts,
		logger:        logger.With(zap.String("component", "server")),
		secureCookies: !containsWildcard(cfg.AllowedOrigins),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	// Intake operations
	s.router.Get("/api/directory", s.handleDirectory)
	s.router.Post("/api/login", s.handleLogin)
	s.router.Post("/api/intake", s.handleSubmit)
	s.router.Get("/api/history", s.handleHistory)
	s.router.Post("/api/heartbeat", s.handleHeartbeat)
	s.router.Post("/api/draft", s.handleDraft)
	// Chat
	s.router.Post("/api/chat/stream", s.handleChatStream)
	s.router.Post("/api/chat/subject", s.handleChatSubject)
	s.router.Get("/api/chat/transcript", s.handleChatTranscript)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

const (
	// smallBodyLimit caps requests that carry no attachments.
	smallBodyLimit int64 = 64 << 10
	// bodyAttachmentSlots is how many maximum-size attachments a form body may hold.
	bodyAttachmentSlots = 8
)

// formBodyLimit is the cap for bodies that may carry base64 attachments.
func (s *Server) formBodyLimit() int64 {
	per := s.cfg.MaxAttachmentBytes
	if per <= 0 {
		per = intake.DefaultMaxAttachmentBytes
	}
	return per*bodyAttachmentSlots*4/3 + smallBodyLimit
}

// decodeJSON reads at most limit bytes of JSON into v. It writes 413 or 400
// and returns false when the body cannot be used.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}

// writeOperationError maps an operation failure to a status. Messages are
// passed through unchanged so upstream misconfiguration stays diagnosable.
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	s.logger.Warn("operation failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.writeError(w, http.StatusBadGateway, err.Error())
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
