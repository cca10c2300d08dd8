package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/draft"
	"facility-intake-backend/internal/types"
)

func writeResult[T any](s *Server, w http.ResponseWriter, res backend.DegradedResult[T]) {
	s.writeJSON(w, http.StatusOK, types.FallbackResponse{Data: res.Value, Fallback: res.IsFallback})
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	res, err := s.intake.FetchDirectory(r.Context())
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeResult(s, w, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !s.decodeJSON(w, r, smallBodyLimit, &req) {
		return
	}
	res, err := s.intake.Authenticate(r.Context(), req.AccessCode)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeResult(s, w, res)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload types.SurveyPayload
	if !s.decodeJSON(w, r, s.formBodyLimit(), &payload) {
		return
	}
	// A submission runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.intake.SubmitIntake(ctx, payload)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeResult(s, w, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	res, err := s.intake.FetchHistory(r.Context(), r.URL.Query().Get("property"))
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeResult(s, w, res)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.intake.SendHeartbeat(r.Context()))
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if s.drafts == nil {
		s.writeError(w, http.StatusServiceUnavailable, "draft generation is not configured")
		return
	}
	var form types.SurveyPayload
	if !s.decodeJSON(w, r, s.formBodyLimit(), &form) {
		return
	}
	if strings.TrimSpace(draft.ContextBlock(form)) == "" {
		s.writeError(w, http.StatusBadRequest, "fill in some of the form before asking for a draft")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()
	text, err := s.drafts.Generate(ctx, form)
	if err != nil {
		// The caller keeps its notes; nothing is overwritten on failure.
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, types.DraftResponse{Text: text})
}
