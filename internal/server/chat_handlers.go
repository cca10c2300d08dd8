package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"facility-intake-backend/internal/chat"
	"facility-intake-backend/internal/types"
)

// handleChatStream answers with one JSON line per transcript update.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req types.ChatRequest
	if !s.decodeJSON(w, r, smallBodyLimit, &req) {
		return
	}
	sid := s.getOrCreateSessionID(w, r)
	agg := s.sessions.Aggregator(sid)
	if req.Subject != "" {
		agg.SetSubject(req.Subject)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	enc := json.NewEncoder(w)
	started := false
	publish := func(u chat.Update) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(u); err != nil {
			s.logger.Debug("chat client went away", zap.String("session", sid), zap.Error(err))
			return
		}
		flusher.Flush()
	}

	_, err := agg.Send(ctx, req.Message, publish)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		s.writeError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, chat.ErrSendInFlight):
		s.writeError(w, http.StatusConflict, "a reply is still streaming")
	}
}

func (s *Server) handleChatSubject(w http.ResponseWriter, r *http.Request) {
	var req types.SubjectRequest
	if !s.decodeJSON(w, r, smallBodyLimit, &req) {
		return
	}
	agg := s.sessions.Aggregator(s.getOrCreateSessionID(w, r))
	agg.SetSubject(req.Subject)
	s.writeJSON(w, http.StatusOK, types.SubjectRequest{Subject: agg.Subject()})
}

func (s *Server) handleChatTranscript(w http.ResponseWriter, r *http.Request) {
	agg := s.sessions.Aggregator(s.getOrCreateSessionID(w, r))
	s.writeJSON(w, http.StatusOK, chat.Update{Transcript: agg.Transcript(), State: agg.State()})
}
