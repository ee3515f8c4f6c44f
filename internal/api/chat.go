package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/neurobridge/solace/internal/chat"
)

func (s *Server) analyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.chat.Analyze(r.Context(), req)
	if err != nil {
		s.respondFailure(w, "analyze failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) userLogs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	entries, err := s.logs.EntriesByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch chat logs failed", err)
		return
	}
	if entries == nil {
		entries = []chat.ChatEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) userSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	summary, err := s.chat.Summary(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch summary failed", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) rawGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	reply, err := s.gen.Generate(r.Context(), req.Prompt)
	if err != nil {
		s.respondFailure(w, "raw generation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) topTriggers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	triggers, err := s.chat.TopTriggers(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch top triggers failed", err)
		return
	}
	if triggers == nil {
		triggers = []chat.TriggerCount{}
	}
	respondJSON(w, http.StatusOK, triggers)
}
