package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neurobridge/solace/internal/mood"
)

func (s *Server) submitMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string     `json:"userId"`
		Mood      int        `json:"mood"`
		Emoji     string     `json:"emoji"`
		Why       string     `json:"why"`
		Tags      []string   `json:"tags"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}
	entry := mood.Entry{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Mood:      req.Mood,
		Emoji:     req.Emoji,
		Why:       req.Why,
		Tags:      req.Tags,
		Timestamp: ts,
	}

	if err := s.moods.AppendMood(r.Context(), entry); err != nil {
		s.respondFailure(w, "save mood failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Mood saved"})
}

func (s *Server) allMoods(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	entries, err := s.moods.MoodsByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch mood logs failed", err)
		return
	}
	if entries == nil {
		entries = []mood.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) moodCalendar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	entries, err := s.moods.MoodsByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch mood calendar failed", err)
		return
	}
	respondJSON(w, http.StatusOK, mood.Calendar(entries))
}
