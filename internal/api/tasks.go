package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neurobridge/solace/internal/tasks"
)

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string `json:"userId"`
		Title         string `json:"title"`
		EstimatedTime int    `json:"estimatedTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Title == "" {
		respondError(w, http.StatusBadRequest, "userId and title are required")
		return
	}

	estimate := req.EstimatedTime
	if estimate <= 0 {
		estimate = tasks.DefaultEstimate
	}
	task := tasks.Task{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Title:         req.Title,
		Date:          time.Now().UTC().Format("2006-01-02"),
		Type:          tasks.TypePersonal,
		EstimatedTime: estimate,
	}

	if err := s.tasks.InsertTask(r.Context(), task); err != nil {
		s.respondFailure(w, "add task failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID  string           `json:"taskId"`
		Updates tasks.TaskUpdate `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := uuid.Parse(req.TaskID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid taskId")
		return
	}

	task, found, err := s.tasks.UpdateTask(r.Context(), id, req.Updates)
	if err != nil {
		s.respondFailure(w, "update task failed", err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	found, err := s.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "delete task failed", err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) allTasks(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	list, err := s.tasks.TasksByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch tasks failed", err)
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}
	respondJSON(w, http.StatusOK, list)
}

// smartGenerate plans a routine from the user's latest mood and recurring
// triggers, persists the planned tasks and returns them.
func (s *Server) smartGenerate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	ctx := r.Context()

	moodLevel := 50 // neutral default when the diary is empty
	if latest, ok, err := s.moods.LatestMood(ctx, userID); err != nil {
		s.respondFailure(w, "fetch latest mood failed", err)
		return
	} else if ok {
		moodLevel = latest.Mood
	}

	triggers, err := s.chat.TopTriggers(ctx, userID)
	if err != nil {
		s.respondFailure(w, "fetch triggers failed", err)
		return
	}
	conditions := make([]string, 0, len(triggers))
	for _, t := range triggers {
		conditions = append(conditions, t.Trigger)
	}

	planned, err := s.planner.Plan(ctx, userID, moodLevel, conditions)
	if err != nil {
		s.respondFailure(w, "smart routine generation failed", err)
		return
	}

	if err := s.tasks.InsertTasks(ctx, planned); err != nil {
		s.respondFailure(w, "save routine failed", err)
		return
	}
	respondJSON(w, http.StatusOK, planned)
}

func (s *Server) streak(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	list, err := s.tasks.TasksByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch tasks failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"streak": tasks.Streak(list, time.Now())})
}

func (s *Server) completionHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	list, err := s.tasks.TasksByUser(r.Context(), userID)
	if err != nil {
		s.respondFailure(w, "fetch tasks failed", err)
		return
	}
	respondJSON(w, http.StatusOK, tasks.CompletionHistory(list))
}
