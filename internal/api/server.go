package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/neurobridge/solace/internal/chat"
	"github.com/neurobridge/solace/internal/mood"
	"github.com/neurobridge/solace/internal/tasks"
)

// ChatService is the message pipeline surface the API exposes.
type ChatService interface {
	Analyze(ctx context.Context, req chat.AnalyzeRequest) (*chat.AnalyzeResult, error)
	TopTriggers(ctx context.Context, userID string) ([]chat.TriggerCount, error)
	Summary(ctx context.Context, userID string) (chat.UserSummary, error)
}

// LogReader serves the raw chat-log listing.
type LogReader interface {
	EntriesByUser(ctx context.Context, userID string) ([]chat.ChatEntry, error)
}

// Generator backs the raw generation passthrough endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MoodStore persists and serves the mood diary.
type MoodStore interface {
	AppendMood(ctx context.Context, e mood.Entry) error
	MoodsByUser(ctx context.Context, userID string) ([]mood.Entry, error)
	LatestMood(ctx context.Context, userID string) (mood.Entry, bool, error)
}

// TaskStore persists and serves daily tasks.
type TaskStore interface {
	InsertTask(ctx context.Context, t tasks.Task) error
	InsertTasks(ctx context.Context, ts []tasks.Task) error
	UpdateTask(ctx context.Context, id uuid.UUID, upd tasks.TaskUpdate) (tasks.Task, bool, error)
	DeleteTask(ctx context.Context, id uuid.UUID) (bool, error)
	TasksByUser(ctx context.Context, userID string) ([]tasks.Task, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	chat    ChatService
	logs    LogReader
	gen     Generator
	moods   MoodStore
	tasks   TaskStore
	planner *tasks.Planner
	logger  *slog.Logger
}

func NewServer(port int, chatSvc ChatService, logs LogReader, gen Generator, moods MoodStore, taskStore TaskStore, planner *tasks.Planner, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		chat:    chatSvc,
		logs:    logs,
		gen:     gen,
		moods:   moods,
		tasks:   taskStore,
		planner: planner,
		logger:  logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/chat", func(r chi.Router) {
		r.Post("/analyze", s.analyzeMessage)
		r.Get("/logs/{userId}", s.userLogs)
		r.Get("/summary/{userId}", s.userSummary)
		r.Post("/generate", s.rawGenerate)
		r.Get("/top-triggers/{userId}", s.topTriggers)
	})

	router.Route("/api/mood", func(r chi.Router) {
		r.Post("/submit", s.submitMood)
		r.Get("/all/{userId}", s.allMoods)
		r.Get("/calendar/{userId}", s.moodCalendar)
	})

	router.Route("/api/tasks", func(r chi.Router) {
		r.Post("/add", s.addTask)
		r.Post("/update", s.updateTask)
		r.Delete("/delete/{id}", s.deleteTask)
		r.Get("/all/{userId}", s.allTasks)
		r.Get("/smart-generate/{userId}", s.smartGenerate)
		r.Get("/streak", s.streak)
		r.Get("/completion-history", s.completionHistory)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps pipeline errors onto the HTTP taxonomy: client-input
// errors get a 400 with the real message, everything else a generic 500 with
// detail logged server-side only.
func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, chat.ErrMissingFields) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error(op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}
