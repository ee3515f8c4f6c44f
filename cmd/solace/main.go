package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/neurobridge/solace/internal/api"
	"github.com/neurobridge/solace/internal/chat"
	"github.com/neurobridge/solace/internal/config"
	"github.com/neurobridge/solace/internal/emotion"
	"github.com/neurobridge/solace/internal/events"
	"github.com/neurobridge/solace/internal/gemini"
	"github.com/neurobridge/solace/internal/notify"
	"github.com/neurobridge/solace/internal/store"
	"github.com/neurobridge/solace/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("solace starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Gemini client
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	llm := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	slog.Info("gemini client ready", "model", cfg.GeminiModel)

	// Emotion analysis service
	emo := emotion.NewClient(cfg.EmotionAPIURL)

	// Mailer (optional; alerts are still logged and published without it)
	var mailer chat.Notifier
	if cfg.MailAPIURL != "" {
		mailer = notify.NewMailer(cfg.MailAPIURL, cfg.MailAPIToken, cfg.MailFrom, slog.Default())
		slog.Info("mail gateway ready")
	} else {
		slog.Warn("mail gateway not configured, alert emails disabled")
	}

	// Event bus (optional)
	var bus chat.EventPublisher
	if cfg.NatsURL != "" {
		nc, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		if err := nc.Publish(events.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
		bus = nc
	} else {
		slog.Warn("NATS not configured, alert events disabled")
	}

	// Pipeline, the core of the service
	pipeline := chat.NewPipeline(db, emo, emo, llm, mailer, bus, slog.Default())

	// Smart routine planner
	planner := tasks.NewPlanner(llm, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, pipeline, db, llm, db, db, planner, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("solace ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("solace stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
