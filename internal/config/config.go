package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	LogLevel      string
	GeminiAPIKey  string
	GeminiModel   string
	EmotionAPIURL string
	MailAPIURL    string
	MailAPIToken  string
	MailFrom      string
	NatsURL       string
	NatsToken     string
}

func Load() Config {
	return Config{
		Port:          envInt("SOLACE_PORT", 8600),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		GeminiAPIKey:  envStr("GEMINI_API_KEY", ""),
		GeminiModel:   envStr("GEMINI_MODEL", "gemini-1.5-flash"),
		EmotionAPIURL: envStr("EMOTION_API_URL", "http://emotion:8610"),
		MailAPIURL:    envStr("MAIL_API_URL", ""),
		MailAPIToken:  envStr("MAIL_API_TOKEN", ""),
		MailFrom:      envStr("MAIL_FROM", "alerts@neurobridge.app"),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
