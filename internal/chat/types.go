package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a chat turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// SentimentResult is the output of the sentiment service for one message.
// Score is in [-1, 1]; Label is a coarse bucket (positive/neutral/negative).
type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classification bundles the two independent classifier calls for one message.
type Classification struct {
	SentimentLabel string
	SentimentScore float64
	ToneLabel      string
}

// ChatEntry is one persisted turn. Entries are append-only and immutable.
//
// Assistant turns carry only UserID/Text/Sender/Timestamp; the analysis fields
// stay nil/zero. On user turns TriggerKeywords distinguishes "extraction never
// ran" (nil) from "ran and found nothing" (non-nil empty slice); the trigger
// aggregator depends on that distinction surviving storage.
type ChatEntry struct {
	ID              uuid.UUID        `json:"id"`
	UserID          string           `json:"userId"`
	Text            string           `json:"text"`
	Sender          Sender           `json:"sender"`
	Timestamp       time.Time        `json:"timestamp"`
	Sentiment       *SentimentResult `json:"sentiment,omitempty"`
	Tone            string           `json:"tone,omitempty"`
	TriggerKeywords []string         `json:"trigger_keywords,omitempty"`
	AlertTriggered  *bool            `json:"alert_triggered,omitempty"`
	IsFollowUp      bool             `json:"isFollowUp,omitempty"`
}

// NewUserTurn builds a fully classified user turn.
func NewUserTurn(userID, text string, c Classification, keywords []string, alert, isFollowUp bool) ChatEntry {
	return ChatEntry{
		ID:     uuid.New(),
		UserID: userID,
		Text:   text,
		Sender: SenderUser,
		Sentiment: &SentimentResult{
			Label: c.SentimentLabel,
			Score: c.SentimentScore,
		},
		Tone:            c.ToneLabel,
		TriggerKeywords: keywords,
		AlertTriggered:  &alert,
		IsFollowUp:      isFollowUp,
		Timestamp:       time.Now().UTC(),
	}
}

// NewAssistantTurn builds a minimal assistant turn carrying only the reply text.
func NewAssistantTurn(userID, text string) ChatEntry {
	return ChatEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		Sender:    SenderAssistant,
		Timestamp: time.Now().UTC(),
	}
}

// TriggerCount is one ranked entry from the trigger aggregator.
type TriggerCount struct {
	Trigger string `json:"trigger"`
	Count   int    `json:"count"`
	Tone    string `json:"tone"`
}

// UserSummary aggregates a user's chat log for the summary endpoint.
type UserSummary struct {
	Total         int        `json:"total"`
	Negative      int        `json:"negative"`
	Alerts        int        `json:"alerts"`
	AvgScore      float64    `json:"avgScore"`
	LastMessage   *string    `json:"lastMessage"`
	LastTimestamp *time.Time `json:"lastTimestamp"`
}
