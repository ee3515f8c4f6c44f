package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/neurobridge/solace/internal/chat"
)

// AppendEntry writes one immutable chat turn.
// A nil TriggerKeywords slice is stored as NULL ("extraction never ran"); an
// empty non-nil slice is stored as an empty array ("ran, found nothing").
func (s *Store) AppendEntry(ctx context.Context, e chat.ChatEntry) error {
	var label *string
	var score *float64
	if e.Sentiment != nil {
		label = &e.Sentiment.Label
		score = &e.Sentiment.Score
	}
	var tone *string
	if e.Tone != "" {
		tone = &e.Tone
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_log (id, user_id, text, sender, ts, sentiment_label, sentiment_score, tone, trigger_keywords, alert_triggered, is_follow_up)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.UserID, e.Text, string(e.Sender), e.Timestamp, label, score, tone, e.TriggerKeywords, e.AlertTriggered, e.IsFollowUp,
	)
	if err != nil {
		return fmt.Errorf("insert chat entry: %w", err)
	}
	return nil
}

// RecentEntries returns at most limit entries for a user, most-recent-first.
func (s *Store) RecentEntries(ctx context.Context, userID string, limit int) ([]chat.ChatEntry, error) {
	return s.queryEntries(ctx, `
		SELECT id, user_id, text, sender, ts, sentiment_label, sentiment_score, tone, trigger_keywords, alert_triggered, is_follow_up
		FROM chat_log
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT $2`, userID, limit)
}

// EntriesByUser returns the full log for a user, most-recent-first.
func (s *Store) EntriesByUser(ctx context.Context, userID string) ([]chat.ChatEntry, error) {
	return s.queryEntries(ctx, `
		SELECT id, user_id, text, sender, ts, sentiment_label, sentiment_score, tone, trigger_keywords, alert_triggered, is_follow_up
		FROM chat_log
		WHERE user_id = $1
		ORDER BY ts DESC`, userID)
}

// AlertEntries returns alert-flagged entries with a non-empty keyword set in
// chronological order, as the trigger aggregator consumes them.
func (s *Store) AlertEntries(ctx context.Context, userID string) ([]chat.ChatEntry, error) {
	return s.queryEntries(ctx, `
		SELECT id, user_id, text, sender, ts, sentiment_label, sentiment_score, tone, trigger_keywords, alert_triggered, is_follow_up
		FROM chat_log
		WHERE user_id = $1
		  AND alert_triggered
		  AND trigger_keywords IS NOT NULL
		  AND cardinality(trigger_keywords) > 0
		ORDER BY ts ASC`, userID)
}

// SummaryByUser aggregates the full log: entry count, negative-score count,
// alert count, mean of present scores (0 when none) and the latest entry.
func (s *Store) SummaryByUser(ctx context.Context, userID string) (chat.UserSummary, error) {
	var summary chat.UserSummary
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE sentiment_score < 0),
		       count(*) FILTER (WHERE alert_triggered),
		       coalesce(avg(sentiment_score), 0)
		FROM chat_log
		WHERE user_id = $1`, userID,
	).Scan(&summary.Total, &summary.Negative, &summary.Alerts, &summary.AvgScore)
	if err != nil {
		return chat.UserSummary{}, fmt.Errorf("aggregate chat log: %w", err)
	}

	var text string
	var ts time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT text, ts FROM chat_log
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT 1`, userID,
	).Scan(&text, &ts)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// no entries: lastMessage/lastTimestamp stay null
	case err != nil:
		return chat.UserSummary{}, fmt.Errorf("fetch latest entry: %w", err)
	default:
		summary.LastMessage = &text
		summary.LastTimestamp = &ts
	}

	return summary, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]chat.ChatEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat log: %w", err)
	}
	defer rows.Close()

	var entries []chat.ChatEntry
	for rows.Next() {
		var e chat.ChatEntry
		var sender string
		var label, tone *string
		var score *float64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &sender, &e.Timestamp, &label, &score, &tone, &e.TriggerKeywords, &e.AlertTriggered, &e.IsFollowUp); err != nil {
			return nil, fmt.Errorf("scan chat entry: %w", err)
		}
		e.Sender = chat.Sender(sender)
		if label != nil && score != nil {
			e.Sentiment = &chat.SentimentResult{Label: *label, Score: *score}
		}
		if tone != nil {
			e.Tone = *tone
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}
