package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neurobridge/solace/internal/mood"
)

// AppendMood writes one mood-diary entry.
func (s *Store) AppendMood(ctx context.Context, e mood.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mood_log (id, user_id, mood, emoji, why, tags, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Mood, e.Emoji, e.Why, e.Tags, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

// MoodsByUser returns a user's mood history, oldest first.
func (s *Store) MoodsByUser(ctx context.Context, userID string) ([]mood.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, mood, emoji, why, tags, ts
		FROM mood_log
		WHERE user_id = $1
		ORDER BY ts ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query mood log: %w", err)
	}
	defer rows.Close()

	var entries []mood.Entry
	for rows.Next() {
		var e mood.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Mood, &e.Emoji, &e.Why, &e.Tags, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}

// LatestMood returns the most recent mood entry, or ok=false when the user has
// no diary yet.
func (s *Store) LatestMood(ctx context.Context, userID string) (mood.Entry, bool, error) {
	var e mood.Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, mood, emoji, why, tags, ts
		FROM mood_log
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT 1`, userID,
	).Scan(&e.ID, &e.UserID, &e.Mood, &e.Emoji, &e.Why, &e.Tags, &e.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return mood.Entry{}, false, nil
	}
	if err != nil {
		return mood.Entry{}, false, fmt.Errorf("fetch latest mood: %w", err)
	}
	return e, true, nil
}
