package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/neurobridge/solace/internal/tasks"
)

// InsertTask writes one task.
func (s *Store) InsertTask(ctx context.Context, t tasks.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, user_id, title, date, type, estimated_time, completed, mood_level, focus_level, conditions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.Title, t.Date, t.Type, t.EstimatedTime, t.Completed, t.MoodLevel, t.FocusLevel, t.Conditions,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// InsertTasks writes a batch of planned tasks in one round trip.
func (s *Store) InsertTasks(ctx context.Context, ts []tasks.Task) error {
	batch := &pgx.Batch{}
	for _, t := range ts {
		batch.Queue(`
			INSERT INTO tasks (id, user_id, title, date, type, estimated_time, completed, mood_level, focus_level, conditions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.UserID, t.Title, t.Date, t.Type, t.EstimatedTime, t.Completed, t.MoodLevel, t.FocusLevel, t.Conditions,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert task batch: %w", err)
		}
	}
	return nil
}

// UpdateTask applies the non-nil fields of the update. Returns found=false
// when no task has that id.
func (s *Store) UpdateTask(ctx context.Context, id uuid.UUID, upd tasks.TaskUpdate) (tasks.Task, bool, error) {
	var t tasks.Task
	err := s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = coalesce($2, title),
		    completed = coalesce($3, completed),
		    estimated_time = coalesce($4, estimated_time)
		WHERE id = $1
		RETURNING id, user_id, title, date, type, estimated_time, completed, mood_level, focus_level, conditions`,
		id, upd.Title, upd.Completed, upd.EstimatedTime,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Date, &t.Type, &t.EstimatedTime, &t.Completed, &t.MoodLevel, &t.FocusLevel, &t.Conditions)
	if errors.Is(err, pgx.ErrNoRows) {
		return tasks.Task{}, false, nil
	}
	if err != nil {
		return tasks.Task{}, false, fmt.Errorf("update task: %w", err)
	}
	return t, true, nil
}

// DeleteTask removes a task. Returns found=false when nothing was deleted.
func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TasksByUser returns all of a user's tasks, newest date first.
func (s *Store) TasksByUser(ctx context.Context, userID string) ([]tasks.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, date, type, estimated_time, completed, mood_level, focus_level, conditions
		FROM tasks
		WHERE user_id = $1
		ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		var t tasks.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Date, &t.Type, &t.EstimatedTime, &t.Completed, &t.MoodLevel, &t.FocusLevel, &t.Conditions); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
