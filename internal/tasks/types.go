package tasks

import "github.com/google/uuid"

// Task types.
const (
	TypePersonal = "personal"
	TypeSmart    = "smart"
)

// DefaultEstimate is the fallback estimated time (minutes) for manual tasks.
const DefaultEstimate = 15

// Task is one daily task, either user-created or produced by the smart
// routine planner.
type Task struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Type          string    `json:"type"`
	EstimatedTime int       `json:"estimatedTime"`
	Completed     bool      `json:"completed"`
	MoodLevel     *int      `json:"moodLevel,omitempty"`
	FocusLevel    *int      `json:"focusLevel,omitempty"`
	Conditions    []string  `json:"conditions,omitempty"`
}

// TaskUpdate carries the mutable fields for a task update. Nil means "leave
// unchanged".
type TaskUpdate struct {
	Title         *string `json:"title,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`
	EstimatedTime *int    `json:"estimatedTime,omitempty"`
}
