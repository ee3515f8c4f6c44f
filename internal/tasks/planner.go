package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPlan means the generator did not return a parseable task array.
var ErrInvalidPlan = errors.New("generator returned invalid task plan")

// Generator is the completion service used to draft routines.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Planner asks the generator for a personalized daily routine and turns the
// reply into persistable tasks.
type Planner struct {
	gen    Generator
	logger *slog.Logger
}

func NewPlanner(gen Generator, logger *slog.Logger) *Planner {
	return &Planner{gen: gen, logger: logger}
}

type plannedTask struct {
	Title         string `json:"title"`
	EstimatedTime int    `json:"estimatedTime"`
}

const planPrompt = `You are a helpful mental health assistant AI.

The user's recurring emotional triggers: %s

Their latest mood level (scale 0-100): %d

Please generate a personalized daily routine that:
- Takes their emotional state into account.
- Is adjusted to their current mood.
- Includes light, manageable tasks.
- Includes supportive habits or mindfulness ideas.
- Is compassionate and avoids overwhelming the user.

Return your response strictly as a JSON array like this:
[
  { "title": "Gentle stretching exercise", "estimatedTime": 5 },
  { "title": "Deep breathing for calm", "estimatedTime": 10 }
]`

// Plan generates a smart routine for the user. Each returned task is stamped
// with today's date, the mood level it was planned against and the trigger
// conditions that informed it.
func (p *Planner) Plan(ctx context.Context, userID string, moodLevel int, conditions []string) ([]Task, error) {
	triggers := "none recorded"
	if len(conditions) > 0 {
		triggers = strings.Join(conditions, ", ")
	}
	prompt := fmt.Sprintf(planPrompt, triggers, moodLevel)

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate routine: %w", err)
	}

	planned, err := parsePlan(raw)
	if err != nil {
		p.logger.Error("failed to parse routine plan", "user_id", userID, "raw", raw, "error", err)
		return nil, err
	}

	date := time.Now().UTC().Format("2006-01-02")
	mood := moodLevel
	out := make([]Task, 0, len(planned))
	for _, pt := range planned {
		estimate := pt.EstimatedTime
		if estimate <= 0 {
			estimate = DefaultEstimate
		}
		out = append(out, Task{
			ID:            uuid.New(),
			UserID:        userID,
			Title:         pt.Title,
			Date:          date,
			Type:          TypeSmart,
			EstimatedTime: estimate,
			MoodLevel:     &mood,
			Conditions:    conditions,
		})
	}
	return out, nil
}

var fenceRe = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// parsePlan extracts the JSON array from the generator's reply. Models often
// wrap the array in a ```json fence; strip it before parsing.
func parsePlan(raw string) ([]plannedTask, error) {
	jsonOnly := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		jsonOnly = strings.TrimSpace(m[1])
	}

	var planned []plannedTask
	if err := json.Unmarshal([]byte(jsonOnly), &planned); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if len(planned) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidPlan)
	}
	for _, pt := range planned {
		if pt.Title == "" {
			return nil, fmt.Errorf("%w: task without title", ErrInvalidPlan)
		}
	}
	return planned, nil
}
