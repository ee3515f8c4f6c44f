package mood

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Entry is one mood-diary record. Mood is a 0-100 level.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Mood      int       `json:"mood"`
	Emoji     string    `json:"emoji,omitempty"`
	Why       string    `json:"why,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DaySummary is one calendar cell: the average mood across a day's entries.
type DaySummary struct {
	Date    string `json:"date"` // YYYY-MM-DD
	AvgMood int    `json:"avgMood"`
	Entries int    `json:"entries"`
}

// Calendar buckets entries per calendar day (UTC) and averages the mood level,
// ordered by date ascending.
func Calendar(entries []Entry) []DaySummary {
	type acc struct {
		sum, n int
	}
	days := make(map[string]*acc)
	for _, e := range entries {
		date := e.Timestamp.UTC().Format("2006-01-02")
		a, ok := days[date]
		if !ok {
			a = &acc{}
			days[date] = a
		}
		a.sum += e.Mood
		a.n++
	}

	out := make([]DaySummary, 0, len(days))
	for date, a := range days {
		out = append(out, DaySummary{Date: date, AvgMood: a.sum / a.n, Entries: a.n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
