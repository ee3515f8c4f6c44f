package tasks

import (
	"sort"
	"time"
)

// Streak counts consecutive fully-completed days ending at today, walking
// backwards day by day. A day with any incomplete task breaks the streak;
// a day with no tasks at all also breaks it.
func Streak(all []Task, today time.Time) int {
	byDate := groupByDate(all)

	streak := 0
	day := today.UTC()
	for {
		date := day.Format("2006-01-02")
		dayTasks, ok := byDate[date]
		if !ok || !allComplete(dayTasks) {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// DayCompletion is one day's completion rate for the history endpoint.
type DayCompletion struct {
	Date    string `json:"date"`
	Percent int    `json:"percent"`
}

// CompletionHistory reports per-day completion percentages for the most
// recent 7 days that have tasks, oldest first.
func CompletionHistory(all []Task) []DayCompletion {
	byDate := groupByDate(all)

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > 7 {
		dates = dates[len(dates)-7:]
	}

	history := make([]DayCompletion, 0, len(dates))
	for _, date := range dates {
		dayTasks := byDate[date]
		completed := 0
		for _, t := range dayTasks {
			if t.Completed {
				completed++
			}
		}
		history = append(history, DayCompletion{
			Date:    date,
			Percent: completed * 100 / len(dayTasks),
		})
	}
	return history
}

func groupByDate(all []Task) map[string][]Task {
	byDate := make(map[string][]Task)
	for _, t := range all {
		byDate[t.Date] = append(byDate[t.Date], t)
	}
	return byDate
}

func allComplete(dayTasks []Task) bool {
	for _, t := range dayTasks {
		if !t.Completed {
			return false
		}
	}
	return true
}
