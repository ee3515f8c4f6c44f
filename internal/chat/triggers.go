package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// topTriggerLimit caps the ranked trigger list.
const topTriggerLimit = 5

// TopTriggers ranks the most frequent trigger keywords across a user's
// alert-flagged entries. Read-only.
func (p *Pipeline) TopTriggers(ctx context.Context, userID string) ([]TriggerCount, error) {
	entries, err := p.store.AlertEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch alert entries: %w", err)
	}
	return RankTriggers(entries, topTriggerLimit), nil
}

// RankTriggers folds keyword occurrences into per-keyword counts and sorts by
// count descending. Keywords are case-folded before counting. The displayed
// tone is last-write-wins: the tone of the most recent occurrence replaces
// earlier ones; no distribution is tracked. Ties keep first-seen order.
func RankTriggers(entries []ChatEntry, limit int) []TriggerCount {
	counts := make(map[string]*TriggerCount)
	var order []string

	for _, e := range entries {
		for _, kw := range e.TriggerKeywords {
			key := strings.ToLower(kw)
			tc, ok := counts[key]
			if !ok {
				tc = &TriggerCount{Trigger: key}
				counts[key] = tc
				order = append(order, key)
			}
			tc.Count++
			tc.Tone = e.Tone
		}
	}

	ranked := make([]TriggerCount, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, *counts[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Summary reports aggregate counts over a user's full chat log.
func (p *Pipeline) Summary(ctx context.Context, userID string) (UserSummary, error) {
	return p.store.SummaryByUser(ctx, userID)
}
