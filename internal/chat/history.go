package chat

import (
	"context"
	"fmt"
)

// historyWindow is the number of prior turns included as generation context.
const historyWindow = 8

// BuildContext renders the user's recent history as an ordered transcript.
// The store returns entries most-recent-first; the transcript needs them
// chronological, ending with the current message and a trailing assistant
// marker that tells the generator where to continue.
func (p *Pipeline) buildContext(ctx context.Context, userID, currentText string) ([]string, error) {
	entries, err := p.store.RecentEntries(ctx, userID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	lines := make([]string, 0, len(entries)+2)
	for i := len(entries) - 1; i >= 0; i-- {
		lines = append(lines, renderTurn(entries[i]))
	}
	lines = append(lines, "User: "+currentText)
	lines = append(lines, "Assistant:")
	return lines, nil
}

func renderTurn(e ChatEntry) string {
	role := "Assistant"
	if e.Sender == SenderUser {
		role = "User"
	}
	return role + ": " + e.Text
}
