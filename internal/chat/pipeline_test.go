package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeStore struct {
	entries    []ChatEntry // chronological
	failAppend bool
}

func (f *fakeStore) AppendEntry(_ context.Context, e ChatEntry) error {
	if f.failAppend {
		return errors.New("db down")
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) RecentEntries(_ context.Context, userID string, limit int) ([]ChatEntry, error) {
	var recent []ChatEntry
	for i := len(f.entries) - 1; i >= 0 && len(recent) < limit; i-- {
		if f.entries[i].UserID == userID {
			recent = append(recent, f.entries[i])
		}
	}
	return recent, nil
}

func (f *fakeStore) AlertEntries(_ context.Context, userID string) ([]ChatEntry, error) {
	var out []ChatEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.AlertTriggered != nil && *e.AlertTriggered && len(e.TriggerKeywords) > 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) SummaryByUser(_ context.Context, userID string) (UserSummary, error) {
	var s UserSummary
	for i := range f.entries {
		e := f.entries[i]
		if e.UserID != userID {
			continue
		}
		s.Total++
		if e.Sentiment != nil && e.Sentiment.Score < 0 {
			s.Negative++
		}
		if e.AlertTriggered != nil && *e.AlertTriggered {
			s.Alerts++
		}
		s.LastMessage = &f.entries[i].Text
		s.LastTimestamp = &f.entries[i].Timestamp
	}
	return s, nil
}

func (f *fakeStore) userTurns() []ChatEntry {
	var out []ChatEntry
	for _, e := range f.entries {
		if e.Sender == SenderUser {
			out = append(out, e)
		}
	}
	return out
}

type fakeClassifier struct {
	cls Classification
	err error
}

func (f *fakeClassifier) Classify(context.Context, string) (Classification, error) {
	return f.cls, f.err
}

type fakeKeywords struct {
	kws   []string
	err   error
	calls int
}

func (f *fakeKeywords) ExtractKeywords(context.Context, string) ([]string, error) {
	f.calls++
	return f.kws, f.err
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string

	// writesAtCall observes store state when the generator runs.
	store        *fakeStore
	turnsAtCall  int
	observeStore bool
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.observeStore {
		f.turnsAtCall = len(f.store.entries)
	}
	return f.reply, f.err
}

type fakeNotifier struct {
	err   error
	calls int
	to    string
	body  string
}

func (f *fakeNotifier) Send(_ context.Context, to, _, body string) error {
	f.calls++
	f.to = to
	f.body = body
	return f.err
}

type fakeEvents struct {
	subjects []string
}

func (f *fakeEvents) Publish(subject string, _ any) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(store *fakeStore, cls Classification, kws []string, reply string) (*Pipeline, *fakeKeywords, *fakeGenerator, *fakeNotifier, *fakeEvents) {
	kw := &fakeKeywords{kws: kws}
	gen := &fakeGenerator{reply: reply, store: store, observeStore: true}
	notifier := &fakeNotifier{}
	bus := &fakeEvents{}
	p := NewPipeline(store, &fakeClassifier{cls: cls}, kw, gen, notifier, bus, testLogger())
	return p, kw, gen, notifier, bus
}

func TestAnalyze_MissingFields(t *testing.T) {
	store := &fakeStore{}
	p, kw, gen, _, _ := newTestPipeline(store, Classification{}, nil, "hi")

	for _, req := range []AnalyzeRequest{
		{UserID: "u1"},
		{Text: "hello"},
		{},
	} {
		_, err := p.Analyze(context.Background(), req)
		if !errors.Is(err, ErrMissingFields) {
			t.Errorf("Analyze(%+v) error = %v, want ErrMissingFields", req, err)
		}
	}

	if len(store.entries) != 0 {
		t.Errorf("validation failure wrote %d entries, want 0", len(store.entries))
	}
	if kw.calls != 0 || len(gen.prompts) != 0 {
		t.Error("validation failure must not reach any external service")
	}
}

func TestAnalyze_NeutralMessage(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "neutral", SentimentScore: 0.2, ToneLabel: "calm"}
	p, kw, _, notifier, bus := newTestPipeline(store, cls, []string{"unused"}, "glad to hear it")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "all good", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if kw.calls != 0 {
		t.Error("neutral branch must not extract keywords")
	}
	if res.AlertTriggered {
		t.Error("neutral branch must not raise an alert")
	}
	if res.Keywords != nil {
		t.Errorf("neutral result keywords = %v, want nil (not analyzed)", res.Keywords)
	}
	if notifier.calls != 0 {
		t.Error("no notification on neutral message")
	}
	if len(bus.subjects) != 0 {
		t.Error("no alert event on neutral message")
	}

	turns := store.userTurns()
	if len(turns) != 1 {
		t.Fatalf("got %d user turns, want 1", len(turns))
	}
	if turns[0].TriggerKeywords != nil {
		t.Error("neutral user turn must omit keywords entirely")
	}
	if len(store.entries) != 2 || store.entries[1].Sender != SenderAssistant {
		t.Fatalf("expected user turn + assistant turn, got %d entries", len(store.entries))
	}
	if store.entries[1].Sentiment != nil || store.entries[1].AlertTriggered != nil {
		t.Error("assistant turn must carry no analysis fields")
	}
	if res.BotResponse != "glad to hear it" {
		t.Errorf("BotResponse = %q", res.BotResponse)
	}
}

func TestAnalyze_StrongEmotionEndToEnd(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.8, ToneLabel: "anxious"}
	p, kw, gen, notifier, bus := newTestPipeline(store, cls, []string{"hopeless"}, "I'm here for you")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		UserID: "u1",
		Text:   "I feel completely hopeless",
		Email:  "a@b.com",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !res.AlertTriggered {
		t.Error("expected alert for score -0.8 / tone anxious")
	}
	if kw.calls != 1 {
		t.Errorf("keyword extraction ran %d times, want 1", kw.calls)
	}
	if len(res.Keywords) == 0 {
		t.Error("expected non-empty keywords")
	}
	if res.BotResponse == "" {
		t.Error("expected non-empty bot response")
	}
	if notifier.calls != 1 {
		t.Errorf("notification attempted %d times, want 1", notifier.calls)
	}
	if notifier.to != "a@b.com" {
		t.Errorf("notification to %q", notifier.to)
	}
	if !strings.Contains(notifier.body, "u1") || !strings.Contains(notifier.body, "anxious") {
		t.Errorf("notification body missing context: %q", notifier.body)
	}
	if res.NotificationStatus != NotificationSent {
		t.Errorf("NotificationStatus = %q, want %q", res.NotificationStatus, NotificationSent)
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != SubjectAlert {
		t.Errorf("alert event subjects = %v", bus.subjects)
	}

	turns := store.userTurns()
	if len(turns) != 1 {
		t.Fatalf("got %d user turns, want 1", len(turns))
	}
	if turns[0].AlertTriggered == nil || !*turns[0].AlertTriggered {
		t.Error("persisted user turn must carry the alert flag")
	}

	// User turn is written after generation in this branch.
	if gen.turnsAtCall != 0 {
		t.Errorf("strong-emotion branch wrote %d entries before generation, want 0", gen.turnsAtCall)
	}
}

func TestAnalyze_StrongEmotionNoAlertAboveThreshold(t *testing.T) {
	// |score| > 0.6 enters the branch, but a positive score with a calm tone
	// must not raise an alert.
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "positive", SentimentScore: 0.9, ToneLabel: "happy"}
	p, _, _, notifier, _ := newTestPipeline(store, cls, []string{"promotion"}, "congratulations!")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "I got promoted!", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AlertTriggered {
		t.Error("positive strong emotion must not alert")
	}
	if notifier.calls != 0 {
		t.Error("no notification without an alert")
	}
	if len(res.Keywords) != 1 {
		t.Errorf("keywords = %v, strong branch still extracts", res.Keywords)
	}
}

func TestAnalyze_FollowUpPersistsBeforeGeneration(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.5, ToneLabel: "sad"}
	p, _, gen, notifier, _ := newTestPipeline(store, cls, []string{"work"}, "thank you for sharing")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		UserID:     "u1",
		Text:       "it was my job review",
		Email:      "a@b.com",
		IsFollowUp: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if gen.turnsAtCall != 1 {
		t.Errorf("follow-up branch had %d entries persisted before generation, want 1", gen.turnsAtCall)
	}
	turns := store.userTurns()
	if len(turns) != 1 {
		t.Fatalf("user turn persisted %d times, want exactly once", len(turns))
	}
	if !turns[0].IsFollowUp {
		t.Error("follow-up turn must be tagged isFollowUp")
	}
	if turns[0].AlertTriggered == nil || *turns[0].AlertTriggered {
		t.Error("follow-up branch never alerts")
	}
	if res.AlertTriggered {
		t.Error("follow-up result must not alert")
	}
	if notifier.calls != 0 {
		t.Error("follow-up branch must not notify")
	}
	if !strings.HasSuffix(gen.prompts[0], "Assistant:") {
		t.Error("prompt must end with the transcript marker")
	}
}

func TestAnalyze_FollowUpTurnSurvivesGenerationFailure(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.5, ToneLabel: "sad"}
	kw := &fakeKeywords{kws: []string{"work"}}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	p := NewPipeline(store, &fakeClassifier{cls: cls}, kw, gen, nil, nil, testLogger())

	_, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "more context", IsFollowUp: true})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("error = %v, want ErrServiceFailure", err)
	}

	// The early write stays durable; no assistant turn follows.
	if len(store.entries) != 1 || store.entries[0].Sender != SenderUser {
		t.Fatalf("expected the orphaned user turn to remain, got %d entries", len(store.entries))
	}
}

func TestAnalyze_ClassifierFailureAbortsBeforeWrites(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, &fakeClassifier{err: errors.New("service down")}, &fakeKeywords{}, &fakeGenerator{}, nil, nil, testLogger())

	_, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "hello"})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("error = %v, want ErrServiceFailure", err)
	}
	if len(store.entries) != 0 {
		t.Error("classifier failure must not persist anything")
	}
}

func TestAnalyze_GeneratorFailureAbortsNonFollowUp(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.8, ToneLabel: "anxious"}
	gen := &fakeGenerator{err: errors.New("timeout")}
	p := NewPipeline(store, &fakeClassifier{cls: cls}, &fakeKeywords{kws: []string{"x"}}, gen, nil, nil, testLogger())

	_, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "bad"})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("error = %v, want ErrServiceFailure", err)
	}
	if len(store.entries) != 0 {
		t.Error("non-follow-up generation failure must leave no writes")
	}
}

func TestAnalyze_PersistenceFailure(t *testing.T) {
	store := &fakeStore{failAppend: true}
	cls := Classification{SentimentLabel: "neutral", SentimentScore: 0.1, ToneLabel: "calm"}
	p, _, _, _, _ := newTestPipeline(store, cls, nil, "hi")

	_, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "hello"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
}

func TestAnalyze_NotificationFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.9, ToneLabel: "angry"}
	kw := &fakeKeywords{kws: []string{"argument"}}
	gen := &fakeGenerator{reply: "that sounds hard"}
	notifier := &fakeNotifier{err: errors.New("smtp refused")}
	p := NewPipeline(store, &fakeClassifier{cls: cls}, kw, gen, notifier, nil, testLogger())

	res, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "we fought", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("notification failure leaked into the result: %v", err)
	}
	if res.NotificationStatus != NotificationFailed {
		t.Errorf("NotificationStatus = %q, want %q", res.NotificationStatus, NotificationFailed)
	}
	if !res.AlertTriggered || res.BotResponse == "" {
		t.Error("response must be intact despite the failed notification")
	}
}

func TestAnalyze_AlertWithoutEmailSkipsNotification(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.9, ToneLabel: "angry"}
	p, _, _, notifier, _ := newTestPipeline(store, cls, []string{"x"}, "reply")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "awful day"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if notifier.calls != 0 {
		t.Error("no email supplied, notifier must not be called")
	}
	if res.NotificationStatus != NotificationSkipped {
		t.Errorf("NotificationStatus = %q, want %q", res.NotificationStatus, NotificationSkipped)
	}
}

func TestAnalyze_EmptyKeywordSetStillRecorded(t *testing.T) {
	store := &fakeStore{}
	cls := Classification{SentimentLabel: "negative", SentimentScore: -0.7, ToneLabel: "sad"}
	p, _, _, _, _ := newTestPipeline(store, cls, nil, "reply")

	res, err := p.Analyze(context.Background(), AnalyzeRequest{UserID: "u1", Text: "meh"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Keywords == nil || len(res.Keywords) != 0 {
		t.Errorf("keywords = %#v, want empty non-nil set", res.Keywords)
	}
	turns := store.userTurns()
	if turns[0].TriggerKeywords == nil {
		t.Error("persisted turn must record that extraction ran")
	}
}
