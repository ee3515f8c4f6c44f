package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogStore is the durable, timestamp-ordered chat log consumed by the pipeline
// and its analytics queries.
type LogStore interface {
	AppendEntry(ctx context.Context, e ChatEntry) error
	// RecentEntries returns at most limit entries for a user, most-recent-first.
	RecentEntries(ctx context.Context, userID string, limit int) ([]ChatEntry, error)
	// AlertEntries returns alert-flagged entries carrying a non-empty keyword
	// set, in chronological order (oldest first).
	AlertEntries(ctx context.Context, userID string) ([]ChatEntry, error)
	SummaryByUser(ctx context.Context, userID string) (UserSummary, error)
}

// Classifier wraps the sentiment and tone services as one call per message.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// KeywordExtractor pulls normalized trigger keywords out of a message.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// Generator is the external completion service: prompt in, reply out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers a distress alert. Implementations are fire-and-forget from
// the pipeline's point of view: a failure never fails the request.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EventPublisher fans alert events out to the bus.
type EventPublisher interface {
	Publish(subject string, data any) error
}

// SubjectAlert is the bus subject for distress alerts raised by the pipeline.
const SubjectAlert = "neurobridge.chat.alert"

const notifyTimeout = 10 * time.Second

// AnalyzeRequest is one inbound user message.
type AnalyzeRequest struct {
	Text       string `json:"text"`
	UserID     string `json:"userId"`
	Email      string `json:"email,omitempty"`
	IsFollowUp bool   `json:"isFollowUp,omitempty"`
}

// Notification outcomes reported on AnalyzeResult.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// AnalyzeResult is the structured outcome of one pipeline run.
type AnalyzeResult struct {
	Sentiment          SentimentResult `json:"sentiment"`
	Tone               string          `json:"tone"`
	Keywords           []string        `json:"keywords"`
	AlertTriggered     bool            `json:"alert_triggered"`
	BotResponse        string          `json:"botResponse"`
	NotificationStatus string          `json:"notificationStatus,omitempty"`
}

// Pipeline turns one inbound message into a classified log record, a generated
// reply and an alert decision.
type Pipeline struct {
	store      LogStore
	classifier Classifier
	keywords   KeywordExtractor
	generator  Generator
	notifier   Notifier       // optional
	events     EventPublisher // optional
	logger     *slog.Logger

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewPipeline(store LogStore, cls Classifier, kw KeywordExtractor, gen Generator, notifier Notifier, events EventPublisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		classifier: cls,
		keywords:   kw,
		generator:  gen,
		notifier:   notifier,
		events:     events,
		logger:     logger,
	}
}

// Analyze runs the full message pipeline: classify, assemble history, select a
// strategy, generate a reply, persist both turns and raise an alert if needed.
//
// The history read and both writes are serialized per user so that two
// concurrent messages from the same user cannot interleave their windows.
// If generation fails after the follow-up branch's early write, that user turn
// stays durable with no assistant counterpart; entries are immutable and this
// design does not compensate.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if req.UserID == "" || req.Text == "" {
		return nil, ErrMissingFields
	}

	cls, err := p.classifier.Classify(ctx, req.Text)
	if err != nil {
		return nil, serviceErr("classify", err)
	}

	unlock := p.lockUser(req.UserID)
	defer unlock()

	transcript, err := p.buildContext(ctx, req.UserID, req.Text)
	if err != nil {
		return nil, persistErr("history", err)
	}

	strategy := SelectStrategy(cls.SentimentScore, cls.ToneLabel, req.IsFollowUp)

	var keywords []string
	if strategy.ExtractKeywords {
		kws, err := p.keywords.ExtractKeywords(ctx, req.Text)
		if err != nil {
			return nil, serviceErr("extract keywords", err)
		}
		if kws == nil {
			kws = []string{} // extraction ran: record an empty set, not absence
		}
		keywords = kws
	}

	alert := false
	if strategy.EvaluateAlert {
		alert = EvaluateAlert(cls.SentimentScore, cls.ToneLabel)
	}

	// The follow-up branch persists the user turn before generation.
	persisted := false
	if strategy.Kind == StrategyFollowUp {
		turn := NewUserTurn(req.UserID, req.Text, cls, keywords, false, true)
		if err := p.store.AppendEntry(ctx, turn); err != nil {
			return nil, persistErr("append follow-up turn", err)
		}
		persisted = true
	}

	prompt := BuildPrompt(strategy, req.Text, cls, transcript)

	reply, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, serviceErr("generate", err)
	}

	if !persisted {
		turn := NewUserTurn(req.UserID, req.Text, cls, keywords, alert, false)
		if err := p.store.AppendEntry(ctx, turn); err != nil {
			return nil, persistErr("append user turn", err)
		}
	}
	if err := p.store.AppendEntry(ctx, NewAssistantTurn(req.UserID, reply)); err != nil {
		return nil, persistErr("append assistant turn", err)
	}

	result := &AnalyzeResult{
		Sentiment:      SentimentResult{Label: cls.SentimentLabel, Score: cls.SentimentScore},
		Tone:           cls.ToneLabel,
		Keywords:       keywords,
		AlertTriggered: alert,
		BotResponse:    reply,
	}

	if alert {
		result.NotificationStatus = p.notifyAlert(ctx, req, cls)
		p.publishAlert(req, cls, keywords)
	}

	return result, nil
}

// notifyAlert sends the distress notification best-effort: failures are logged
// and reported on the result, never propagated to the caller.
func (p *Pipeline) notifyAlert(ctx context.Context, req AnalyzeRequest, cls Classification) string {
	if req.Email == "" || p.notifier == nil {
		return NotificationSkipped
	}

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	subject := "NeuroBridge Alert: Mood Warning"
	body := fmt.Sprintf(
		"User %s has shown signs of distress.\n\nMessage: %q\nTone: %s\nSentiment score: %g",
		req.UserID, req.Text, cls.ToneLabel, cls.SentimentScore,
	)
	if err := p.notifier.Send(nctx, req.Email, subject, body); err != nil {
		p.logger.Error("alert notification failed", "user_id", req.UserID, "error", err)
		return NotificationFailed
	}
	return NotificationSent
}

func (p *Pipeline) publishAlert(req AnalyzeRequest, cls Classification, keywords []string) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(SubjectAlert, map[string]any{
		"user_id":  req.UserID,
		"tone":     cls.ToneLabel,
		"score":    cls.SentimentScore,
		"keywords": keywords,
	}); err != nil {
		p.logger.Warn("failed to publish alert event", "user_id", req.UserID, "error", err)
	}
}

func (p *Pipeline) lockUser(userID string) func() {
	v, _ := p.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func serviceErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrServiceFailure)
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrPersistence)
}
