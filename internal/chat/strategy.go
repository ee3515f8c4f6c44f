package chat

import (
	"fmt"
	"math"
	"strings"
)

// StrategyKind tags the three mutually exclusive response modes.
type StrategyKind string

const (
	StrategyFollowUp      StrategyKind = "follow_up"
	StrategyStrongEmotion StrategyKind = "strong_emotion"
	StrategyNeutral       StrategyKind = "neutral"
)

const (
	followUpThreshold      = 0.4
	strongEmotionThreshold = 0.6
)

// Strategy is the selected response mode plus what the pipeline must do for it.
type Strategy struct {
	Kind            StrategyKind
	ExtractKeywords bool
	EvaluateAlert   bool
}

// SelectStrategy picks exactly one strategy for a classified message.
// Priority order matters: follow-up elaboration wins over strong emotion,
// which wins over the neutral default.
func SelectStrategy(score float64, tone string, isFollowUp bool) Strategy {
	switch {
	case isFollowUp && math.Abs(score) > followUpThreshold:
		return Strategy{Kind: StrategyFollowUp, ExtractKeywords: true}
	case math.Abs(score) > strongEmotionThreshold || isAlertTone(tone):
		return Strategy{Kind: StrategyStrongEmotion, ExtractKeywords: true, EvaluateAlert: true}
	default:
		return Strategy{Kind: StrategyNeutral}
	}
}

// BuildPrompt renders the generation prompt for a strategy. The instruction
// comes first and the transcript last: the generator treats trailing
// transcript lines as the active turn to continue.
func BuildPrompt(s Strategy, text string, c Classification, transcript []string) string {
	var instruction string
	switch s.Kind {
	case StrategyFollowUp:
		instruction = fmt.Sprintf(
			"The user added more context about feeling %s: %q. Respond with warmth and do not ask again what triggered it.",
			c.ToneLabel, text,
		)
	case StrategyStrongEmotion:
		instruction = fmt.Sprintf(
			"You are a caring assistant.\nUser said: %q.\nSentiment: %s (%.2f), Tone: %s.\nAsk empathetically: What happened? What triggered this feeling?",
			text, c.SentimentLabel, c.SentimentScore, c.ToneLabel,
		)
	default:
		instruction = fmt.Sprintf(
			"You're a friendly assistant.\nUser said: %q.\nRespond warmly and continue the conversation.",
			text,
		)
	}
	return instruction + "\n\n" + strings.Join(transcript, "\n")
}
