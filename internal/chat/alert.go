package chat

const negativeAlertThreshold = -0.6

var alertTones = map[string]bool{
	"angry":      true,
	"anxious":    true,
	"frustrated": true,
}

// EvaluateAlert decides whether a message indicates distress. Note the
// asymmetry with strategy selection: entering the strong-emotion branch uses
// |score| > 0.6, but the alert itself fires only on score < -0.6 or an alert
// tone. The pipeline consults this predicate in that branch alone.
func EvaluateAlert(score float64, tone string) bool {
	return score < negativeAlertThreshold || isAlertTone(tone)
}

func isAlertTone(tone string) bool {
	return alertTones[tone]
}
