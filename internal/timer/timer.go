package timer

import (
	"time"

	"swipe/interview/internal/models"
)

// Level is the urgency of the remaining time, for display only.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

const (
	warningThreshold  = 30
	criticalThreshold = 10
)

// Remaining returns the whole seconds left on q at now. Questions that are not
// started, or already submitted, report 0.
func Remaining(q models.Question, now time.Time) int {
	if q.StartedAt == nil || q.SubmittedAt != nil {
		return 0
	}
	elapsed := now.Sub(*q.StartedAt) - time.Duration(q.PausedMillis)*time.Millisecond
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := q.TimeLimitSeconds - int(elapsed/time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionRemaining returns the remaining seconds of the active question. While
// a frozen pause is in effect the clock is read at the moment of pausing.
func SessionRemaining(s models.Session, now time.Time) int {
	q := s.ActiveQuestion()
	if q == nil || s.Status == models.StatusFinished {
		return 0
	}
	if s.Status == models.StatusPaused && s.PausedAt != nil {
		at := *s.PausedAt
		if q.StartedAt != nil && at.Before(*q.StartedAt) {
			at = *q.StartedAt
		}
		now = at
	}
	return Remaining(*q, now)
}

func Classify(remaining int) Level {
	switch {
	case remaining <= criticalThreshold:
		return LevelCritical
	case remaining <= warningThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}
