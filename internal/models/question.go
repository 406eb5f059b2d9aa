package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question is one interview prompt together with its answer and evaluation.
type Question struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Difficulty       Difficulty `json:"difficulty"`
	ExpectedPoints   []string   `json:"expectedPoints"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	StartedAt        *time.Time `json:"startedAt"`
	SubmittedAt      *time.Time `json:"submittedAt"`
	AnswerText       string     `json:"answerText"`
	Score            *float64   `json:"score"`
	Feedback         string     `json:"feedback"`
	FoundPoints      []string   `json:"foundPoints,omitempty"`
	Confidence       *float64   `json:"confidence,omitempty"`
	// time spent paused while this question was active, excluded from its timer
	PausedMillis int64 `json:"pausedMillis,omitempty"`
}

// NewQuestion builds an unstarted question; the time limit follows the difficulty.
func NewQuestion(id, text string, difficulty Difficulty, expectedPoints []string) Question {
	if expectedPoints == nil {
		expectedPoints = []string{}
	}
	return Question{
		ID:               id,
		Text:             text,
		Difficulty:       difficulty,
		ExpectedPoints:   expectedPoints,
		TimeLimitSeconds: difficulty.TimeLimitSeconds(),
	}
}

// NormalizeQuestions rebuilds a question set as fresh, unstarted questions.
// Blank or repeated IDs get a new UUID and time limits always follow the
// difficulty; answers and scores carried on the input are dropped.
func NormalizeQuestions(qs []Question) []Question {
	out := make([]Question, 0, len(qs))
	seen := make(map[string]bool, len(qs))
	for _, q := range qs {
		id := strings.TrimSpace(q.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		difficulty := Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))
		out = append(out, NewQuestion(id, strings.TrimSpace(q.Text), difficulty, append([]string(nil), q.ExpectedPoints...)))
	}
	return out
}

func (q *Question) Started() bool   { return q.StartedAt != nil }
func (q *Question) Submitted() bool { return q.SubmittedAt != nil }

// Active reports whether the question is running: started and not yet submitted.
func (q *Question) Active() bool { return q.Started() && !q.Submitted() }

// ScoreValue returns the score, treating an unscored question as zero.
func (q *Question) ScoreValue() float64 {
	if q.Score == nil {
		return 0
	}
	return *q.Score
}

// Clone returns a deep copy so snapshots never alias machine state.
func (q Question) Clone() Question {
	out := q
	out.ExpectedPoints = append([]string(nil), q.ExpectedPoints...)
	out.FoundPoints = append([]string(nil), q.FoundPoints...)
	if q.StartedAt != nil {
		t := *q.StartedAt
		out.StartedAt = &t
	}
	if q.SubmittedAt != nil {
		t := *q.SubmittedAt
		out.SubmittedAt = &t
	}
	if q.Score != nil {
		s := *q.Score
		out.Score = &s
	}
	if q.Confidence != nil {
		c := *q.Confidence
		out.Confidence = &c
	}
	return out
}

// ValidateQuestionSet checks the shape every session requires: six well-formed
// questions split two per difficulty.
func ValidateQuestionSet(questions []Question) error {
	if len(questions) != QuestionsPerSession {
		return &InvalidQuestionSetError{
			Reason: fmt.Sprintf("expected %d questions, got %d", QuestionsPerSession, len(questions)),
		}
	}
	counts := make(map[Difficulty]int)
	for i, q := range questions {
		if !q.Difficulty.Valid() {
			return &InvalidQuestionSetError{Reason: fmt.Sprintf("question %d has invalid difficulty %q", i, q.Difficulty)}
		}
		if q.Text == "" {
			return &InvalidQuestionSetError{Reason: fmt.Sprintf("question %d has empty text", i)}
		}
		if q.TimeLimitSeconds <= 0 {
			return &InvalidQuestionSetError{Reason: fmt.Sprintf("question %d has non-positive time limit", i)}
		}
		counts[q.Difficulty]++
	}
	for _, d := range ValidDifficultiesList() {
		if counts[d] != QuestionsPerDifficulty {
			return &InvalidQuestionSetError{
				Reason: fmt.Sprintf("expected %d %s questions, got %d", QuestionsPerDifficulty, d, counts[d]),
			}
		}
	}
	return nil
}
