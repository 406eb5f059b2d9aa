package session

import (
	"errors"
	"sync"
	"time"

	"swipe/interview/internal/clock"
	"swipe/interview/internal/models"
)

var (
	ErrNotStarted    = errors.New("session not started")
	ErrSessionPaused = errors.New("session is paused")
)

// Options tunes machine behavior.
type Options struct {
	// FreezeTimerOnPause excludes paused intervals from the active question's
	// elapsed time. When false the question clock keeps running while paused.
	FreezeTimerOnPause bool
}

func DefaultOptions() Options {
	return Options{FreezeTimerOnPause: true}
}

// Evaluation is the finalized answer and its score for one question.
type Evaluation struct {
	AnswerText  string
	Score       float64
	Feedback    string
	FoundPoints []string
	Confidence  *float64
}

// Machine owns one interview session. All mutations go through its methods and
// every read returns a deep copy.
type Machine struct {
	mu    sync.Mutex
	clock clock.Clock
	opts  Options
	s     models.Session
}

func NewMachine(clk clock.Clock, opts Options) *Machine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Machine{clock: clk, opts: opts}
}

// Restore rebuilds a machine from a persisted snapshot.
func Restore(clk clock.Clock, opts Options, s models.Session) *Machine {
	m := NewMachine(clk, opts)
	m.s = s.Clone()
	return m
}

// Start initializes the session and activates the first question.
func (m *Machine) Start(sessionID, candidateID string, questions []models.Question) error {
	if err := models.ValidateQuestionSet(questions); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	qs := make([]models.Question, len(questions))
	for i, q := range questions {
		q = q.Clone()
		q.StartedAt = nil
		q.SubmittedAt = nil
		q.Score = nil
		q.Confidence = nil
		q.FoundPoints = nil
		q.Feedback = ""
		q.AnswerText = ""
		q.PausedMillis = 0
		qs[i] = q
	}
	qs[0].StartedAt = &now

	m.s = models.Session{
		SessionID:    sessionID,
		CandidateID:  candidateID,
		Questions:    qs,
		CurrentIndex: 0,
		Status:       models.StatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func (m *Machine) Snapshot() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone()
}

func (m *Machine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SessionID
}

// UpdateDraftAnswer overwrites the in-progress answer of the active question.
func (m *Machine) UpdateDraftAnswer(index int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.activeLocked(index)
	if err != nil {
		return err
	}
	if m.s.Status == models.StatusPaused {
		return ErrSessionPaused
	}
	q.AnswerText = text
	m.touchLocked()
	return nil
}

// RecordEvaluation finalizes the active question. It is allowed while paused so
// that an evaluation already in flight is not lost.
func (m *Machine) RecordEvaluation(index int, eval Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.activeLocked(index)
	if err != nil {
		return err
	}

	now := m.clock.Now()
	if now.Before(*q.StartedAt) {
		now = *q.StartedAt
	}
	score := clamp(eval.Score, 0, models.MaxQuestionScore)

	q.AnswerText = eval.AnswerText
	q.SubmittedAt = &now
	q.Score = &score
	q.Feedback = eval.Feedback
	q.FoundPoints = append([]string(nil), eval.FoundPoints...)
	if eval.Confidence != nil {
		c := clamp(*eval.Confidence, 0, 1)
		q.Confidence = &c
	}
	m.touchLocked()
	return nil
}

// Advance moves to the next question, or finishes the session after the last
// one. It returns true once the session is finished; on a finished session it
// is a no-op.
func (m *Machine) Advance() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	finished, _, err := m.advanceLocked()
	return finished, err
}

// AdvanceFrom advances only while index is still the current question of an
// unfinished session. moved reports whether this call changed the state, so
// exactly one caller observes the transition to finished.
func (m *Machine) AdvanceFrom(index int) (finished, moved bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s.Status == models.StatusFinished {
		return true, false, nil
	}
	if m.s.CurrentIndex != index {
		return false, false, nil
	}
	return m.advanceLocked()
}

func (m *Machine) advanceLocked() (finished, moved bool, err error) {
	if len(m.s.Questions) == 0 {
		return false, false, ErrNotStarted
	}
	if m.s.Status == models.StatusFinished {
		return true, false, nil
	}
	if m.s.Status == models.StatusPaused {
		return false, false, ErrSessionPaused
	}
	if !m.s.Questions[m.s.CurrentIndex].Submitted() {
		return false, false, models.ErrNotSubmitted
	}

	now := m.clock.Now()
	if m.s.CurrentIndex < len(m.s.Questions)-1 {
		m.s.CurrentIndex++
		m.s.Questions[m.s.CurrentIndex].StartedAt = &now
		m.touchLocked()
		return false, true, nil
	}
	m.s.Status = models.StatusFinished
	m.touchLocked()
	return true, true, nil
}

func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.s.Status {
	case "":
		return ErrNotStarted
	case models.StatusFinished:
		return models.ErrSessionFinished
	case models.StatusPaused:
		return nil
	}
	m.s.Status = models.StatusPaused
	if m.opts.FreezeTimerOnPause {
		now := m.clock.Now()
		m.s.PausedAt = &now
	}
	m.touchLocked()
	return nil
}

func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.s.Status {
	case "":
		return ErrNotStarted
	case models.StatusFinished:
		return models.ErrSessionFinished
	case models.StatusInProgress:
		return nil
	}
	m.settlePauseLocked()
	m.s.Status = models.StatusInProgress
	m.touchLocked()
	return nil
}

// End forces the session to finished from any state. Returns false when it
// was already finished.
func (m *Machine) End() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.s.Questions) == 0 {
		return false, ErrNotStarted
	}
	if m.s.Status == models.StatusFinished {
		return false, nil
	}
	m.settlePauseLocked()
	m.s.Status = models.StatusFinished
	m.touchLocked()
	return true, nil
}

// ApplyIfNewer replaces local state with s when s carries a later UpdatedAt.
// Concurrent edits are not merged; the later write wins.
func (m *Machine) ApplyIfNewer(s models.Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.s.SessionID != "" && m.s.SessionID != s.SessionID {
		return false
	}
	if !s.UpdatedAt.After(m.s.UpdatedAt) {
		return false
	}
	m.s = s.Clone()
	return true
}

func (m *Machine) activeLocked(index int) (*models.Question, error) {
	if len(m.s.Questions) == 0 {
		return nil, ErrNotStarted
	}
	if m.s.Status == models.StatusFinished {
		return nil, models.ErrSessionFinished
	}
	if index != m.s.CurrentIndex {
		return nil, models.ErrNotActiveQuestion
	}
	q := &m.s.Questions[index]
	if q.Submitted() {
		return nil, models.ErrAlreadySubmitted
	}
	return q, nil
}

// settlePauseLocked folds the current pause interval into the active question.
func (m *Machine) settlePauseLocked() {
	if m.s.PausedAt == nil {
		return
	}
	pausedAt := *m.s.PausedAt
	m.s.PausedAt = nil

	q := m.s.ActiveQuestion()
	if q == nil || !q.Active() {
		return
	}
	from := pausedAt
	if q.StartedAt.After(from) {
		from = *q.StartedAt
	}
	if d := m.clock.Now().Sub(from); d > 0 {
		q.PausedMillis += d.Milliseconds()
	}
}

func (m *Machine) touchLocked() {
	now := m.clock.Now()
	if !now.After(m.s.UpdatedAt) {
		now = m.s.UpdatedAt.Add(time.Nanosecond)
	}
	m.s.UpdatedAt = now
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
