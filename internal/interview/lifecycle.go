package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/metrics"
	"swipe/interview/internal/models"
	"swipe/interview/internal/resume"
	"swipe/interview/internal/scoring"
	"swipe/interview/internal/session"
	"swipe/interview/internal/timer"
)

const timeExpiredFeedback = "Time expired without an answer."

// StartInterview creates the candidate record and starts their session. It is
// refused while any unfinished interview awaits a resume or discard decision.
func (s *Service) StartInterview(ctx context.Context, req models.StartInterviewRequest) (*models.StartInterviewResponse, error) {
	if err := s.reconcilePending(ctx); err != nil {
		s.logger.Warn("failed to reconcile pending decisions", zap.Error(err))
	}
	s.mu.RLock()
	blocked := len(s.pending) > 0
	s.mu.RUnlock()
	if blocked {
		return nil, models.ErrDecisionPending
	}

	candidateID := uuid.New().String()
	qs := models.NormalizeQuestions(req.Questions)
	if len(qs) == 0 {
		generated, err := s.generator.Generate(ctx, candidateID, req.ResumeText)
		if err != nil {
			return nil, fmt.Errorf("generate questions: %w", err)
		}
		qs = generated
	}

	contact := resume.ExtractContact(req.ResumeText)
	candidate := &models.Candidate{
		ID:             candidateID,
		Name:           firstNonEmpty(req.Name, contact.Name),
		Email:          firstNonEmpty(req.Email, contact.Email),
		Phone:          firstNonEmpty(req.Phone, contact.Phone),
		Position:       req.Position,
		ResumeFilename: req.ResumeFilename,
		ResumeSize:     req.ResumeSize,
		ResumeText:     req.ResumeText,
		SessionID:      uuid.New().String(),
		Status:         models.CandidateInProgress,
	}

	m := session.NewMachine(s.clock, s.opts)
	if err := m.Start(candidate.SessionID, candidate.ID, qs); err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	candidate.Questions = snap.Questions

	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	s.register(m, true)
	s.changed(ctx, snap)
	s.publish(ctx, broadcast.EventCandidatesUpdate, "", candidate)
	metrics.ObserveSessionEvent("started")

	s.logger.Info("interview started",
		zap.String("session_id", snap.SessionID),
		zap.String("candidate_id", candidate.ID))
	return &models.StartInterviewResponse{Candidate: *candidate, Session: snap}, nil
}

// ResolveDecision settles one pending decision. Resume regenerates the
// question set from the stored resume text and starts a fresh session. A
// decision already settled by another instance is dropped locally and
// reported as ErrDecisionResolved.
func (s *Service) ResolveDecision(ctx context.Context, candidateID string, decision models.Decision) (*models.Session, error) {
	s.mu.RLock()
	p, ok := s.pending[candidateID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrCandidateNotFound
	}
	if decision != models.DecisionDiscard && decision != models.DecisionResume {
		return nil, &models.ErrorResponse{Code: "invalid_decision", Message: "Decision must be one of: resume, discard"}
	}

	c, err := s.candidates.GetByID(ctx, candidateID)
	if errors.Is(err, models.ErrCandidateNotFound) {
		s.dropPending(candidateID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if c.Status != models.CandidateInProgress || c.SessionID != p.SessionID {
		s.dropPending(candidateID)
		return nil, models.ErrDecisionResolved
	}

	var started *models.Session
	switch decision {
	case models.DecisionDiscard:
		if err := s.candidates.Discard(ctx, candidateID); err != nil {
			return nil, err
		}
		metrics.ObserveSessionEvent("discarded")
	case models.DecisionResume:
		qs, err := s.generator.Generate(ctx, candidateID, c.ResumeText)
		if err != nil {
			return nil, fmt.Errorf("generate questions: %w", err)
		}
		m := session.NewMachine(s.clock, s.opts)
		if err := m.Start(uuid.New().String(), candidateID, qs); err != nil {
			return nil, err
		}
		if err := s.candidates.AttachSession(ctx, candidateID, m.SessionID()); err != nil {
			return nil, err
		}
		s.register(m, true)
		snap := m.Snapshot()
		s.changed(ctx, snap)
		started = &snap
		metrics.ObserveSessionEvent("resumed")
	}

	s.dropPending(candidateID)
	s.publish(ctx, broadcast.EventCandidatesUpdate, "", nil)

	s.logger.Info("pending interview resolved",
		zap.String("candidate_id", candidateID),
		zap.String("decision", string(decision)))
	return started, nil
}

func (s *Service) UpdateDraft(ctx context.Context, sessionID string, index int, text string) (models.Session, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return models.Session{}, err
	}
	if err := m.UpdateDraftAnswer(index, text); err != nil {
		return models.Session{}, err
	}
	snap := m.Snapshot()
	s.changed(ctx, snap)
	return snap, nil
}

// SubmitAnswer scores the answer and finalizes the question. Scoring runs
// outside the session lock; the caller advances separately.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, index int, text string) (*models.SubmitResponse, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	if snap.Finished() {
		return nil, models.ErrSessionFinished
	}
	if index != snap.CurrentIndex {
		return nil, models.ErrNotActiveQuestion
	}
	q := snap.Questions[index]
	if q.Submitted() {
		return nil, models.ErrAlreadySubmitted
	}

	done, err := s.begin(sessionID, index)
	if err != nil {
		return nil, err
	}
	defer done()

	result := s.scorer.Evaluate(ctx, scoring.Request{
		RequestID:      sessionID,
		Question:       q.Text,
		Answer:         text,
		Difficulty:     q.Difficulty,
		ExpectedPoints: q.ExpectedPoints,
	})
	conf := result.Confidence
	if err := m.RecordEvaluation(index, session.Evaluation{
		AnswerText:  text,
		Score:       result.Score,
		Feedback:    result.Feedback,
		FoundPoints: result.FoundPoints,
		Confidence:  &conf,
	}); err != nil {
		return nil, err
	}

	snap = m.Snapshot()
	s.changed(ctx, snap)
	s.logger.Info("answer evaluated",
		zap.String("session_id", sessionID),
		zap.Int("question_index", index),
		zap.String("source", string(result.Source)),
		zap.Float64("score", *snap.Questions[index].Score))

	return &models.SubmitResponse{
		Session:    snap,
		Score:      *snap.Questions[index].Score,
		Feedback:   result.Feedback,
		Confidence: *snap.Questions[index].Confidence,
		Source:     string(result.Source),
		Found:      result.FoundPoints,
	}, nil
}

// Advance moves to the next question and completes the interview after the last.
func (s *Service) Advance(ctx context.Context, sessionID string) (models.Session, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return models.Session{}, err
	}
	index := m.Snapshot().CurrentIndex
	finished, moved, err := m.AdvanceFrom(index)
	if err != nil {
		return models.Session{}, err
	}
	snap := m.Snapshot()
	if !moved {
		return snap, nil
	}
	s.changed(ctx, snap)
	if finished {
		s.finish(ctx, m)
	}
	return snap, nil
}

func (s *Service) Pause(ctx context.Context, sessionID string) (models.Session, error) {
	return s.transition(ctx, sessionID, "paused", (*session.Machine).Pause)
}

func (s *Service) Resume(ctx context.Context, sessionID string) (models.Session, error) {
	return s.transition(ctx, sessionID, "unpaused", (*session.Machine).Resume)
}

func (s *Service) transition(ctx context.Context, sessionID, event string, fn func(*session.Machine) error) (models.Session, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return models.Session{}, err
	}
	before := m.Snapshot().UpdatedAt
	if err := fn(m); err != nil {
		return models.Session{}, err
	}
	snap := m.Snapshot()
	if snap.UpdatedAt.After(before) {
		s.changed(ctx, snap)
		metrics.ObserveSessionEvent(event)
	}
	return snap, nil
}

// End finishes the interview early; unanswered questions score zero.
func (s *Service) End(ctx context.Context, sessionID string) (models.Session, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return models.Session{}, err
	}
	changed, err := m.End()
	if err != nil {
		return models.Session{}, err
	}
	snap := m.Snapshot()
	if changed {
		s.changed(ctx, snap)
		metrics.ObserveSessionEvent("ended")
		s.finish(ctx, m)
	}
	return snap, nil
}

// Complete retries the completion of a finished session whose candidate
// record could not be written earlier.
func (s *Service) Complete(ctx context.Context, sessionID string) (*models.Candidate, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	if !snap.Finished() {
		return nil, ErrSessionActive
	}
	if err := s.complete(ctx, m); err != nil {
		return nil, err
	}
	return s.candidates.GetByID(ctx, snap.CandidateID)
}

// HandleTimeUp finalizes the active question when its timer expires and moves
// on. An empty draft scores zero without consulting the scorer.
func (s *Service) HandleTimeUp(ctx context.Context, sessionID string, index int) {
	m, err := s.machine(sessionID)
	if err != nil {
		return
	}
	snap := m.Snapshot()
	if snap.Finished() || snap.Status == models.StatusPaused || snap.CurrentIndex != index {
		return
	}
	q := snap.Questions[index]
	log := s.logger.With(zap.String("session_id", sessionID), zap.Int("question_index", index))

	if !q.Submitted() {
		done, err := s.begin(sessionID, index)
		if err != nil {
			// a manual submit is already evaluating this question
			return
		}
		eval := s.timeUpEvaluation(ctx, sessionID, q)
		done()
		if err := m.RecordEvaluation(index, eval); err != nil && !errors.Is(err, models.ErrAlreadySubmitted) {
			log.Warn("time-up evaluation not recorded", zap.Error(err))
			return
		}
	}

	metrics.ObserveTimeUp()
	s.publish(ctx, broadcast.EventTimeUp, sessionID, map[string]int{"questionIndex": index})

	// End or a manual advance may have landed since the snapshot
	finished, moved, err := m.AdvanceFrom(index)
	if err != nil {
		log.Warn("advance after time-up failed", zap.Error(err))
		s.changed(ctx, m.Snapshot())
		return
	}
	if !moved {
		return
	}
	s.changed(ctx, m.Snapshot())
	log.Info("question time expired", zap.Bool("finished", finished))
	if finished {
		s.finish(ctx, m)
	}
}

func (s *Service) timeUpEvaluation(ctx context.Context, sessionID string, q models.Question) session.Evaluation {
	one := 1.0
	if q.AnswerText == "" {
		return session.Evaluation{Score: 0, Feedback: timeExpiredFeedback, Confidence: &one}
	}
	result := s.scorer.Evaluate(ctx, scoring.Request{
		RequestID:      sessionID,
		Question:       q.Text,
		Answer:         q.AnswerText,
		Difficulty:     q.Difficulty,
		ExpectedPoints: q.ExpectedPoints,
	})
	conf := result.Confidence
	return session.Evaluation{
		AnswerText:  q.AnswerText,
		Score:       result.Score,
		Feedback:    result.Feedback,
		FoundPoints: result.FoundPoints,
		Confidence:  &conf,
	}
}

// RemainingTime reports the live countdown of the active question.
func (s *Service) RemainingTime(sessionID string) (*models.TimerResponse, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	now := s.clock.Now()
	remaining := timer.SessionRemaining(snap, now)
	return &models.TimerResponse{
		SessionID:        sessionID,
		QuestionIndex:    snap.CurrentIndex,
		RemainingSeconds: remaining,
		Level:            string(timer.Classify(remaining)),
		Paused:           snap.Status == models.StatusPaused,
		ServerTime:       now.UTC(),
	}, nil
}

// PublishTick forwards a watcher tick to local subscribers.
func (s *Service) PublishTick(sessionID string, index, remaining int) {
	s.publish(context.Background(), broadcast.EventTimerTick, sessionID, models.TimerResponse{
		SessionID:        sessionID,
		QuestionIndex:    index,
		RemainingSeconds: remaining,
		Level:            string(timer.Classify(remaining)),
		ServerTime:       s.clock.Now().UTC(),
	})
}

// finish completes a session that just reached finished; failures leave it in
// memory and in the store for a later Complete.
func (s *Service) finish(ctx context.Context, m *session.Machine) {
	if err := s.complete(ctx, m); err != nil {
		s.logger.Error("interview completion failed",
			zap.String("session_id", m.SessionID()),
			zap.Error(err))
	}
}

func (s *Service) complete(ctx context.Context, m *session.Machine) error {
	snap := m.Snapshot()
	summary := s.summarizer.Summarize(ctx, snap.SessionID, snap.Questions)
	completedAt := s.clock.Now()

	if err := s.candidates.Complete(ctx, snap.CandidateID, summary.FinalScore, summary.Text, snap.Questions, completedAt); err != nil {
		return fmt.Errorf("complete candidate %s: %w", snap.CandidateID, err)
	}
	metrics.ObserveSessionEvent("completed")
	metrics.ObserveFinalScore(summary.FinalScore)

	s.publish(ctx, broadcast.EventSessionFinished, snap.SessionID, summary)
	s.publish(ctx, broadcast.EventCandidatesUpdate, "", nil)

	s.forget(snap.SessionID)
	if err := s.sessions.Delete(ctx, snap.SessionID); err != nil {
		s.logger.Warn("failed to delete finished session", zap.String("session_id", snap.SessionID), zap.Error(err))
	}
	s.logger.Info("interview completed",
		zap.String("session_id", snap.SessionID),
		zap.String("candidate_id", snap.CandidateID),
		zap.Int("final_score", summary.FinalScore),
		zap.String("summary_source", string(summary.Source)),
		zap.Duration("duration", completedAt.Sub(snap.CreatedAt).Round(time.Second)))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
