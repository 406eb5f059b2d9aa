package interview

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/models"
	"swipe/interview/internal/session"
)

const reconcileTimeout = 5 * time.Second

// ApplyRemote folds an event published by another instance into local state.
// Sessions first seen this way are mirrored but not timed here.
func (s *Service) ApplyRemote(ev broadcast.Event) {
	switch ev.Type {
	case broadcast.EventStateUpdate:
		var snap models.Session
		if err := json.Unmarshal(ev.Payload, &snap); err != nil {
			s.logger.Warn("malformed remote state update", zap.String("origin", ev.Origin), zap.Error(err))
			return
		}
		if snap.SessionID == "" {
			return
		}
		if m, err := s.machine(snap.SessionID); err == nil {
			if m.ApplyIfNewer(snap) {
				s.logger.Debug("remote state applied", zap.String("session_id", snap.SessionID))
			}
			return
		}
		if snap.Finished() {
			return
		}
		s.register(session.Restore(s.clock, s.opts, snap), false)
	case broadcast.EventSessionFinished:
		if ev.SessionID == "" {
			return
		}
		// the completing instance already wrote the candidate record
		s.forget(ev.SessionID)
	case broadcast.EventCandidatesCleared:
		s.resetLocal()
		s.logger.Info("candidates cleared remotely", zap.String("origin", ev.Origin))
	case broadcast.EventCandidatesUpdate:
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		if err := s.reconcilePending(ctx); err != nil {
			s.logger.Warn("failed to reconcile pending decisions", zap.Error(err))
		}
	}
}
