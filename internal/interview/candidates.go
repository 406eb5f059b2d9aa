package interview

import (
	"context"

	"go.uber.org/zap"

	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/models"
	"swipe/interview/internal/repositories"
)

func (s *Service) ListCandidates(ctx context.Context, filter repositories.ListFilter) (*models.CandidateListResponse, error) {
	list, err := s.candidates.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.CandidateListResponse{Candidates: list, Total: len(list)}, nil
}

func (s *Service) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	return s.candidates.GetByID(ctx, id)
}

// ClearCandidates removes every candidate, every persisted session and every
// pending decision.
func (s *Service) ClearCandidates(ctx context.Context) (int64, error) {
	n, err := s.candidates.ClearAll(ctx)
	if err != nil {
		return 0, err
	}

	s.resetLocal()
	if err := s.sessions.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted sessions", zap.Error(err))
	}
	s.publish(ctx, broadcast.EventCandidatesCleared, "", nil)
	s.publish(ctx, broadcast.EventCandidatesUpdate, "", nil)
	s.logger.Info("candidates cleared", zap.Int64("deleted", n))
	return n, nil
}

func (s *Service) resetLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.pending = make(map[string]models.PendingDecision)
}
