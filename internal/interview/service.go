package interview

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"swipe/interview/internal/aggregate"
	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/clock"
	"swipe/interview/internal/models"
	"swipe/interview/internal/questions"
	"swipe/interview/internal/repositories"
	"swipe/interview/internal/scoring"
	"swipe/interview/internal/session"
)

var ErrSessionActive = errors.New("session has not finished")

// CandidateStore is the durable candidate list.
type CandidateStore interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context, filter repositories.ListFilter) ([]models.Candidate, error)
	FindInProgress(ctx context.Context) ([]models.Candidate, error)
	AttachSession(ctx context.Context, id, sessionID string) error
	Complete(ctx context.Context, id string, finalScore int, summary string, questions []models.Question, completedAt time.Time) error
	Discard(ctx context.Context, id string) error
	ClearAll(ctx context.Context) (int64, error)
}

// SessionPersister keeps in-progress sessions across restarts.
type SessionPersister interface {
	Save(ctx context.Context, s models.Session) error
	LoadAll(ctx context.Context) ([]models.Session, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type Scorer interface {
	Evaluate(ctx context.Context, req scoring.Request) scoring.Result
}

type Summarizer interface {
	Summarize(ctx context.Context, requestID string, qs []models.Question) aggregate.Summary
}

type Publisher interface {
	Publish(ctx context.Context, ev broadcast.Event)
}

// Deps are the collaborators of a Service. Clock and Logger are optional.
type Deps struct {
	Candidates CandidateStore
	Sessions   SessionPersister
	Generator  questions.Generator
	Scorer     Scorer
	Summarizer Summarizer
	Bus        Publisher
	Clock      clock.Clock
	Logger     *zap.Logger
	Options    session.Options
}

type entry struct {
	machine *session.Machine
	// owned sessions are timed and completed by this instance; the rest are
	// mirrors of sessions driven elsewhere
	owned bool
}

// Service is the single entry point for every interview mutation.
type Service struct {
	candidates CandidateStore
	sessions   SessionPersister
	generator  questions.Generator
	scorer     Scorer
	summarizer Summarizer
	bus        Publisher
	clock      clock.Clock
	logger     *zap.Logger
	opts       session.Options

	mu       sync.RWMutex
	entries  map[string]*entry
	pending  map[string]models.PendingDecision
	inflight map[string]struct{}
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		candidates: d.Candidates,
		sessions:   d.Sessions,
		generator:  d.Generator,
		scorer:     d.Scorer,
		summarizer: d.Summarizer,
		bus:        d.Bus,
		clock:      d.Clock,
		logger:     d.Logger,
		opts:       d.Options,
		entries:    make(map[string]*entry),
		pending:    make(map[string]models.PendingDecision),
		inflight:   make(map[string]struct{}),
	}
}

// Load restores persisted sessions and records a pending decision for every
// in-progress candidate whose session could not be restored.
func (s *Service) Load(ctx context.Context) error {
	persisted, err := s.sessions.LoadAll(ctx)
	if err != nil {
		s.logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	attached := make(map[string]bool)
	var finished []*session.Machine
	s.mu.Lock()
	for _, snap := range persisted {
		m := session.Restore(s.clock, s.opts, snap)
		s.entries[snap.SessionID] = &entry{machine: m, owned: true}
		attached[snap.CandidateID] = true
		if snap.Finished() {
			finished = append(finished, m)
		}
	}
	s.mu.Unlock()

	// finished sessions still in the store are completions that never landed
	for _, m := range finished {
		if err := s.complete(ctx, m); err != nil {
			s.logger.Warn("completion retry failed", zap.String("session_id", m.SessionID()), zap.Error(err))
		}
	}

	open, err := s.candidates.FindInProgress(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, c := range open {
		if attached[c.ID] {
			continue
		}
		s.pending[c.ID] = models.PendingDecision{
			CandidateID: c.ID,
			Name:        c.Name,
			Email:       c.Email,
			StartedAt:   c.CreatedAt,
			SessionID:   c.SessionID,
		}
	}
	restored, pending := len(persisted), len(s.pending)
	s.mu.Unlock()

	s.logger.Info("interview state loaded",
		zap.Int("sessions_restored", restored),
		zap.Int("pending_decisions", pending))
	return nil
}

// reconcilePending drops pending decisions another instance has already
// settled: the candidate is gone, finished, or carries a newer session.
func (s *Service) reconcilePending(ctx context.Context) error {
	s.mu.RLock()
	empty := len(s.pending) == 0
	s.mu.RUnlock()
	if empty {
		return nil
	}

	open, err := s.candidates.FindInProgress(ctx)
	if err != nil {
		return err
	}
	current := make(map[string]string, len(open))
	for _, c := range open {
		current[c.ID] = c.SessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		if sid, ok := current[id]; !ok || sid != p.SessionID {
			delete(s.pending, id)
		}
	}
	return nil
}

// dropPending removes one pending decision without touching storage.
func (s *Service) dropPending(candidateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, candidateID)
}

func (s *Service) PendingDecisions() []models.PendingDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PendingDecision, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// ActiveSessions returns snapshots of the sessions this instance drives.
func (s *Service) ActiveSessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.entries))
	for _, e := range s.entries {
		if e.owned {
			out = append(out, e.machine.Snapshot())
		}
	}
	return out
}

func (s *Service) Session(id string) (models.Session, error) {
	m, err := s.machine(id)
	if err != nil {
		return models.Session{}, err
	}
	return m.Snapshot(), nil
}

func (s *Service) machine(id string) (*session.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return e.machine, nil
}

func (s *Service) register(m *session.Machine, owned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[m.SessionID()] = &entry{machine: m, owned: owned}
}

func (s *Service) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// begin marks a question as being finalized; a second caller gets ErrAlreadySubmitted.
func (s *Service) begin(sessionID string, index int) (func(), error) {
	key := sessionID + "#" + strconv.Itoa(index)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, models.ErrAlreadySubmitted
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight, key)
	}, nil
}

// persist saves the snapshot; failures are logged and never block progress.
func (s *Service) persist(ctx context.Context, snap models.Session) {
	if err := s.sessions.Save(ctx, snap); err != nil {
		s.logger.Warn("session persistence failed",
			zap.String("session_id", snap.SessionID),
			zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, t broadcast.EventType, sessionID string, payload interface{}) {
	if s.bus == nil {
		return
	}
	ev, err := broadcast.NewEvent(t, sessionID, payload)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", string(t)), zap.Error(err))
		return
	}
	ev.Timestamp = s.clock.Now().UTC()
	s.bus.Publish(ctx, ev)
}

// changed persists and announces a new snapshot.
func (s *Service) changed(ctx context.Context, snap models.Session) {
	s.persist(ctx, snap)
	s.publish(ctx, broadcast.EventStateUpdate, snap.SessionID, snap)
}
