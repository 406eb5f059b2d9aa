package interview

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swipe/interview/internal/aggregate"
	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/clock"
	"swipe/interview/internal/models"
	"swipe/interview/internal/repositories"
	"swipe/interview/internal/scoring"
	"swipe/interview/internal/session"
	"swipe/interview/internal/store"
	"swipe/interview/internal/testhelpers"
)

type stubGenerator struct {
	calls int
	err   error
}

func (g *stubGenerator) Generate(ctx context.Context, requestID, resumeText string) ([]models.Question, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return questionSet(), nil
}

func questionSet() []models.Question {
	return []models.Question{
		models.NewQuestion("e1", "What is JSX?", models.DifficultyEasy, []string{"syntax"}),
		models.NewQuestion("e2", "What is a prop?", models.DifficultyEasy, nil),
		models.NewQuestion("m1", "Explain the event loop.", models.DifficultyMedium, nil),
		models.NewQuestion("m2", "How does useEffect cleanup work?", models.DifficultyMedium, nil),
		models.NewQuestion("h1", "Design a rate limiter.", models.DifficultyHard, nil),
		models.NewQuestion("h2", "Scale a websocket service.", models.DifficultyHard, nil),
	}
}

type recordingBus struct {
	events []broadcast.Event
	// onPublish runs after an event is recorded
	onPublish func(broadcast.Event)
}

func (b *recordingBus) Publish(ctx context.Context, ev broadcast.Event) {
	b.events = append(b.events, ev)
	if b.onPublish != nil {
		b.onPublish(ev)
	}
}

func (b *recordingBus) count(t broadcast.EventType) int {
	n := 0
	for _, ev := range b.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	svc      *Service
	repo     *repositories.CandidateRepository
	sessions *store.SessionStore
	gen      *stubGenerator
	bus      *recordingBus
	clock    *clock.Fake
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	_, rdb := testhelpers.SetupTestRedis(t)

	h := &harness{
		repo:     &repositories.CandidateRepository{DB: db},
		sessions: store.NewSessionStore(store.NewRedisKV(rdb, "test", 0), zap.NewNop()),
		gen:      &stubGenerator{},
		bus:      &recordingBus{},
		clock:    clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	h.svc = h.newService()
	return h
}

func (h *harness) newService() *Service {
	return NewService(Deps{
		Candidates: h.repo,
		Sessions:   h.sessions,
		Generator:  h.gen,
		Scorer:     scoring.NewEngine(zap.NewNop()),
		Summarizer: aggregate.NewAggregator(nil, nil, 0, zap.NewNop()),
		Bus:        h.bus,
		Clock:      h.clock,
		Logger:     zap.NewNop(),
		Options:    session.DefaultOptions(),
	})
}

func (h *harness) start(t *testing.T) *models.StartInterviewResponse {
	t.Helper()
	resp, err := h.svc.StartInterview(context.Background(), models.StartInterviewRequest{
		Name:       "Ada Lovelace",
		ResumeText: "Ada Lovelace\nada@example.com\n+1 555 010 2030\nReact and Node.js developer",
	})
	require.NoError(t, err)
	return resp
}

func TestStartInterview_CreatesCandidateAndSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.start(t)
	assert.Equal(t, 1, h.gen.calls)
	assert.Equal(t, "Ada Lovelace", resp.Candidate.Name)
	assert.Equal(t, "ada@example.com", resp.Candidate.Email)
	assert.Equal(t, models.CandidateInProgress, resp.Candidate.Status)
	assert.Equal(t, models.StatusInProgress, resp.Session.Status)
	assert.Len(t, resp.Session.Questions, models.QuestionsPerSession)
	require.NotNil(t, resp.Session.Questions[0].StartedAt)

	stored, err := h.repo.GetByID(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.SessionID, stored.SessionID)

	persisted, err := h.sessions.Load(ctx, resp.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.SessionID, persisted.SessionID)

	assert.Equal(t, 1, h.bus.count(broadcast.EventStateUpdate))
	assert.Equal(t, 1, h.bus.count(broadcast.EventCandidatesUpdate))
	assert.Len(t, h.svc.ActiveSessions(), 1)
}

func TestStartInterview_SuppliedQuestionsSkipGenerator(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.StartInterview(context.Background(), models.StartInterviewRequest{
		Name:      "Grace",
		Questions: questionSet(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, h.gen.calls)
}

func TestStartInterview_SuppliedQuestionsFollowDifficultyRules(t *testing.T) {
	h := newHarness(t)
	qs := questionSet()
	qs[0].ID = ""
	qs[0].TimeLimitSeconds = 1
	qs[4].TimeLimitSeconds = 5

	resp, err := h.svc.StartInterview(context.Background(), models.StartInterviewRequest{Questions: qs})
	require.NoError(t, err)
	first := resp.Session.Questions[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.DifficultyEasy.TimeLimitSeconds(), first.TimeLimitSeconds)
	assert.Equal(t, models.DifficultyHard.TimeLimitSeconds(), resp.Session.Questions[4].TimeLimitSeconds)

	rem, err := h.svc.RemainingTime(resp.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyEasy.TimeLimitSeconds(), rem.RemainingSeconds)
}

func TestStartInterview_GeneratorFailure(t *testing.T) {
	h := newHarness(t)
	h.gen.err = &models.InvalidQuestionSetError{Reason: "expected 6 questions, got 4"}

	_, err := h.svc.StartInterview(context.Background(), models.StartInterviewRequest{ResumeText: "resume"})
	assert.ErrorIs(t, err, models.ErrInvalidQuestionSet)
	assert.Empty(t, h.svc.ActiveSessions())
}

func TestSubmitAnswer_ScoresWithoutAdvancing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.UpdateDraft(ctx, id, 0, "JSX is")
	require.NoError(t, err)

	out, err := h.svc.SubmitAnswer(ctx, id, 0, "JSX is a syntax extension that compiles to React.createElement calls, for example <div/>.")
	require.NoError(t, err)
	assert.Equal(t, string(scoring.SourceHeuristic), out.Source)
	assert.GreaterOrEqual(t, out.Score, 0.0)
	assert.LessOrEqual(t, out.Score, 10.0)
	assert.Equal(t, 0, out.Session.CurrentIndex)
	require.NotNil(t, out.Session.Questions[0].SubmittedAt)

	_, err = h.svc.SubmitAnswer(ctx, id, 0, "again")
	assert.ErrorIs(t, err, models.ErrAlreadySubmitted)

	_, err = h.svc.UpdateDraft(ctx, id, 0, "late edit")
	assert.ErrorIs(t, err, models.ErrAlreadySubmitted)

	_, err = h.svc.SubmitAnswer(ctx, id, 1, "wrong question")
	assert.ErrorIs(t, err, models.ErrNotActiveQuestion)
}

func TestSubmitAnswer_EmptyAnswerScoresZero(t *testing.T) {
	h := newHarness(t)
	resp := h.start(t)

	out, err := h.svc.SubmitAnswer(context.Background(), resp.Session.SessionID, 0, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, string(scoring.SourceEmpty), out.Source)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestSubmitAnswer_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SubmitAnswer(context.Background(), "missing", 0, "x")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestFullInterview_CompletesCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	for i := 0; i < models.QuestionsPerSession; i++ {
		_, err := h.svc.SubmitAnswer(ctx, id, i, "")
		require.NoError(t, err)
		h.clock.Advance(time.Second)
		_, err = h.svc.Advance(ctx, id)
		require.NoError(t, err)
	}

	_, err := h.svc.Session(id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	_, err = h.sessions.Load(ctx, id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	c, err := h.repo.GetByID(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, c.Status)
	require.NotNil(t, c.FinalScore)
	assert.Equal(t, 0, *c.FinalScore)
	assert.Equal(t, aggregate.TemplateSummary(0), c.Summary)
	assert.Len(t, c.Questions, models.QuestionsPerSession)
	assert.Equal(t, 1, h.bus.count(broadcast.EventSessionFinished))
}

func TestAdvance_RequiresSubmission(t *testing.T) {
	h := newHarness(t)
	resp := h.start(t)

	_, err := h.svc.Advance(context.Background(), resp.Session.SessionID)
	assert.ErrorIs(t, err, models.ErrNotSubmitted)
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	h.clock.Advance(100 * time.Second)
	snap, err := h.svc.Pause(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, snap.Status)

	h.clock.Advance(time.Hour)
	tr, err := h.svc.RemainingTime(id)
	require.NoError(t, err)
	assert.True(t, tr.Paused)
	assert.Equal(t, 200, tr.RemainingSeconds)

	_, err = h.svc.UpdateDraft(ctx, id, 0, "typing while paused")
	assert.ErrorIs(t, err, session.ErrSessionPaused)

	events := len(h.bus.events)
	_, err = h.svc.Pause(ctx, id)
	require.NoError(t, err)
	assert.Len(t, h.bus.events, events, "repeated pause should not publish")

	snap, err = h.svc.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, snap.Status)

	h.clock.Advance(10 * time.Second)
	tr, err = h.svc.RemainingTime(id)
	require.NoError(t, err)
	assert.Equal(t, 190, tr.RemainingSeconds)
	assert.Equal(t, "normal", tr.Level)
}

func TestEnd_CompletesEarly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.SubmitAnswer(ctx, id, 0, "JSX is syntax sugar for createElement, for example in components, because it is readable.")
	require.NoError(t, err)

	snap, err := h.svc.End(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, snap.Status)

	c, err := h.repo.GetByID(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, c.Status)
	assert.Equal(t, aggregate.FinalScore(snap.Questions), *c.FinalScore)

	_, err = h.svc.End(ctx, id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestCompletionFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.Complete(ctx, id)
	assert.ErrorIs(t, err, ErrSessionActive)

	db := h.repo.DB
	testhelpers.DropCandidateTable(t, db)
	_, err = h.svc.End(ctx, id)
	require.NoError(t, err)

	snap, err := h.svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, snap.Status)

	require.NoError(t, db.AutoMigrate(&models.Candidate{}))
	require.NoError(t, h.repo.Create(ctx, &models.Candidate{ID: resp.Candidate.ID, Status: models.CandidateInProgress}))

	c, err := h.svc.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, c.Status)
	_, err = h.svc.Session(id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestHandleTimeUp_EmptyDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	h.clock.Advance(301 * time.Second)
	h.svc.HandleTimeUp(ctx, id, 0)

	snap, err := h.svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentIndex)
	q := snap.Questions[0]
	require.NotNil(t, q.Score)
	assert.Equal(t, 0.0, *q.Score)
	assert.Equal(t, timeExpiredFeedback, q.Feedback)
	assert.Equal(t, 1, h.bus.count(broadcast.EventTimeUp))

	// stale signal for an index already passed
	h.svc.HandleTimeUp(ctx, id, 0)
	snap, _ = h.svc.Session(id)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestHandleTimeUp_ScoresDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.UpdateDraft(ctx, id, 0, "JSX compiles to createElement calls")
	require.NoError(t, err)
	h.clock.Advance(301 * time.Second)
	h.svc.HandleTimeUp(ctx, id, 0)

	snap, err := h.svc.Session(id)
	require.NoError(t, err)
	q := snap.Questions[0]
	assert.Equal(t, "JSX compiles to createElement calls", q.AnswerText)
	assert.NotEqual(t, timeExpiredFeedback, q.Feedback)
	require.NotNil(t, q.SubmittedAt)
}

func TestHandleTimeUp_EndDuringExpiryCompletesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.SubmitAnswer(ctx, id, 0, "JSX is syntax sugar for createElement.")
	require.NoError(t, err)

	// the interviewer ends the session while the expiry is in flight
	h.bus.onPublish = func(ev broadcast.Event) {
		if ev.Type == broadcast.EventTimeUp {
			_, err := h.svc.End(ctx, id)
			require.NoError(t, err)
		}
	}
	h.clock.Advance(301 * time.Second)
	h.svc.HandleTimeUp(ctx, id, 0)

	assert.Equal(t, 1, h.bus.count(broadcast.EventSessionFinished))
	c, err := h.repo.GetByID(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, c.Status)
	_, err = h.svc.Session(id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestHandleTimeUp_IgnoredWhilePaused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	_, err := h.svc.Pause(ctx, id)
	require.NoError(t, err)
	h.svc.HandleTimeUp(ctx, id, 0)

	snap, _ := h.svc.Session(id)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Nil(t, snap.Questions[0].SubmittedAt)
}

func TestLoad_RestoresSessionsAndPendingDecisions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)

	orphan := &models.Candidate{
		ID:         "orphan",
		Name:       "Linus",
		ResumeText: "Go developer",
		Status:     models.CandidateInProgress,
		SessionID:  "lost-session",
	}
	require.NoError(t, h.repo.Create(ctx, orphan))

	restarted := h.newService()
	require.NoError(t, restarted.Load(ctx))

	snap, err := restarted.Session(resp.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.SessionID, snap.SessionID)

	pending := restarted.PendingDecisions()
	require.Len(t, pending, 1)
	assert.Equal(t, "orphan", pending[0].CandidateID)

	_, err = restarted.StartInterview(ctx, models.StartInterviewRequest{ResumeText: "x"})
	assert.ErrorIs(t, err, models.ErrDecisionPending)
}

func TestLoad_RetriesFinishedSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)

	finished := resp.Session.Clone()
	finished.Status = models.StatusFinished
	finished.UpdatedAt = finished.UpdatedAt.Add(time.Second)
	require.NoError(t, h.sessions.Save(ctx, finished))

	restarted := h.newService()
	require.NoError(t, restarted.Load(ctx))

	_, err := restarted.Session(resp.Session.SessionID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	c, err := h.repo.GetByID(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, c.Status)
	assert.Empty(t, restarted.PendingDecisions())
}

func TestResolveDecision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, id := range []string{"keep", "drop"} {
		require.NoError(t, h.repo.Create(ctx, &models.Candidate{
			ID:         id,
			ResumeText: "React developer",
			Status:     models.CandidateInProgress,
		}))
	}
	require.NoError(t, h.svc.Load(ctx))
	require.Len(t, h.svc.PendingDecisions(), 2)

	_, err := h.svc.ResolveDecision(ctx, "nobody", models.DecisionResume)
	assert.ErrorIs(t, err, models.ErrCandidateNotFound)

	snap, err := h.svc.ResolveDecision(ctx, "keep", models.DecisionResume)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "keep", snap.CandidateID)
	kept, err := h.repo.GetByID(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, kept.SessionID)

	_, err = h.svc.StartInterview(ctx, models.StartInterviewRequest{ResumeText: "x"})
	assert.ErrorIs(t, err, models.ErrDecisionPending)

	snap, err = h.svc.ResolveDecision(ctx, "drop", models.DecisionDiscard)
	require.NoError(t, err)
	assert.Nil(t, snap)
	dropped, err := h.repo.GetByID(ctx, "drop")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateCompleted, dropped.Status)

	assert.Empty(t, h.svc.PendingDecisions())
	h.start(t)
}

func TestClearCandidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t)
	h.start(t)

	n, err := h.svc.ClearCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, h.svc.ActiveSessions())

	all, err := h.sessions.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	list, err := h.svc.ListCandidates(ctx, repositories.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
}

func TestResolveDecision_SettledOnAnotherInstance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, id := range []string{"resumed", "discarded", "cleared"} {
		require.NoError(t, h.repo.Create(ctx, &models.Candidate{
			ID:         id,
			ResumeText: "React developer",
			Status:     models.CandidateInProgress,
		}))
	}
	other := h.newService()
	require.NoError(t, h.svc.Load(ctx))
	require.NoError(t, other.Load(ctx))
	require.Len(t, other.PendingDecisions(), 3)

	_, err := h.svc.ResolveDecision(ctx, "resumed", models.DecisionResume)
	require.NoError(t, err)
	_, err = other.ResolveDecision(ctx, "resumed", models.DecisionDiscard)
	assert.ErrorIs(t, err, models.ErrDecisionResolved)

	c, err := h.repo.GetByID(ctx, "resumed")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateInProgress, c.Status, "stale discard must not touch the resumed candidate")

	_, err = h.svc.ResolveDecision(ctx, "discarded", models.DecisionDiscard)
	require.NoError(t, err)
	other.ApplyRemote(broadcast.Event{Type: broadcast.EventCandidatesUpdate})

	require.NoError(t, h.repo.DB.Where("id = ?", "cleared").Delete(&models.Candidate{}).Error)
	_, err = other.ResolveDecision(ctx, "cleared", models.DecisionResume)
	assert.ErrorIs(t, err, models.ErrCandidateNotFound)

	assert.Empty(t, other.PendingDecisions())
	_, err = other.StartInterview(ctx, models.StartInterviewRequest{ResumeText: "Go developer"})
	assert.NoError(t, err)
}

func TestStartInterview_ReconcilesStalePending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.repo.Create(ctx, &models.Candidate{
		ID:         "stale",
		ResumeText: "React developer",
		Status:     models.CandidateInProgress,
	}))
	other := h.newService()
	require.NoError(t, h.svc.Load(ctx))
	require.NoError(t, other.Load(ctx))

	_, err := h.svc.ResolveDecision(ctx, "stale", models.DecisionDiscard)
	require.NoError(t, err)

	// no bus delivery: the start itself notices the decision is gone
	_, err = other.StartInterview(ctx, models.StartInterviewRequest{ResumeText: "Go developer"})
	require.NoError(t, err)
	assert.Empty(t, other.PendingDecisions())
}

func TestClearCandidates_ReachesOtherInstances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.repo.Create(ctx, &models.Candidate{
		ID:         "waiting",
		ResumeText: "React developer",
		Status:     models.CandidateInProgress,
	}))
	other := h.newService()
	require.NoError(t, other.Load(ctx))
	require.Len(t, other.PendingDecisions(), 1)

	resp := h.start(t)
	payload, err := json.Marshal(resp.Session)
	require.NoError(t, err)
	other.ApplyRemote(broadcast.Event{Type: broadcast.EventStateUpdate, SessionID: resp.Session.SessionID, Payload: payload})
	_, err = other.Session(resp.Session.SessionID)
	require.NoError(t, err)

	_, err = h.svc.ClearCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.bus.count(broadcast.EventCandidatesCleared))

	for _, ev := range h.bus.events {
		if ev.Type == broadcast.EventCandidatesCleared {
			other.ApplyRemote(ev)
		}
	}
	assert.Empty(t, other.PendingDecisions())
	_, err = other.Session(resp.Session.SessionID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	_, err = other.StartInterview(ctx, models.StartInterviewRequest{ResumeText: "Go developer"})
	assert.NoError(t, err)
}

func TestListAndGetCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)

	list, err := h.svc.ListCandidates(ctx, repositories.ListFilter{Search: "ada"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	c, err := h.svc.GetCandidate(ctx, resp.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.Name)

	_, err = h.svc.GetCandidate(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrCandidateNotFound))
}

func TestPersistenceFailureDoesNotBlockProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { down.Close() })
	h.sessions = store.NewSessionStore(store.NewRedisKV(down, "test", 0), zap.NewNop())
	h.svc = h.newService()

	resp := h.start(t)
	_, err := h.svc.UpdateDraft(ctx, resp.Session.SessionID, 0, "still works")
	require.NoError(t, err)
	snap, err := h.svc.Session(resp.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "still works", snap.Questions[0].AnswerText)
}

func TestApplyRemote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.start(t)
	id := resp.Session.SessionID

	newer := resp.Session.Clone()
	newer.Questions[0].AnswerText = "from another tab"
	newer.UpdatedAt = newer.UpdatedAt.Add(time.Minute)
	payload, err := json.Marshal(newer)
	require.NoError(t, err)
	h.svc.ApplyRemote(broadcast.Event{Type: broadcast.EventStateUpdate, SessionID: id, Payload: payload})

	snap, err := h.svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, "from another tab", snap.Questions[0].AnswerText)

	stale := resp.Session.Clone()
	stale.Questions[0].AnswerText = "stale"
	payload, _ = json.Marshal(stale)
	h.svc.ApplyRemote(broadcast.Event{Type: broadcast.EventStateUpdate, SessionID: id, Payload: payload})
	snap, _ = h.svc.Session(id)
	assert.Equal(t, "from another tab", snap.Questions[0].AnswerText)

	foreign := resp.Session.Clone()
	foreign.SessionID = "foreign"
	payload, _ = json.Marshal(foreign)
	h.svc.ApplyRemote(broadcast.Event{Type: broadcast.EventStateUpdate, SessionID: "foreign", Payload: payload})
	_, err = h.svc.Session("foreign")
	require.NoError(t, err)
	assert.Len(t, h.svc.ActiveSessions(), 1, "mirrored sessions are not timed locally")

	h.svc.ApplyRemote(broadcast.Event{Type: broadcast.EventSessionFinished, SessionID: "foreign"})
	_, err = h.svc.Session("foreign")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	h.svc.ApplyRemote(broadcast.Event{Type: broadcast.EventStateUpdate, Payload: []byte("{")})
	_, err = h.svc.Advance(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotSubmitted)
}

func TestPublishTick(t *testing.T) {
	h := newHarness(t)
	h.svc.PublishTick("s1", 2, 25)
	require.Len(t, h.bus.events, 1)
	ev := h.bus.events[0]
	assert.Equal(t, broadcast.EventTimerTick, ev.Type)

	var tr models.TimerResponse
	require.NoError(t, json.Unmarshal(ev.Payload, &tr))
	assert.Equal(t, 25, tr.RemainingSeconds)
	assert.Equal(t, "warning", tr.Level)
}
