package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"swipe/interview/internal/models"
	"swipe/interview/internal/testhelpers"
)

func newRepo(t *testing.T) *CandidateRepository {
	t.Helper()
	return &CandidateRepository{DB: testhelpers.SetupTestDB(t)}
}

func seed(t *testing.T, repo *CandidateRepository, c models.Candidate) *models.Candidate {
	t.Helper()
	if c.Status == "" {
		c.Status = models.CandidateInProgress
	}
	if err := repo.Create(context.Background(), &c); err != nil {
		t.Fatalf("failed to seed candidate: %v", err)
	}
	return &c
}

func answered(d models.Difficulty, score float64) models.Question {
	q := models.NewQuestion(string(d), "question", d, []string{"point"})
	q.Score = &score
	q.AnswerText = "answer"
	return q
}

func TestCandidateRepository_CreateAndGet(t *testing.T) {
	repo := newRepo(t)
	c := seed(t, repo, models.Candidate{ID: "c1", Name: "Jane Doe", Email: "jane@example.com"})

	got, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Email != "jane@example.com" || got.Status != models.CandidateInProgress {
		t.Fatalf("unexpected candidate: %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, models.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestCandidateRepository_CompleteFreezesQuestions(t *testing.T) {
	repo := newRepo(t)
	seed(t, repo, models.Candidate{ID: "c1", Name: "Jane"})
	ctx := context.Background()

	qs := []models.Question{answered(models.DifficultyEasy, 8), answered(models.DifficultyHard, 3)}
	done := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	if err := repo.Complete(ctx, "c1", 62, "Good", qs, done); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	// later mutation of the caller's slice must not leak into the record
	*qs[0].Score = 0

	got, err := repo.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Status != models.CandidateCompleted || got.FinalScore == nil || *got.FinalScore != 62 {
		t.Fatalf("unexpected completion state: %+v", got)
	}
	if len(got.Questions) != 2 || *got.Questions[0].Score != 8 {
		t.Fatalf("unexpected frozen questions: %+v", got.Questions)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("unexpected completedAt: %v", got.CompletedAt)
	}

	if err := repo.Complete(ctx, "missing", 1, "", nil, done); !errors.Is(err, models.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestCandidateRepository_FindInProgressAndDiscard(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	seed(t, repo, models.Candidate{ID: "a", Name: "A"})
	seed(t, repo, models.Candidate{ID: "b", Name: "B", Status: models.CandidateCompleted})

	open, err := repo.FindInProgress(ctx)
	if err != nil {
		t.Fatalf("FindInProgress returned error: %v", err)
	}
	if len(open) != 1 || open[0].ID != "a" {
		t.Fatalf("expected only candidate a, got %+v", open)
	}

	if err := repo.Discard(ctx, "a"); err != nil {
		t.Fatalf("Discard returned error: %v", err)
	}
	open, _ = repo.FindInProgress(ctx)
	if len(open) != 0 {
		t.Fatalf("expected no in-progress candidates, got %d", len(open))
	}
	if err := repo.Discard(ctx, "zzz"); !errors.Is(err, models.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestCandidateRepository_AttachSession(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	seed(t, repo, models.Candidate{ID: "c1", SessionID: "old"})

	if err := repo.AttachSession(ctx, "c1", "new"); err != nil {
		t.Fatalf("AttachSession returned error: %v", err)
	}
	got, _ := repo.GetByID(ctx, "c1")
	if got.SessionID != "new" {
		t.Fatalf("expected session new, got %s", got.SessionID)
	}
	if err := repo.AttachSession(ctx, "missing", "x"); !errors.Is(err, models.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestCandidateRepository_ListSearchAndSort(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	score := func(v int) *int { return &v }

	seed(t, repo, models.Candidate{ID: "1", Name: "Charlie", Email: "c@acme.io", Position: "Backend", FinalScore: score(40)})
	seed(t, repo, models.Candidate{ID: "2", Name: "alice", Email: "a@corp.io", Position: "Frontend", FinalScore: score(90)})
	seed(t, repo, models.Candidate{ID: "3", Name: "Bob", Email: "b@acme.io", Position: "Fullstack", FinalScore: score(70)})

	t.Run("search matches email case-insensitively", func(t *testing.T) {
		got, err := repo.List(ctx, ListFilter{Search: "ACME"})
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(got))
		}
	})

	t.Run("search matches position", func(t *testing.T) {
		got, _ := repo.List(ctx, ListFilter{Search: "front"})
		if len(got) != 1 || got[0].ID != "2" {
			t.Fatalf("expected alice, got %+v", got)
		}
	})

	t.Run("sort by score desc", func(t *testing.T) {
		got, _ := repo.List(ctx, ListFilter{SortBy: SortByScore, Order: "desc"})
		if got[0].ID != "2" || got[1].ID != "3" || got[2].ID != "1" {
			t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
		}
	})

	t.Run("sort by score asc", func(t *testing.T) {
		got, _ := repo.List(ctx, ListFilter{SortBy: SortByScore, Order: "asc"})
		if got[0].ID != "1" {
			t.Fatalf("expected lowest score first, got %s", got[0].ID)
		}
	})
}

func TestCandidateRepository_ExportLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	seed(t, repo, models.Candidate{ID: "done", Name: "Done"})
	seed(t, repo, models.Candidate{ID: "open", Name: "Open"})

	if err := repo.Complete(ctx, "done", 50, "ok", nil, time.Now()); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	pending, err := repo.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexported returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "done" {
		t.Fatalf("expected only completed candidate, got %+v", pending)
	}

	if err := repo.MarkExported(ctx, []string{"done"}, time.Now()); err != nil {
		t.Fatalf("MarkExported returned error: %v", err)
	}
	pending, _ = repo.ListUnexported(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected nothing left to export, got %d", len(pending))
	}
	if err := repo.MarkExported(ctx, nil, time.Now()); err != nil {
		t.Fatalf("MarkExported with no ids returned error: %v", err)
	}
}

func TestCandidateRepository_ClearAll(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	seed(t, repo, models.Candidate{ID: "1"})
	seed(t, repo, models.Candidate{ID: "2"})

	n, err := repo.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	got, _ := repo.List(ctx, ListFilter{})
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestCandidateRepository_Errors(t *testing.T) {
	repo := newRepo(t)
	testhelpers.DropCandidateTable(t, repo.DB)

	if _, err := repo.List(context.Background(), ListFilter{}); err == nil {
		t.Fatal("expected error after dropping table")
	}
	if err := repo.Create(context.Background(), &models.Candidate{ID: "x"}); err == nil {
		t.Fatal("expected create error after dropping table")
	}
}
