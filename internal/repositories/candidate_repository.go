package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"swipe/interview/internal/models"
)

// sort keys accepted by List
const (
	SortByName      = "name"
	SortByScore     = "score"
	SortByCreatedAt = "createdAt"
)

var sortColumns = map[string]string{
	SortByName:      "name",
	SortByScore:     "final_score",
	SortByCreatedAt: "created_at",
}

// ListFilter narrows and orders the interviewer's candidate list.
type ListFilter struct {
	Search string
	SortBy string
	Order  string
}

type CandidateRepository struct {
	DB *gorm.DB
}

// Migrate creates or updates the candidates table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Candidate{})
}

func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	var c models.Candidate
	err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CandidateRepository) List(ctx context.Context, filter ListFilter) ([]models.Candidate, error) {
	q := r.DB.WithContext(ctx).Model(&models.Candidate{})

	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(position) LIKE ?", like, like, like)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	direction := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		direction = "ASC"
	}
	q = q.Order(fmt.Sprintf("%s %s", column, direction)).Order("id ASC")

	var out []models.Candidate
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindInProgress returns candidates whose interview was started but never completed.
func (r *CandidateRepository) FindInProgress(ctx context.Context) ([]models.Candidate, error) {
	var out []models.Candidate
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.CandidateInProgress).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// Complete stores the final result and the frozen question list in one update.
func (r *CandidateRepository) Complete(ctx context.Context, id string, finalScore int, summary string, questions []models.Question, completedAt time.Time) error {
	frozen := make([]models.Question, len(questions))
	for i, q := range questions {
		frozen[i] = q.Clone()
	}
	result := r.DB.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"final_score":  finalScore,
			"summary":      summary,
			"status":       models.CandidateCompleted,
			"questions":    datatypes.NewJSONSlice(frozen),
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCandidateNotFound
	}
	return nil
}

// AttachSession points the candidate at a new session and marks it in progress.
func (r *CandidateRepository) AttachSession(ctx context.Context, id, sessionID string) error {
	result := r.DB.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"session_id": sessionID, "status": models.CandidateInProgress})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCandidateNotFound
	}
	return nil
}

// Discard closes an unfinished interview without a score.
func (r *CandidateRepository) Discard(ctx context.Context, id string) error {
	result := r.DB.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", id).
		Update("status", models.CandidateCompleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCandidateNotFound
	}
	return nil
}

// ClearAll deletes every candidate record and returns how many were removed.
func (r *CandidateRepository) ClearAll(ctx context.Context) (int64, error) {
	result := r.DB.WithContext(ctx).Where("1 = 1").Delete(&models.Candidate{})
	return result.RowsAffected, result.Error
}

func (r *CandidateRepository) ListUnexported(ctx context.Context, limit int) ([]models.Candidate, error) {
	var out []models.Candidate
	q := r.DB.WithContext(ctx).
		Where("status = ? AND exported = ? AND final_score IS NOT NULL", models.CandidateCompleted, false).
		Order("completed_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *CandidateRepository) MarkExported(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.Candidate{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"exported": true, "exported_at": at}).Error
}
