package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"swipe/interview/internal/middleware"
	"swipe/interview/internal/models"
	"swipe/interview/internal/repositories"
	"swipe/interview/internal/utils"
)

// CandidateService is the interviewer-facing surface of interview.Service.
type CandidateService interface {
	ListCandidates(ctx context.Context, filter repositories.ListFilter) (*models.CandidateListResponse, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	ClearCandidates(ctx context.Context) (int64, error)
}

type CandidateHandler struct {
	service CandidateService
	logger  *zap.Logger
}

func NewCandidateHandler(service CandidateService, logger *zap.Logger) *CandidateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateHandler{service: service, logger: logger}
}

// ListHandler supports ?search=, ?sort=name|score|createdAt and ?order=asc|desc.
func (h *CandidateHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repositories.ListFilter{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: q.Get("sort"),
		Order:  strings.ToLower(q.Get("order")),
	}
	switch filter.SortBy {
	case "", repositories.SortByName, repositories.SortByScore, repositories.SortByCreatedAt:
	default:
		utils.Error(w, http.StatusBadRequest, "invalid_sort", "sort must be one of: name, score, createdAt")
		return
	}
	if filter.Order != "" && filter.Order != "asc" && filter.Order != "desc" {
		utils.Error(w, http.StatusBadRequest, "invalid_order", "order must be asc or desc")
		return
	}

	resp, err := h.service.ListCandidates(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCandidate(r.Context(), chi.URLParam(r, "candidate_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *CandidateHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearCandidates(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Candidate list cleared", zap.Int64("deleted", n), zap.String("interviewer", middleware.Interviewer(r.Context())))
	utils.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
