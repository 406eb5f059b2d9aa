package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"swipe/interview/internal/middleware"
	"swipe/interview/internal/models"
	"swipe/interview/internal/utils"
)

// InterviewService is the candidate-facing surface of interview.Service.
type InterviewService interface {
	StartInterview(ctx context.Context, req models.StartInterviewRequest) (*models.StartInterviewResponse, error)
	PendingDecisions() []models.PendingDecision
	ResolveDecision(ctx context.Context, candidateID string, decision models.Decision) (*models.Session, error)
	Session(id string) (models.Session, error)
	UpdateDraft(ctx context.Context, sessionID string, index int, text string) (models.Session, error)
	SubmitAnswer(ctx context.Context, sessionID string, index int, text string) (*models.SubmitResponse, error)
	Advance(ctx context.Context, sessionID string) (models.Session, error)
	Pause(ctx context.Context, sessionID string) (models.Session, error)
	Resume(ctx context.Context, sessionID string) (models.Session, error)
	End(ctx context.Context, sessionID string) (models.Session, error)
	Complete(ctx context.Context, sessionID string) (*models.Candidate, error)
	RemainingTime(sessionID string) (*models.TimerResponse, error)
}

type InterviewHandler struct {
	service InterviewService
	logger  *zap.Logger
}

func NewInterviewHandler(service InterviewService, logger *zap.Logger) *InterviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewHandler{service: service, logger: logger}
}

func (h *InterviewHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.Body[models.StartInterviewRequest](r)

	resp, err := h.service.StartInterview(r.Context(), *req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *InterviewHandler) PendingHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.service.PendingDecisions())
}

func (h *InterviewHandler) DecisionHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.Body[models.DecisionRequest](r)
	candidateID := chi.URLParam(r, "candidate_id")

	s, err := h.service.ResolveDecision(r.Context(), candidateID, req.Decision)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if s == nil {
		utils.NoContent(w)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *InterviewHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Session(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *InterviewHandler) DraftHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.Body[models.DraftRequest](r)
	idx, ok := questionIndex(w, r)
	if !ok {
		return
	}

	s, err := h.service.UpdateDraft(r.Context(), chi.URLParam(r, "session_id"), idx, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *InterviewHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.Body[models.SubmitRequest](r)
	idx, ok := questionIndex(w, r)
	if !ok {
		return
	}

	resp, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "session_id"), idx, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Advance)
}

func (h *InterviewHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pause)
}

func (h *InterviewHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resume)
}

func (h *InterviewHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.End)
}

func (h *InterviewHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (models.Session, error)) {
	s, err := fn(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

// CompleteHandler retries a completion that failed to persist.
func (h *InterviewHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Complete(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *InterviewHandler) TimerHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.RemainingTime(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}
