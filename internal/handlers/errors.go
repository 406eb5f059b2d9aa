package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"swipe/interview/internal/interview"
	"swipe/interview/internal/llm"
	"swipe/interview/internal/models"
	"swipe/interview/internal/questions"
	"swipe/interview/internal/session"
	"swipe/interview/internal/utils"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{models.ErrSessionNotFound, http.StatusNotFound, "session_not_found", "Session not found"},
	{models.ErrCandidateNotFound, http.StatusNotFound, "candidate_not_found", "Candidate not found"},
	{models.ErrAlreadySubmitted, http.StatusConflict, "already_submitted", "Question has already been submitted"},
	{models.ErrNotActiveQuestion, http.StatusConflict, "not_active_question", "Question is not the active question"},
	{models.ErrNotSubmitted, http.StatusConflict, "not_submitted", "Active question has not been submitted"},
	{models.ErrSessionFinished, http.StatusConflict, "session_finished", "Session is finished"},
	{models.ErrDecisionPending, http.StatusConflict, "decision_pending", "Resolve unfinished interviews before starting a new one"},
	{models.ErrDecisionResolved, http.StatusConflict, "decision_resolved", "Unfinished interview was already resolved"},
	{session.ErrSessionPaused, http.StatusConflict, "session_paused", "Session is paused"},
	{session.ErrNotStarted, http.StatusConflict, "session_not_started", "Session has not started"},
	{interview.ErrSessionActive, http.StatusConflict, "session_active", "Session has not finished"},
	{questions.ErrGeneratorUnavailable, http.StatusServiceUnavailable, "generator_unavailable", "Question generation is unavailable; supply questions directly"},
	{models.ErrInvalidQuestionSet, http.StatusBadGateway, "invalid_question_set", "Could not build a valid question set"},
}

// writeError maps service errors to an ErrorResponse and status code.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		utils.JSON(w, http.StatusBadRequest, *errResp)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if m.target == models.ErrInvalidQuestionSet {
				message = err.Error()
			}
			utils.Error(w, m.status, m.code, message)
			return
		}
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		logger.Warn("AI provider error", zap.String("code", string(providerErr.Code)), zap.Error(err))
		if providerErr.Temporary() {
			utils.Error(w, http.StatusServiceUnavailable, "ai_unavailable", "AI provider is temporarily unavailable, try again shortly")
			return
		}
		utils.Error(w, http.StatusBadGateway, "ai_error", "AI provider rejected the request")
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	utils.Error(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func questionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= models.QuestionsPerSession {
		utils.Error(w, http.StatusBadRequest, "invalid_index", "Question index must be between 0 and 5")
		return 0, false
	}
	return idx, true
}
