package routers

import (
	"github.com/go-chi/chi/v5"

	"swipe/interview/internal/handlers"
	"swipe/interview/internal/middleware"
	"swipe/interview/internal/models"
)

func InterviewRoutes(router *chi.Mux, interviewHandler *handlers.InterviewHandler, streamHandler *handlers.StreamHandler) {
	router.Route("/api/v1/interviews", func(r chi.Router) {
		r.With(middleware.DecodeJSON[models.StartInterviewRequest]()).Post("/", interviewHandler.StartHandler)
		r.Get("/pending", interviewHandler.PendingHandler)
		r.With(middleware.DecodeJSON[models.DecisionRequest]()).Post("/pending/{candidate_id}", interviewHandler.DecisionHandler)

		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", interviewHandler.GetSessionHandler)
			r.With(middleware.DecodeJSON[models.DraftRequest]()).Put("/questions/{index}/draft", interviewHandler.DraftHandler)
			r.With(middleware.DecodeJSON[models.SubmitRequest]()).Post("/questions/{index}/submit", interviewHandler.SubmitHandler)
			r.Post("/advance", interviewHandler.AdvanceHandler)
			r.Post("/pause", interviewHandler.PauseHandler)
			r.Post("/resume", interviewHandler.ResumeHandler)
			r.Post("/end", interviewHandler.EndHandler)
			r.Post("/complete", interviewHandler.CompleteHandler)
			r.Get("/timer", interviewHandler.TimerHandler)
			r.Get("/ws", streamHandler.SessionStream)
		})
	})
}
