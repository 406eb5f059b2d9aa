package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"swipe/interview/internal/handlers"
)

// CandidateRoutes registers the interviewer endpoints behind auth.
func CandidateRoutes(router *chi.Mux, candidateHandler *handlers.CandidateHandler, streamHandler *handlers.StreamHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/candidates", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", candidateHandler.ListHandler)
		r.Delete("/", candidateHandler.ClearHandler)
		r.Get("/ws", streamHandler.AllStream)
		r.Get("/{candidate_id}", candidateHandler.GetHandler)
	})
}
