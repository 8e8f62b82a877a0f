package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/learners/{learnerID}", func(r chi.Router) {
		r.Post("/answers", s.handleSubmitAnswer)
		r.Post("/items", s.handleCreateItem)
		r.Get("/items/{itemID}/preview", s.handlePreviewIntervals)
		r.Get("/due", s.handleDueItems)
		r.Get("/retention", s.handleRetentionStats)
		r.Post("/plans/{planID}/adjust", s.handleAdjustPlan)
	})

	return r
}
