package api

import (
	"net/http"

	"github.com/vytor/reviewloop/internal/services"
)

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req services.SubmitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.LearnerID = learnerID

	result, err := s.ReviewService.SubmitAnswer(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req services.CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.LearnerID = learnerID

	item, err := s.ReviewService.CreateItem(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handlePreviewIntervals(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	itemID, err := urlParamInt64(r, "itemID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	preview, err := s.ReviewService.PreviewIntervals(r.Context(), learnerID, itemID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, preview)
}
