package api

import (
	"net/http"
	"strconv"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
)

type dueItemsResponse struct {
	Items []models.ItemWithUrgency `json:"items"`
	Count int                      `json:"count"`
}

func (s *Server) handleDueItems(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var target float64
	if raw := r.URL.Query().Get("target"); raw != "" {
		target, err = strconv.ParseFloat(raw, 64)
		if err != nil || target <= 0 || target >= 1 {
			handleError(w, r, errors.NewBadRequestError("target must be a number between 0 and 1 exclusive"))
			return
		}
	}

	items, err := s.RetentionService.GetDueItemsRanked(r.Context(), learnerID, target)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dueItemsResponse{Items: items, Count: len(items)})
}

func (s *Server) handleRetentionStats(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	stats, err := s.RetentionService.GetStats(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
