package api

import (
	"net/http"

	"github.com/vytor/reviewloop/internal/services"
)

func (s *Server) handleAdjustPlan(w http.ResponseWriter, r *http.Request) {
	learnerID, err := urlParamInt64(r, "learnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	planID, err := urlParamInt64(r, "planID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req services.AdjustPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.LearnerID = learnerID
	req.PlanID = planID

	result, err := s.PlanService.Adjust(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
