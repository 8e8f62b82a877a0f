package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/logger"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleError writes an error response, mapping AppErrors to their status
// codes and everything else to a 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.Status >= 500 {
			log.Error("request failed: %v", err)
		} else {
			log.Debug("request rejected: %v", err)
		}
		respondJSON(w, appErr.Status, errorResponse{
			Error:   appErr.Code,
			Message: appErr.Message,
		})
		return
	}

	log.Error("unexpected error: %v", err)
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   errors.ErrCodeInternal,
		Message: "internal server error",
	})
}
