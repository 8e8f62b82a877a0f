package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidQuality     = "INVALID_QUALITY"
	ErrCodeInsufficientData   = "INSUFFICIENT_DATA"
	ErrCodePlanNotAdjustable  = "PLAN_NOT_ADJUSTABLE"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_QUALITY")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so errors.Is works across instances.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewInvalidQualityError rejects a quality value outside the 0-5 domain.
// Raised before any state mutation.
func NewInvalidQualityError(quality int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidQuality,
		Message: fmt.Sprintf("quality must be between 0 and 5, got %d", quality),
		Status:  400,
	}
}

// NewInsufficientDataError signals that too few observations exist to fit a
// forgetting curve. Distinguishable from a valid zero-confidence curve.
func NewInsufficientDataError(have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientData,
		Message: fmt.Sprintf("need at least %d observations to fit a curve, have %d", need, have),
		Status:  422,
	}
}

// NewPlanNotAdjustableError signals the target plan cannot accept an
// adjustment (missing, archived, or completed).
func NewPlanNotAdjustableError(planID int64, reason string) *AppError {
	return &AppError{
		Code:    ErrCodePlanNotAdjustable,
		Message: fmt.Sprintf("plan %d not adjustable: %s", planID, reason),
		Status:  409,
	}
}

// NewStorageUnavailableError wraps a failed fetch/persist call. The only
// category callers are expected to retry.
func NewStorageUnavailableError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStorageUnavailable,
		Message: fmt.Sprintf("storage operation failed: %s", op),
		Status:  503,
		Err:     err,
	}
}
