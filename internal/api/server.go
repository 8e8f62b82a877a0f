package api

import (
	"database/sql"

	"github.com/vytor/reviewloop/internal/services"
)

type Server struct {
	DB               *sql.DB
	ReviewService    services.ReviewService
	RetentionService services.RetentionService
	PlanService      services.PlanService
}
