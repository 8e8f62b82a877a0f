package models

import "time"

type Learner struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	AbilityEstimate float64   `json:"ability_estimate"`
	CreatedAt       time.Time `json:"created_at"`
}
