package model

import "time"

type Equipment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TotalCount  int       `json:"total_count"`
	// AvailableCount is total minus the equipment's pending loans. It is the
	// value the loan store invalidates through the event bus on completion.
	AvailableCount int       `json:"available_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
