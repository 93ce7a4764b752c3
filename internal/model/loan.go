package model

import "time"

type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanReturned LoanStatus = "RETURNED"
)

type Loan struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name"`
	EquipmentID   string     `json:"equipment_id"`
	EquipmentName string     `json:"equipment_name"`
	Status        LoanStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
}
