package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Trainer related errors
	ErrTrainerNotFound = errors.New("trainer not found")

	// Equipment related errors
	ErrEquipmentNotFound    = errors.New("equipment not found")
	ErrEquipmentUnavailable = errors.New("equipment not available")

	// Loan related errors
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAlreadyReturned = errors.New("loan already returned")

	// Entry log related errors
	ErrDuplicateCheckIn = errors.New("duplicate check-in")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
