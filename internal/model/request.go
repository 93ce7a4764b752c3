package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterUserRequest struct {
	Name     string   `json:"name"`
	LastName string   `json:"last_name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	// Height may arrive in meters or centimeters depending on the form;
	// values above 3 are treated as centimeters and normalized to meters.
	Height *float64 `json:"height,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name     string   `json:"name"`
	LastName string   `json:"last_name"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

type CreateTrainerRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
}

type UpdateTrainerRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
}

type CreateEquipmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TotalCount  int    `json:"total_count"`
}

type UpdateEquipmentRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TotalCount  int    `json:"total_count"`
}

type CreateLoanRequest struct {
	UserID      string `json:"user_id,omitempty"`
	EquipmentID string `json:"equipment_id"`
}

type CreateEntryLogRequest struct {
	UserID string `json:"user_id,omitempty"`
}
