package model

import "time"

// Role is the access tier attached to every authenticated identity.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTrainer Role = "TRAINER"
	RoleUser    Role = "USER"
)

// Valid reports whether the role is one of the known tiers. Unknown values
// are treated as "no role" by the policy layer, never as a crash.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	WeightKg     *float64  `json:"weight_kg,omitempty"`
	HeightM      *float64  `json:"height_m,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName is the display name used by entry logs and loan listings.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Type    string `json:"typ"`
	TokenID string `json:"jti"`
}

type AuthUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
	Landing      string   `json:"landing"`
}
