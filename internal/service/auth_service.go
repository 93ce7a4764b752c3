package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/imc"
	"fitsync/internal/model"
	"fitsync/internal/policy"
	"fitsync/pkg/apierror"
)

type UserAccounts interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Count(ctx context.Context) (int, error)
}

type RefreshTokens interface {
	Store(ctx context.Context, token string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      UserAccounts
	tokens     RefreshTokens
}

func NewAuthService(jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, users UserAccounts, tokens RefreshTokens) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		tokens:     tokens,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		return model.TokenPair{}, model.ErrUserInactive
	}

	return s.issueTokenPair(ctx, user)
}

// RegisterUser is public self-registration; the resulting account always
// carries the USER role. Staff accounts are seeded or promoted out of band.
func (s *AuthService) RegisterUser(ctx context.Context, req model.RegisterUserRequest) (model.AuthUser, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)

	if name == "" || email == "" || password == "" {
		return model.AuthUser{}, apierror.BadRequest("name, email and password are required", "")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.AuthUser{}, apierror.BadRequest("invalid email address", email)
	}
	if len(password) < 8 {
		return model.AuthUser{}, apierror.BadRequest("password must be at least 8 characters", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("hash password: %w", err)
	}

	var heightM *float64
	if req.Height != nil {
		normalized := imc.NormalizeHeight(*req.Height)
		if normalized <= 0 {
			return model.AuthUser{}, apierror.BadRequest("height must be positive", "height")
		}
		heightM = &normalized
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
		WeightKg:     req.WeightKg,
		HeightM:      heightM,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthUser{}, err
	}

	return authUserOf(user), nil
}

// EnsureAdmin seeds the first admin account on an empty user table so the
// role-gated surface is reachable after a fresh deploy.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(password) == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	slog.Info("seeded initial admin account", "email", admin.Email)
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil || ownerID != claims.UserID {
		return model.TokenPair{}, model.ErrTokenNotFound
	}

	// Rotation: the presented token is single-use.
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.TokenPair{}, model.ErrUnauthorized
	}

	return s.issueTokenPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if strings.TrimSpace(refreshToken) == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		slog.Warn("failed to revoke refresh token on logout", "error", err)
	}
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"typ"`
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrTokenExpired
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || claims.Type != expectedType {
		return nil, model.ErrTokenExpired
	}

	// A role outside the enum is carried through as-is; the policy layer
	// degrades it to "no role" instead of failing here.
	return &model.AuthClaims{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Role:    model.Role(claims.Role),
		Type:    claims.Type,
		TokenID: claims.ID,
	}, nil
}

func (s *AuthService) GetAuthUser(ctx context.Context, id string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, err
	}
	return authUserOf(user), nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.signToken(user, "access", now, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.signToken(user, "refresh", now, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, refresh, user.ID, now.Add(s.refreshTTL)); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         authUserOf(user),
		Landing:      policy.DefaultLanding(user.Role),
	}, nil
}

func (s *AuthService) signToken(user model.User, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
		Role:  string(user.Role),
		Type:  typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func authUserOf(u model.User) model.AuthUser {
	return model.AuthUser{
		ID:       u.ID,
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
