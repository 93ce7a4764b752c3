package middleware

import (
	"context"
	"net/http"
	"strings"

	"fitsync/internal/model"
	"fitsync/internal/policy"
)

type tokenValidator interface {
	ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth extracts and validates the bearer token, storing claims in the
// request context. Guard decides afterwards whether the role may proceed.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeGuardError(w, http.StatusUnauthorized, "missing or invalid authorization header",
				policy.Decision{RedirectTo: policy.LandingLogin, ReturnTo: r.URL.Path})
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, err := m.validator.ValidateToken(token, "access")
		if err != nil {
			writeGuardError(w, http.StatusUnauthorized, "invalid or expired token",
				policy.Decision{RedirectTo: policy.LandingLogin, ReturnTo: r.URL.Path})
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard enforces a declared route policy. The decision is computed by the
// pure policy layer; this wrapper only translates it to an HTTP response.
func (m *AuthMiddleware) Guard(route policy.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())

			sess := policy.Session{}
			if ok {
				sess.Authenticated = true
				sess.Role = claims.Role
			}

			decision := policy.Decide(route, sess)
			if decision.Allow {
				next.ServeHTTP(w, r)
				return
			}

			if !sess.Authenticated {
				writeGuardError(w, http.StatusUnauthorized, "authentication required", decision)
				return
			}

			writeGuardError(w, http.StatusForbidden, "insufficient permissions", decision)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

func writeGuardError(w http.ResponseWriter, status int, message string, decision policy.Decision) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:       code,
			Message:    message,
			RedirectTo: decision.RedirectTo,
			ReturnTo:   decision.ReturnTo,
		},
	})
}
