// Package policy is the pure role/navigation decision layer. It knows
// nothing about HTTP; the router guard middleware wraps its decisions
// around the actual request handling.
package policy

import (
	"strings"

	"fitsync/internal/model"
)

// Client-side landing pages referenced by guard decisions.
const (
	LandingLogin        = "/login"
	LandingDashboard    = "/dashboard"
	LandingProfile      = "/profile"
	LandingUnauthorized = "/unauthorized"
)

type Session struct {
	Authenticated bool
	Role          model.Role
}

// Route declares who may view a path and where to send everyone else.
// An empty Fallback means "the role's default landing page".
type Route struct {
	Path     string
	Roles    []model.Role
	Fallback string
}

// Allows reports role membership. An invalid role never matches, so a
// corrupted role value degrades to "no role" instead of a panic.
func (r Route) Allows(role model.Role) bool {
	if !role.Valid() {
		return false
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type Decision struct {
	Allow      bool
	RedirectTo string
	// ReturnTo preserves the originally requested path across a login
	// redirect so the client can navigate back after authenticating.
	ReturnTo string
}

// ParseRole normalizes a raw role string. ok is false for anything outside
// the enum; callers treat that the same as an absent role.
func ParseRole(raw string) (model.Role, bool) {
	role := model.Role(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// DefaultLanding is where a freshly authenticated session is sent when no
// explicit destination applies.
func DefaultLanding(role model.Role) string {
	switch role {
	case model.RoleAdmin, model.RoleTrainer:
		return LandingDashboard
	case model.RoleUser:
		return LandingProfile
	default:
		return LandingUnauthorized
	}
}

// Decide resolves a (route, session) pair to render-or-redirect. It never
// renders for a session whose role is outside the route's declared set.
func Decide(route Route, sess Session) Decision {
	if !sess.Authenticated {
		return Decision{RedirectTo: LandingLogin, ReturnTo: route.Path}
	}

	if route.Allows(sess.Role) {
		return Decision{Allow: true}
	}

	if route.Fallback != "" {
		return Decision{RedirectTo: route.Fallback}
	}

	return Decision{RedirectTo: DefaultLanding(sess.Role)}
}
