// Package guard is the single route-authorization decision point. Every
// protected route declares a required role; the guard decides allow or
// redirect. It never raises errors, and page code must not re-implement
// role checks on its own.
package guard

import (
	"strings"

	"ecowatch/api/internal/models"
	"ecowatch/api/internal/session"
)

// Canonical default locations per role.
const (
	PathLogin       = "/login"
	PathAdminHome   = "/admin/reports"
	PathRescuerHome = "/rescuer/reports"
	PathUserHome    = "/user"
)

// Decision is the guard's verdict. RedirectTo is set both on denial and on
// normalization (allowed, but the caller should move to its own section).
type Decision struct {
	Allow      bool
	RedirectTo string
}

// DefaultPath returns the role's canonical landing location.
func DefaultPath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return PathAdminHome
	case models.RoleRescuer:
		return PathRescuerHome
	case models.RoleUser:
		return PathUserHome
	default:
		return PathLogin
	}
}

// section is the path prefix owned by a role.
func section(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleRescuer:
		return "/rescuer"
	case models.RoleUser:
		return "/user"
	default:
		return ""
	}
}

// Evaluate applies the decision table:
//
//  1. no valid session token        -> deny, redirect to login
//  2. route requires no role        -> allow
//  3. session role == required role -> allow; if the current location is
//     outside that role's section, redirect to the role's default path
//  4. session role != required role -> deny, redirect to the session
//     role's own default path (login when the session has no role)
//
// The result is a strict partition: a logged-in role never lands on a page
// belonging to another role, and mismatches are corrected silently.
func Evaluate(sess session.Session, required models.Role, currentPath string) Decision {
	if !sess.IsLoggedIn || sess.Token == "" {
		return Decision{Allow: false, RedirectTo: PathLogin}
	}

	if required == models.RoleNone {
		return Decision{Allow: true}
	}

	if sess.Role == required {
		if !strings.HasPrefix(currentPath, section(required)) {
			return Decision{Allow: true, RedirectTo: DefaultPath(required)}
		}
		return Decision{Allow: true}
	}

	return Decision{Allow: false, RedirectTo: DefaultPath(sess.Role)}
}
