package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
)

// Action classifies what the actor wants to do with a resource.
type Action int

const (
	// ActionRead covers fetching a single resource the actor is named on.
	ActionRead Action = iota
	// ActionWrite covers create, update and delete of a resource the actor
	// is named on.
	ActionWrite
	// ActionComplete marks an appointment completed; never granted to
	// patient-role actors regardless of ownership.
	ActionComplete
	// ActionListAll lists resources across patients; provider/admin only.
	ActionListAll
)

// Ownership names the patient and provider a resource belongs to. A zero
// field means the resource has no reference of that kind.
type Ownership struct {
	PatientID  int64
	ProviderID int64
}

// Allowed is the single authorization predicate applied by every service.
// Rules, by role:
//   - admin: everything.
//   - patient: only resources whose patient reference matches the linked
//     person id, and never ActionComplete or ActionListAll.
//   - provider: resources whose provider reference matches the linked
//     person id, plus cross-patient listing.
//   - anything else (including the zero Actor): denied.
func Allowed(a Actor, action Action, own Ownership) bool {
	if !a.Authenticated() {
		return false
	}

	switch a.Role {
	case RoleAdmin:
		return true
	case RolePatient:
		if action == ActionComplete || action == ActionListAll {
			return false
		}
		return own.PatientID != 0 && own.PatientID == a.PersonID
	case RoleProvider:
		if action == ActionListAll {
			return true
		}
		return own.ProviderID != 0 && own.ProviderID == a.PersonID
	default:
		return false
	}
}

// RequireRole returns middleware that admits only actors holding one of the
// given roles. Admin always passes.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFromContext(c.Request().Context())
			if actor.Role == RoleAdmin {
				return next(c)
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return apperr.Forbidden(fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
