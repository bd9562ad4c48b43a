package auth

import "context"

// Role is the coarse access level carried in a credential.
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleProvider || r == RoleAdmin
}

// Actor is the authenticated caller: the user account id, its role and the
// linked person id (zero when the account is not linked to a person).
type Actor struct {
	UserID   int64
	Role     Role
	PersonID int64
}

// Authenticated reports whether the actor was resolved from a credential.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext retrieves the actor set by the auth middleware. The zero
// Actor is returned for unauthenticated requests.
func ActorFromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey).(Actor)
	return a
}
