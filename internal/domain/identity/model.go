package identity

import (
	"time"

	"github.com/emiadi/emiadi/internal/platform/auth"
)

// User is a credential holder. PersonID links the account to a patient or
// provider record; it is zero for unlinked accounts and required for the
// provider role.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	PersonID     int64     `db:"person_id" json:"person_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
