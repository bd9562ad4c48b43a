package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/db"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	var personID interface{}
	if u.PersonID != 0 {
		personID = u.PersonID
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role, person_id)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.Role, personID,
	).Scan(&u.ID, &u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("username already taken")
	}
	return err
}

const userCols = `id, username, password_hash, role, COALESCE(person_id, 0), created_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.PersonID, &u.CreatedAt)
	return &u, err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := r.scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
