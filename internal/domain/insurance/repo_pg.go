package insurance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const insuranceCols = `id, patient_id, provider_name, policy_number, expiry_date, created_at, updated_at`

func scanInsurance(row pgx.Row) (*Insurance, error) {
	var i Insurance
	err := row.Scan(&i.ID, &i.PatientID, &i.ProviderName, &i.PolicyNumber,
		&i.ExpiryDate, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r *repoPG) Create(ctx context.Context, i *Insurance) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurance (patient_id, provider_name, policy_number, expiry_date)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		i.PatientID, i.ProviderName, i.PolicyNumber, i.ExpiryDate,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return translateInsuranceError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Insurance, error) {
	i, err := scanInsurance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+insuranceCols+` FROM insurance WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("insurance policy not found")
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *repoPG) List(ctx context.Context, patientID int64, limit, offset int) ([]*Insurance, int, error) {
	where := ``
	var args []interface{}
	if patientID != 0 {
		where = ` WHERE patient_id = $1`
		args = append(args, patientID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + insuranceCols + ` FROM insurance` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Insurance
	for rows.Next() {
		i, err := scanInsurance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, i *Insurance) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance
		SET provider_name = $2, policy_number = $3, expiry_date = $4, updated_at = NOW()
		WHERE id = $1`,
		i.ID, i.ProviderName, i.PolicyNumber, i.ExpiryDate)
	if err != nil {
		return translateInsuranceError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance policy not found")
	}
	return nil
}

func (r *repoPG) HasAppointmentHistory(ctx context.Context, providerID, patientID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments WHERE provider_id = $1 AND patient_id = $2
		)`, providerID, patientID).Scan(&exists)
	return exists, err
}

func translateInsuranceError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Conflict("policy number already registered")
		case "23503":
			return apperr.NotFound("patient not found")
		}
	}
	return err
}
