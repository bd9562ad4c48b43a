package scheduling

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

// =========== Appointment Repository ===========

type apptRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &apptRepoPG{pool: pool}
}

func (r *apptRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *apptRepoPG) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := db.TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, r.pool, fn)
}

const apptCols = `id, patient_id, provider_id, appointment_type_id, start_time, end_time,
	status, rescheduled_start_time, rescheduled_end_time, created_at, updated_at`

func (r *apptRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.AppointmentTypeID,
		&a.StartTime, &a.EndTime, &a.Status,
		&a.RescheduledStartTime, &a.RescheduledEndTime, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *apptRepoPG) Create(ctx context.Context, a *Appointment) error {
	return r.withTx(ctx, func(ctx context.Context) error {
		q := r.conn(ctx)

		// Serialize creations per provider. A plain row lock is not enough:
		// two concurrent creations that each see no overlapping row would
		// both insert.
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, a.ProviderID); err != nil {
			return err
		}

		var overlapping bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE provider_id = $1 AND status = $2
				  AND start_time < $4 AND end_time > $3
			)`, a.ProviderID, StatusScheduled, a.StartTime, a.EndTime).Scan(&overlapping)
		if err != nil {
			return err
		}
		if overlapping {
			return apperr.Conflict("provider is not available at the requested time")
		}

		err = q.QueryRow(ctx, `
			INSERT INTO appointments (patient_id, provider_id, appointment_type_id, start_time, end_time, status)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id, created_at, updated_at`,
			a.PatientID, a.ProviderID, a.AppointmentTypeID, a.StartTime, a.EndTime, a.Status,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		return translatePGError(err)
	})
}

func (r *apptRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *apptRepoPG) UpdateStatus(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET status = $2, rescheduled_start_time = $3, rescheduled_end_time = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.RescheduledStartTime, a.RescheduledEndTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

func (r *apptRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != 0 {
		where += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, f.PatientID)
		idx++
	}
	if f.ProviderID != 0 {
		where += fmt.Sprintf(` AND provider_id = $%d`, idx)
		args = append(args, f.ProviderID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + ` FROM appointments` + where +
		fmt.Sprintf(` ORDER BY start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// =========== AppointmentType Repository ===========

type typeRepoPG struct{ pool *pgxpool.Pool }

func NewTypeRepoPG(pool *pgxpool.Pool) TypeRepository { return &typeRepoPG{pool: pool} }

func (r *typeRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *typeRepoPG) Create(ctx context.Context, t *AppointmentType) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_types (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, t.Name).Scan(&t.ID)
	return err
}

func (r *typeRepoPG) GetByName(ctx context.Context, name string) (*AppointmentType, error) {
	var t AppointmentType
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name FROM appointment_types WHERE name = $1`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment type not found")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *typeRepoPG) List(ctx context.Context) ([]*AppointmentType, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM appointment_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*AppointmentType
	for rows.Next() {
		var t AppointmentType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

// translatePGError converts store-level constraint violations into the
// shared taxonomy instead of leaking a raw storage error.
func translatePGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Conflict("duplicate entry")
		case "23503":
			return apperr.NotFound("referenced entity not found")
		}
	}
	return err
}
