package medicalrecord

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

const recordCols = `id, appointment_id, patient_id, provider_id,
	COALESCE(diagnosis, ''), COALESCE(treatment, ''), COALESCE(notes, ''),
	created_at, updated_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.AppointmentID, &m.PatientID, &m.ProviderID,
		&m.Diagnosis, &m.Treatment, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *MedicalRecord) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (appointment_id, patient_id, provider_id, diagnosis, treatment, notes)
		VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''))
		RETURNING id, created_at, updated_at`,
		m.AppointmentID, m.PatientID, m.ProviderID, m.Diagnosis, m.Treatment, m.Notes,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("appointment already has a medical record")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*MedicalRecord, error) {
	m, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medical record not found")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID int64) (*MedicalRecord, error) {
	m, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medical record not found")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
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
	if f.Diagnosis != "" {
		where += fmt.Sprintf(` AND diagnosis ILIKE $%d`, idx)
		args = append(args, "%"+f.Diagnosis+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recordCols + ` FROM medical_records` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, m *MedicalRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records
		SET diagnosis = NULLIF($2,''), treatment = NULLIF($3,''), notes = NULLIF($4,''), updated_at = NOW()
		WHERE id = $1`,
		m.ID, m.Diagnosis, m.Treatment, m.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medical record not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medical record not found")
	}
	return nil
}
