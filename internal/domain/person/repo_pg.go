package person

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/db"
)

const (
	kindPatient  = "patient"
	kindProvider = "provider"
)

func conn(ctx context.Context, pool *pgxpool.Pool) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func insertPerson(ctx context.Context, q db.Queryable, p *Person, kind string) error {
	err := q.QueryRow(ctx, `
		INSERT INTO persons (first_name, last_name, date_of_birth, phone, email, gender, national_id, kind)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Phone, p.Email, p.Gender, p.NationalID, kind,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translateUniqueViolation(err, "phone, email or national id already registered")
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		if err := insertPerson(ctx, q, &p.Person, kindPatient); err != nil {
			return err
		}

		var next int64
		if err := q.QueryRow(ctx, `SELECT COALESCE(MAX(person_id), 0) + 1 FROM patients`).Scan(&next); err != nil {
			return err
		}
		p.PatientNumber = fmt.Sprintf("PAT-%03d", next)
		p.PatientUID = uuid.NewString()

		_, err := q.Exec(ctx, `
			INSERT INTO patients (person_id, patient_uid, patient_number, address)
			VALUES ($1,$2,$3,$4)`,
			p.ID, p.PatientUID, p.PatientNumber, p.Address)
		return translateUniqueViolation(err, "patient already registered")
	})
}

const patientCols = `p.id, p.first_name, p.last_name, p.date_of_birth, p.phone, p.email,
	p.gender, p.national_id, p.created_at, p.updated_at,
	pt.patient_uid, pt.patient_number, pt.address`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Phone, &p.Email,
		&p.Gender, &p.NationalID, &p.CreatedAt, &p.UpdatedAt,
		&p.PatientUID, &p.PatientNumber, &p.Address)
	return &p, err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+patientCols+`
		FROM persons p JOIN patients pt ON pt.person_id = p.id
		WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ``
	var args []interface{}
	if search != "" {
		where = ` WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM persons p JOIN patients pt ON pt.person_id = p.id`+where,
		args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + `
		FROM persons p JOIN patients pt ON pt.person_id = p.id` + where +
		fmt.Sprintf(` ORDER BY p.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepoPG{pool: pool}
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		if err := insertPerson(ctx, q, &p.Person, kindProvider); err != nil {
			return err
		}

		_, err := q.Exec(ctx, `
			INSERT INTO providers (person_id, cadre, specialization)
			VALUES ($1,$2,$3)`,
			p.ID, p.Cadre, p.Specialization)
		return translateUniqueViolation(err, "provider already registered")
	})
}

const providerCols = `p.id, p.first_name, p.last_name, p.date_of_birth, p.phone, p.email,
	p.gender, p.national_id, p.created_at, p.updated_at,
	pr.cadre, pr.specialization`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Phone, &p.Email,
		&p.Gender, &p.NationalID, &p.CreatedAt, &p.UpdatedAt,
		&p.Cadre, &p.Specialization)
	return &p, err
}

func (r *providerRepoPG) GetByID(ctx context.Context, id int64) (*Provider, error) {
	p, err := scanProvider(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+providerCols+`
		FROM persons p JOIN providers pr ON pr.person_id = p.id
		WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("provider not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *providerRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Provider, int, error) {
	where := ``
	var args []interface{}
	if search != "" {
		where = ` WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM persons p JOIN providers pr ON pr.person_id = p.id`+where,
		args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + providerCols + `
		FROM persons p JOIN providers pr ON pr.person_id = p.id` + where +
		fmt.Sprintf(` ORDER BY p.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func translateUniqueViolation(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict(msg)
	}
	return err
}
