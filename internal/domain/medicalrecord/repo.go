package medicalrecord

import "context"

// Filter narrows record listings. Zero fields are ignored; Diagnosis is a
// case-insensitive substring match.
type Filter struct {
	PatientID  int64
	ProviderID int64
	Diagnosis  string
}

type Repository interface {
	// Create persists a new record; a second record for the same
	// appointment yields a conflict error.
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id int64) (*MedicalRecord, error)
	GetByAppointment(ctx context.Context, appointmentID int64) (*MedicalRecord, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error)
	// Update persists the three text fields only.
	Update(ctx context.Context, r *MedicalRecord) error
	Delete(ctx context.Context, id int64) error
}
