package scheduling

import "context"

// Filter narrows appointment listings. Zero fields are ignored.
type Filter struct {
	PatientID  int64
	ProviderID int64
	Status     Status
}

type AppointmentRepository interface {
	// Create persists a new appointment after checking the provider's
	// scheduled interval for overlap. The check and insert run in one
	// transaction serialized per provider; an overlap yields a conflict
	// error.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// UpdateStatus persists the status and reschedule shadow fields only.
	UpdateStatus(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
}

type TypeRepository interface {
	Create(ctx context.Context, t *AppointmentType) error
	GetByName(ctx context.Context, name string) (*AppointmentType, error)
	List(ctx context.Context) ([]*AppointmentType, error)
}
