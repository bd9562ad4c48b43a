package insurance

import "context"

type Repository interface {
	// Create persists a new policy; a duplicate policy number yields a
	// conflict error.
	Create(ctx context.Context, i *Insurance) error
	GetByID(ctx context.Context, id int64) (*Insurance, error)
	List(ctx context.Context, patientID int64, limit, offset int) ([]*Insurance, int, error)
	// Update replaces all mutable fields of the policy.
	Update(ctx context.Context, i *Insurance) error
	// HasAppointmentHistory reports whether the provider has ever had an
	// appointment with the patient. Providers without history may not see
	// the patient's coverage.
	HasAppointmentHistory(ctx context.Context, providerID, patientID int64) (bool, error)
}
