package person

import "context"

type PatientRepository interface {
	// Create persists the person row and the patient subtype row in one
	// transaction and assigns the sequential patient number.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	// List returns patients whose first or last name matches the search
	// term, or all patients when the term is empty.
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
}

type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id int64) (*Provider, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Provider, int, error)
}
