package insurance

import "time"

// Insurance is a coverage policy held by a patient. Policy numbers are
// unique across all insurers.
type Insurance struct {
	ID           int64     `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	ProviderName string    `db:"provider_name" json:"provider_name"`
	PolicyNumber string    `db:"policy_number" json:"policy_number"`
	ExpiryDate   time.Time `db:"expiry_date" json:"expiry_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
