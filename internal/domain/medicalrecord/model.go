package medicalrecord

import "time"

// MedicalRecord is the clinical note attached to an appointment. Each
// appointment carries at most one record. The patient and provider ids are
// copied from the appointment at creation so record queries need no join.
type MedicalRecord struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	ProviderID    int64     `db:"provider_id" json:"provider_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment     string    `db:"treatment" json:"treatment,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
