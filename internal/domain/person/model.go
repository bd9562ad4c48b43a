package person

import "time"

// Person holds the identity attributes shared by patients and providers.
// The subtypes embed it by value; there is no separate person resource on
// the API.
type Person struct {
	ID          int64      `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone       string     `db:"phone" json:"phone"`
	Email       string     `db:"email" json:"email"`
	Gender      string     `db:"gender" json:"gender,omitempty"`
	NationalID  string     `db:"national_id" json:"national_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Patient is a person who receives care. PatientUID is an opaque external
// identifier; PatientNumber is the human-readable sequential number assigned
// at registration.
type Patient struct {
	Person
	PatientUID    string `db:"patient_uid" json:"patient_uid"`
	PatientNumber string `db:"patient_number" json:"patient_number"`
	Address       string `db:"address" json:"address,omitempty"`
}

// Provider is a person who delivers care. Cadre is the professional grade
// (doctor, nurse, clinical officer) and is required.
type Provider struct {
	Person
	Cadre          string `db:"cadre" json:"cadre"`
	Specialization string `db:"specialization" json:"specialization,omitempty"`
}
