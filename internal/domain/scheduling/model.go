package scheduling

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

var validStatuses = map[Status]bool{
	StatusScheduled:   true,
	StatusCompleted:   true,
	StatusCancelled:   true,
	StatusRescheduled: true,
}

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s Status) bool { return validStatuses[s] }

// AppointmentType maps to the appointment_types lookup table.
type AppointmentType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Appointment maps to the appointments table. The rescheduled shadow times
// are populated only when the status moves to "rescheduled"; the canonical
// start/end are never overwritten by a reschedule.
type Appointment struct {
	ID                   int64      `db:"id" json:"id"`
	PatientID            int64      `db:"patient_id" json:"patient_id"`
	ProviderID           int64      `db:"provider_id" json:"provider_id"`
	AppointmentTypeID    int64      `db:"appointment_type_id" json:"appointment_type_id"`
	StartTime            time.Time  `db:"start_time" json:"start_time"`
	EndTime              time.Time  `db:"end_time" json:"end_time"`
	Status               Status     `db:"status" json:"status"`
	RescheduledStartTime *time.Time `db:"rescheduled_start_time" json:"rescheduled_start_time,omitempty"`
	RescheduledEndTime   *time.Time `db:"rescheduled_end_time" json:"rescheduled_end_time,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Intervals that merely touch at
// an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
