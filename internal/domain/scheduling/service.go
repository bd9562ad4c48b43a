package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// Service implements appointment scheduling business logic.
type Service struct {
	appointments AppointmentRepository
	types        TypeRepository
	log          zerolog.Logger
}

func NewService(appointments AppointmentRepository, types TypeRepository, log zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		types:        types,
		log:          log.With().Str("component", "scheduling").Logger(),
	}
}

// CreateInput carries the fields of a new appointment.
type CreateInput struct {
	PatientID         int64
	ProviderID        int64
	AppointmentTypeID int64
	StartTime         time.Time
	EndTime           time.Time
}

// Create validates the requested slot, enforces ownership and persists the
// appointment. The provider availability check runs inside the repository
// transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	fields := map[string]string{}
	if in.PatientID == 0 {
		fields["patient_id"] = "required"
	}
	if in.ProviderID == 0 {
		fields["provider_id"] = "required"
	}
	if in.AppointmentTypeID == 0 {
		fields["appointment_type_id"] = "required"
	}
	if in.StartTime.IsZero() {
		fields["start_time"] = "required"
	}
	if in.EndTime.IsZero() {
		fields["end_time"] = "required"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields("missing required fields", fields)
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, apperr.Validation("end_time must be after start_time")
	}

	actor := auth.ActorFromContext(ctx)
	if !auth.Allowed(actor, auth.ActionWrite, auth.Ownership{PatientID: in.PatientID, ProviderID: in.ProviderID}) {
		return nil, apperr.Forbidden("cannot create appointments for another person")
	}

	a := &Appointment{
		PatientID:         in.PatientID,
		ProviderID:        in.ProviderID,
		AppointmentTypeID: in.AppointmentTypeID,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		Status:            StatusScheduled,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().Int64("appointment_id", a.ID).Int64("provider_id", a.ProviderID).
		Time("start_time", a.StartTime).Msg("appointment created")
	return a, nil
}

// UpdateStatusInput carries a status transition request. The reschedule
// timestamps are required when the target status is "rescheduled" and are
// ignored otherwise.
type UpdateStatusInput struct {
	Status               Status
	RescheduledStartTime *time.Time
	RescheduledEndTime   *time.Time
}

// UpdateStatus moves the appointment to the requested status. Any current
// status may move to any of the four known targets. A reschedule records the
// proposed interval in the shadow fields without changing the canonical
// start/end and without re-checking provider availability.
func (s *Service) UpdateStatus(ctx context.Context, id int64, in UpdateStatusInput) (*Appointment, error) {
	if !ValidStatus(in.Status) {
		return nil, apperr.Validationf("invalid status %q", in.Status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := auth.ActorFromContext(ctx)
	action := auth.ActionWrite
	if in.Status == StatusCompleted {
		action = auth.ActionComplete
	}
	if !auth.Allowed(actor, action, auth.Ownership{PatientID: a.PatientID, ProviderID: a.ProviderID}) {
		return nil, apperr.Forbidden("not allowed to update this appointment")
	}

	if in.Status == StatusRescheduled {
		if in.RescheduledStartTime == nil || in.RescheduledEndTime == nil {
			return nil, apperr.Validation("rescheduled_start_time and rescheduled_end_time are required")
		}
		if !in.RescheduledEndTime.After(*in.RescheduledStartTime) {
			return nil, apperr.Validation("rescheduled_end_time must be after rescheduled_start_time")
		}
		a.RescheduledStartTime = in.RescheduledStartTime
		a.RescheduledEndTime = in.RescheduledEndTime
	}

	a.Status = in.Status
	if err := s.appointments.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().Int64("appointment_id", a.ID).Str("status", string(a.Status)).
		Msg("appointment status updated")
	return a, nil
}

// Get fetches a single appointment visible to the actor.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor := auth.ActorFromContext(ctx)
	if !auth.Allowed(actor, auth.ActionRead, auth.Ownership{PatientID: a.PatientID, ProviderID: a.ProviderID}) {
		return nil, apperr.Forbidden("not allowed to view this appointment")
	}
	return a, nil
}

// List returns appointments scoped to the actor's role before the caller's
// filters apply. Patients only ever see their own rows.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Validationf("invalid status %q", f.Status)
	}

	actor := auth.ActorFromContext(ctx)
	switch actor.Role {
	case auth.RolePatient:
		if f.PatientID != 0 && f.PatientID != actor.PersonID {
			return nil, 0, apperr.Forbidden("not allowed to view another patient's appointments")
		}
		f.PatientID = actor.PersonID
	case auth.RoleProvider, auth.RoleAdmin:
		// Cross-patient listing is part of their job.
	default:
		return nil, 0, apperr.Forbidden("not allowed to list appointments")
	}

	return s.appointments.List(ctx, f, limit, offset)
}

// ListTypes returns the appointment type lookup table.
func (s *Service) ListTypes(ctx context.Context) ([]*AppointmentType, error) {
	return s.types.List(ctx)
}
