package medicalrecord

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/domain/scheduling"
	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// AppointmentGetter resolves the appointment a record attaches to.
type AppointmentGetter interface {
	GetByID(ctx context.Context, id int64) (*scheduling.Appointment, error)
}

// Service implements medical record business logic.
type Service struct {
	records      Repository
	appointments AppointmentGetter
	log          zerolog.Logger
}

func NewService(records Repository, appointments AppointmentGetter, log zerolog.Logger) *Service {
	return &Service{
		records:      records,
		appointments: appointments,
		log:          log.With().Str("component", "medicalrecord").Logger(),
	}
}

// CreateInput carries a new clinical note.
type CreateInput struct {
	AppointmentID int64
	Diagnosis     string
	Treatment     string
	Notes         string
}

// Create attaches a record to an appointment. Only the appointment's
// provider (or an admin) may author it; the patient and provider ids are
// copied from the appointment.
func (s *Service) Create(ctx context.Context, in CreateInput) (*MedicalRecord, error) {
	if in.AppointmentID == 0 {
		return nil, apperr.Validation("appointment_id is required")
	}

	actor := auth.ActorFromContext(ctx)
	if actor.Role == auth.RolePatient {
		return nil, apperr.Forbidden("patients cannot create medical records")
	}

	a, err := s.appointments.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !auth.Allowed(actor, auth.ActionWrite, auth.Ownership{ProviderID: a.ProviderID}) {
		return nil, apperr.Forbidden("only the appointment's provider may author its record")
	}

	m := &MedicalRecord{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		ProviderID:    a.ProviderID,
		Diagnosis:     in.Diagnosis,
		Treatment:     in.Treatment,
		Notes:         in.Notes,
	}
	if err := s.records.Create(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info().Int64("record_id", m.ID).Int64("appointment_id", m.AppointmentID).
		Msg("medical record created")
	return m, nil
}

func (s *Service) authorizeRead(ctx context.Context, m *MedicalRecord) error {
	actor := auth.ActorFromContext(ctx)
	if !auth.Allowed(actor, auth.ActionRead, auth.Ownership{PatientID: m.PatientID, ProviderID: m.ProviderID}) {
		return apperr.Forbidden("not allowed to view this medical record")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*MedicalRecord, error) {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID int64) (*MedicalRecord, error) {
	m, err := s.records.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns records scoped to the actor's role before the caller's
// filters apply. Patients see records about them, providers see records
// they authored, admins see everything.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
	actor := auth.ActorFromContext(ctx)
	switch actor.Role {
	case auth.RolePatient:
		if f.PatientID != 0 && f.PatientID != actor.PersonID {
			return nil, 0, apperr.Forbidden("not allowed to view another patient's records")
		}
		f.PatientID = actor.PersonID
	case auth.RoleProvider:
		f.ProviderID = actor.PersonID
	case auth.RoleAdmin:
	default:
		return nil, 0, apperr.Forbidden("not allowed to list medical records")
	}
	return s.records.List(ctx, f, limit, offset)
}

// UpdateInput holds the patchable text fields. A nil field is left
// unchanged.
type UpdateInput struct {
	Diagnosis *string
	Treatment *string
	Notes     *string
}

func (s *Service) authorizeAuthor(ctx context.Context, m *MedicalRecord) error {
	actor := auth.ActorFromContext(ctx)
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	if actor.Role == auth.RoleProvider && actor.PersonID == m.ProviderID {
		return nil
	}
	return apperr.Forbidden("only the authoring provider may modify this record")
}

// Update patches any subset of diagnosis, treatment and notes. Only the
// authoring provider (or an admin) may modify a record.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*MedicalRecord, error) {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAuthor(ctx, m); err != nil {
		return nil, err
	}

	if in.Diagnosis != nil {
		m.Diagnosis = *in.Diagnosis
	}
	if in.Treatment != nil {
		m.Treatment = *in.Treatment
	}
	if in.Notes != nil {
		m.Notes = *in.Notes
	}
	if err := s.records.Update(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info().Int64("record_id", m.ID).Msg("medical record updated")
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeAuthor(ctx, m); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("record_id", id).Msg("medical record deleted")
	return nil
}
