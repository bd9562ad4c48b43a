package person

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// Service implements patient and provider registry logic.
type Service struct {
	patients  PatientRepository
	providers ProviderRepository
	log       zerolog.Logger
}

func NewService(patients PatientRepository, providers ProviderRepository, log zerolog.Logger) *Service {
	return &Service{
		patients:  patients,
		providers: providers,
		log:       log.With().Str("component", "person").Logger(),
	}
}

// RegisterPatientInput carries a new patient registration.
type RegisterPatientInput struct {
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Phone       string
	Email       string
	Gender      string
	NationalID  string
	Address     string
}

// RegisterProviderInput carries a new provider registration.
type RegisterProviderInput struct {
	FirstName      string
	LastName       string
	DateOfBirth    *time.Time
	Phone          string
	Email          string
	Gender         string
	NationalID     string
	Cadre          string
	Specialization string
}

func validateIdentity(first, last, phone, email, nationalID string) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(first) == "" {
		fields["first_name"] = "required"
	}
	if strings.TrimSpace(last) == "" {
		fields["last_name"] = "required"
	}
	if !validPhone(phone) {
		fields["phone"] = "must be 10 to 15 digits"
	}
	if !strings.Contains(email, "@") {
		fields["email"] = "invalid email address"
	}
	if len(nationalID) < 8 {
		fields["national_id"] = "must be at least 8 characters"
	}
	return fields
}

func validPhone(phone string) bool {
	if len(phone) < 10 || len(phone) > 15 {
		return false
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*Patient, error) {
	if fields := validateIdentity(in.FirstName, in.LastName, in.Phone, in.Email, in.NationalID); len(fields) > 0 {
		return nil, apperr.ValidationFields("invalid patient registration", fields)
	}

	p := &Patient{
		Person: Person{
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			DateOfBirth: in.DateOfBirth,
			Phone:       in.Phone,
			Email:       in.Email,
			Gender:      in.Gender,
			NationalID:  in.NationalID,
		},
		Address: in.Address,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Int64("patient_id", p.ID).Str("patient_number", p.PatientNumber).
		Msg("patient registered")
	return p, nil
}

func (s *Service) RegisterProvider(ctx context.Context, in RegisterProviderInput) (*Provider, error) {
	fields := validateIdentity(in.FirstName, in.LastName, in.Phone, in.Email, in.NationalID)
	if strings.TrimSpace(in.Cadre) == "" {
		fields["cadre"] = "required"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields("invalid provider registration", fields)
	}

	p := &Provider{
		Person: Person{
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			DateOfBirth: in.DateOfBirth,
			Phone:       in.Phone,
			Email:       in.Email,
			Gender:      in.Gender,
			NationalID:  in.NationalID,
		},
		Cadre:          in.Cadre,
		Specialization: in.Specialization,
	}
	if err := s.providers.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Int64("provider_id", p.ID).Str("cadre", p.Cadre).Msg("provider registered")
	return p, nil
}

// GetPatient fetches a patient. Patients only see their own record.
func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	actor := auth.ActorFromContext(ctx)
	if !auth.Allowed(actor, auth.ActionRead, auth.Ownership{PatientID: id}) &&
		!auth.Allowed(actor, auth.ActionListAll, auth.Ownership{}) {
		return nil, apperr.Forbidden("not allowed to view this patient")
	}
	return s.patients.GetByID(ctx, id)
}

// GetProvider fetches a provider. Provider records are visible to any
// authenticated actor.
func (s *Service) GetProvider(ctx context.Context, id int64) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

// ListPatients searches the patient registry. Provider/admin only.
func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	actor := auth.ActorFromContext(ctx)
	if !auth.Allowed(actor, auth.ActionListAll, auth.Ownership{}) {
		return nil, 0, apperr.Forbidden("not allowed to list patients")
	}
	return s.patients.List(ctx, search, limit, offset)
}

// ListProviders searches the provider registry.
func (s *Service) ListProviders(ctx context.Context, search string, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, search, limit, offset)
}
