package insurance

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// Service implements insurance policy business logic.
type Service struct {
	policies Repository
	log      zerolog.Logger
}

func NewService(policies Repository, log zerolog.Logger) *Service {
	return &Service{
		policies: policies,
		log:      log.With().Str("component", "insurance").Logger(),
	}
}

// Input carries the writable fields of a policy, used by both create and
// full update.
type Input struct {
	PatientID    int64
	ProviderName string
	PolicyNumber string
	ExpiryDate   time.Time
}

func validateInput(in Input) map[string]string {
	fields := map[string]string{}
	if in.PatientID == 0 {
		fields["patient_id"] = "required"
	}
	if strings.TrimSpace(in.ProviderName) == "" {
		fields["provider_name"] = "required"
	}
	if strings.TrimSpace(in.PolicyNumber) == "" {
		fields["policy_number"] = "required"
	}
	if in.ExpiryDate.IsZero() {
		fields["expiry_date"] = "required"
	}
	return fields
}

// authorize gates access to a patient's coverage: the patient themselves,
// any admin, or a provider with appointment history with the patient. A
// provider without history is denied, not told the policy is absent.
func (s *Service) authorize(ctx context.Context, patientID int64) error {
	actor := auth.ActorFromContext(ctx)
	if auth.Allowed(actor, auth.ActionRead, auth.Ownership{PatientID: patientID}) {
		return nil
	}
	if actor.Role == auth.RoleProvider {
		linked, err := s.policies.HasAppointmentHistory(ctx, actor.PersonID, patientID)
		if err != nil {
			return err
		}
		if linked {
			return nil
		}
	}
	return apperr.Forbidden("not allowed to access this patient's insurance")
}

func (s *Service) Create(ctx context.Context, in Input) (*Insurance, error) {
	if fields := validateInput(in); len(fields) > 0 {
		return nil, apperr.ValidationFields("invalid insurance policy", fields)
	}
	if err := s.authorize(ctx, in.PatientID); err != nil {
		return nil, err
	}

	i := &Insurance{
		PatientID:    in.PatientID,
		ProviderName: in.ProviderName,
		PolicyNumber: in.PolicyNumber,
		ExpiryDate:   in.ExpiryDate,
	}
	if err := s.policies.Create(ctx, i); err != nil {
		return nil, err
	}

	s.log.Info().Int64("insurance_id", i.ID).Int64("patient_id", i.PatientID).
		Msg("insurance policy created")
	return i, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Insurance, error) {
	i, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, i.PatientID); err != nil {
		return nil, err
	}
	return i, nil
}

// List returns all policies for provider/admin actors, or the patient's own
// policies for patient actors.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Insurance, int, error) {
	actor := auth.ActorFromContext(ctx)
	if actor.Role == auth.RolePatient {
		return s.policies.List(ctx, actor.PersonID, limit, offset)
	}
	if !auth.Allowed(actor, auth.ActionListAll, auth.Ownership{}) {
		return nil, 0, apperr.Forbidden("not allowed to list insurance policies")
	}
	return s.policies.List(ctx, 0, limit, offset)
}

// ListByPatient returns one patient's policies, subject to the linkage rule.
func (s *Service) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Insurance, int, error) {
	if err := s.authorize(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.policies.List(ctx, patientID, limit, offset)
}

// Update replaces the policy's mutable fields. The policy's patient
// reference does not move between patients.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Insurance, error) {
	i, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, i.PatientID); err != nil {
		return nil, err
	}

	in.PatientID = i.PatientID
	if fields := validateInput(in); len(fields) > 0 {
		return nil, apperr.ValidationFields("invalid insurance policy", fields)
	}

	i.ProviderName = in.ProviderName
	i.PolicyNumber = in.PolicyNumber
	i.ExpiryDate = in.ExpiryDate
	if err := s.policies.Update(ctx, i); err != nil {
		return nil, err
	}

	s.log.Info().Int64("insurance_id", i.ID).Msg("insurance policy updated")
	return i, nil
}
