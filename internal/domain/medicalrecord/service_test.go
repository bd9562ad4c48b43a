package medicalrecord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/domain/scheduling"
	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

type memRecords struct {
	nextID int64
	items  map[int64]*MedicalRecord
}

func newMemRecords() *memRecords { return &memRecords{items: make(map[int64]*MedicalRecord)} }

func (m *memRecords) Create(_ context.Context, r *MedicalRecord) error {
	for _, other := range m.items {
		if other.AppointmentID == r.AppointmentID {
			return apperr.Conflict("appointment already has a medical record")
		}
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id int64) (*MedicalRecord, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("medical record not found")
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) GetByAppointment(_ context.Context, appointmentID int64) (*MedicalRecord, error) {
	for _, r := range m.items {
		if r.AppointmentID == appointmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("medical record not found")
}

func (m *memRecords) List(_ context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	for _, r := range m.items {
		if f.PatientID != 0 && r.PatientID != f.PatientID {
			continue
		}
		if f.ProviderID != 0 && r.ProviderID != f.ProviderID {
			continue
		}
		if f.Diagnosis != "" && !strings.Contains(strings.ToLower(r.Diagnosis), strings.ToLower(f.Diagnosis)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memRecords) Update(_ context.Context, r *MedicalRecord) error {
	stored, ok := m.items[r.ID]
	if !ok {
		return apperr.NotFound("medical record not found")
	}
	stored.Diagnosis = r.Diagnosis
	stored.Treatment = r.Treatment
	stored.Notes = r.Notes
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memRecords) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("medical record not found")
	}
	delete(m.items, id)
	return nil
}

type memAppointments struct {
	items map[int64]*scheduling.Appointment
}

func (m *memAppointments) GetByID(_ context.Context, id int64) (*scheduling.Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func newTestService() *Service {
	appointments := &memAppointments{items: map[int64]*scheduling.Appointment{
		10: {ID: 10, PatientID: 2, ProviderID: 1, Status: scheduling.StatusCompleted},
		11: {ID: 11, PatientID: 3, ProviderID: 9, Status: scheduling.StatusCompleted},
	}}
	return NewService(newMemRecords(), appointments, zerolog.Nop())
}

func asActor(role auth.Role, personID int64) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: 5, Role: role, PersonID: personID})
}

func TestCreateRequiresAppointmentProvider(t *testing.T) {
	svc := newTestService()

	// Patient role never authors records.
	_, err := svc.Create(asActor(auth.RolePatient, 2), CreateInput{AppointmentID: 10})
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("patient creating record: got %v, want forbidden", err)
	}

	// A provider not named on the appointment is rejected.
	_, err = svc.Create(asActor(auth.RoleProvider, 9), CreateInput{AppointmentID: 10})
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("unrelated provider: got %v, want forbidden", err)
	}

	// Unknown appointment is a 404, not a silent create.
	_, err = svc.Create(asActor(auth.RoleProvider, 1), CreateInput{AppointmentID: 999})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing appointment: got %v, want not found", err)
	}

	m, err := svc.Create(asActor(auth.RoleProvider, 1), CreateInput{
		AppointmentID: 10, Diagnosis: "Malaria", Treatment: "ACT",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.PatientID != 2 || m.ProviderID != 1 {
		t.Fatalf("denormalized ids wrong: %+v", m)
	}

	// One record per appointment.
	_, err = svc.Create(asActor(auth.RoleProvider, 1), CreateInput{AppointmentID: 10})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second record: got %v, want conflict", err)
	}
}

func TestUpdateAuthorship(t *testing.T) {
	svc := newTestService()
	author := asActor(auth.RoleProvider, 1)

	m, err := svc.Create(author, CreateInput{AppointmentID: 10, Diagnosis: "Malaria"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newDiagnosis := "Severe malaria"
	if _, err := svc.Update(asActor(auth.RoleProvider, 9), m.ID, UpdateInput{Diagnosis: &newDiagnosis}); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("non-author update: got %v, want forbidden", err)
	}
	if _, err := svc.Update(asActor(auth.RolePatient, 2), m.ID, UpdateInput{Diagnosis: &newDiagnosis}); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("patient update: got %v, want forbidden", err)
	}

	updated, err := svc.Update(author, m.ID, UpdateInput{Diagnosis: &newDiagnosis})
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	if updated.Diagnosis != newDiagnosis {
		t.Errorf("diagnosis = %q, want %q", updated.Diagnosis, newDiagnosis)
	}
	if updated.Treatment != "" {
		t.Errorf("treatment changed by partial update: %q", updated.Treatment)
	}

	if err := svc.Delete(asActor(auth.RoleProvider, 9), m.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("non-author delete: got %v, want forbidden", err)
	}
	if err := svc.Delete(author, m.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := svc.Get(author, m.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("get after delete: got %v, want not found", err)
	}
}

func TestProviderListScopedToAuthor(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Create(asActor(auth.RoleProvider, 1), CreateInput{AppointmentID: 10, Diagnosis: "Malaria"}); err != nil {
		t.Fatalf("create by provider 1: %v", err)
	}
	if _, err := svc.Create(asActor(auth.RoleProvider, 9), CreateInput{AppointmentID: 11, Diagnosis: "Asthma"}); err != nil {
		t.Fatalf("create by provider 9: %v", err)
	}

	items, total, err := svc.List(asActor(auth.RoleProvider, 1), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("provider list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("provider 1 list: got %d/%d, want 1/1", len(items), total)
	}
	if items[0].ProviderID != 1 {
		t.Fatalf("provider 1 saw record authored by provider %d", items[0].ProviderID)
	}

	// Admin listing stays unscoped.
	_, total, err = svc.List(asActor(auth.RoleAdmin, 0), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if total != 2 {
		t.Fatalf("admin list total = %d, want 2", total)
	}
}

func TestListDiagnosisFilterAndScope(t *testing.T) {
	svc := newTestService()
	author := asActor(auth.RoleProvider, 1)

	if _, err := svc.Create(author, CreateInput{AppointmentID: 10, Diagnosis: "Malaria"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, total, err := svc.List(author, Filter{Diagnosis: "malar"}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("case-insensitive filter: got %d/%d, want 1/1", len(items), total)
	}

	_, total, err = svc.List(author, Filter{Diagnosis: "fracture"}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("non-matching filter total = %d, want 0", total)
	}

	// The patient named on the record sees it; another patient does not.
	_, total, err = svc.List(asActor(auth.RolePatient, 2), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("patient list: %v", err)
	}
	if total != 1 {
		t.Fatalf("own patient list total = %d, want 1", total)
	}
	_, total, err = svc.List(asActor(auth.RolePatient, 3), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("other patient list: %v", err)
	}
	if total != 0 {
		t.Fatalf("other patient list total = %d, want 0", total)
	}
}
