package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

type memAppointments struct {
	nextID int64
	items  map[int64]*Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: make(map[int64]*Appointment)}
}

func (m *memAppointments) Create(_ context.Context, a *Appointment) error {
	for _, b := range m.items {
		if b.ProviderID == a.ProviderID && b.Status == StatusScheduled &&
			Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
			return apperr.Conflict("provider is not available at the requested time")
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, a *Appointment) error {
	stored, ok := m.items[a.ID]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	stored.Status = a.Status
	stored.RescheduledStartTime = a.RescheduledStartTime
	stored.RescheduledEndTime = a.RescheduledEndTime
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memAppointments) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		if f.PatientID != 0 && a.PatientID != f.PatientID {
			continue
		}
		if f.ProviderID != 0 && a.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type memTypes struct{ items []*AppointmentType }

func (m *memTypes) Create(_ context.Context, t *AppointmentType) error {
	t.ID = int64(len(m.items) + 1)
	m.items = append(m.items, t)
	return nil
}

func (m *memTypes) GetByName(_ context.Context, name string) (*AppointmentType, error) {
	for _, t := range m.items {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, apperr.NotFound("appointment type not found")
}

func (m *memTypes) List(_ context.Context) ([]*AppointmentType, error) { return m.items, nil }

func newTestService() (*Service, *memAppointments) {
	repo := newMemAppointments()
	return NewService(repo, &memTypes{}, zerolog.Nop()), repo
}

func asActor(role auth.Role, personID int64) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: 99, Role: role, PersonID: personID})
}

func at(hour, min int) time.Time {
	return time.Date(2023, 10, 1, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"shared endpoint", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"shared endpoint reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}

func TestCreateConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := asActor(auth.RoleProvider, 1)

	first, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.ID == 0 || first.Status != StatusScheduled {
		t.Fatalf("unexpected appointment: %+v", first)
	}

	_, err = svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 30), EndTime: at(11, 30),
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("overlapping create: got %v, want conflict", err)
	}

	// Back to back slots share only the boundary instant.
	if _, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(11, 0), EndTime: at(12, 0),
	}); err != nil {
		t.Fatalf("adjacent create: %v", err)
	}
}

func TestCreateIgnoresOtherProvidersAndNonScheduled(t *testing.T) {
	svc, repo := newTestService()
	ctx := asActor(auth.RoleAdmin, 0)

	a, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same slot, different provider.
	if _, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 5, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	}); err != nil {
		t.Fatalf("other provider create: %v", err)
	}

	// Cancelled rows no longer block the slot.
	repo.items[a.ID].Status = StatusCancelled
	if _, err := svc.Create(ctx, CreateInput{
		PatientID: 3, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	}); err != nil {
		t.Fatalf("create over cancelled slot: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := asActor(auth.RoleAdmin, 0)

	_, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(11, 0), EndTime: at(10, 0),
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("end before start: got %v, want validation error", err)
	}

	_, err = svc.Create(ctx, CreateInput{ProviderID: 1})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing fields: got %v, want validation error", err)
	}
}

func TestCreateOwnership(t *testing.T) {
	svc, _ := newTestService()

	// Patient booking for someone else is rejected.
	_, err := svc.Create(asActor(auth.RolePatient, 7), CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("patient booking for other patient: got %v, want forbidden", err)
	}

	// Booking their own slot is fine.
	if _, err := svc.Create(asActor(auth.RolePatient, 2), CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	}); err != nil {
		t.Fatalf("patient booking own slot: %v", err)
	}
}

func TestPatientCannotComplete(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(asActor(auth.RolePatient, 2), CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateStatus(asActor(auth.RolePatient, 2), a.ID, UpdateStatusInput{Status: StatusCompleted})
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("patient completing own appointment: got %v, want forbidden", err)
	}

	// The named provider can complete it.
	updated, err := svc.UpdateStatus(asActor(auth.RoleProvider, 1), a.ID, UpdateStatusInput{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("provider completing: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", updated.Status)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := asActor(auth.RoleProvider, 1)

	a, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, UpdateStatusInput{Status: "archived"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown status: got %v, want validation error", err)
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, UpdateStatusInput{Status: StatusRescheduled}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("reschedule without timestamps: got %v, want validation error", err)
	}

	if _, err := svc.UpdateStatus(ctx, 999, UpdateStatusInput{Status: StatusCancelled}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown appointment: got %v, want not found", err)
	}
}

func TestRescheduleKeepsCanonicalTimes(t *testing.T) {
	svc, repo := newTestService()
	ctx := asActor(auth.RoleProvider, 1)

	a, err := svc.Create(ctx, CreateInput{
		PatientID: 2, ProviderID: 1, AppointmentTypeID: 1,
		StartTime: at(10, 0), EndTime: at(11, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newStart, newEnd := at(12, 0), at(13, 0)
	updated, err := svc.UpdateStatus(ctx, a.ID, UpdateStatusInput{
		Status:               StatusRescheduled,
		RescheduledStartTime: &newStart,
		RescheduledEndTime:   &newEnd,
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if updated.Status != StatusRescheduled {
		t.Errorf("status = %q, want rescheduled", updated.Status)
	}
	if updated.RescheduledStartTime == nil || !updated.RescheduledStartTime.Equal(newStart) {
		t.Errorf("rescheduled start = %v, want %v", updated.RescheduledStartTime, newStart)
	}
	if updated.RescheduledEndTime == nil || !updated.RescheduledEndTime.Equal(newEnd) {
		t.Errorf("rescheduled end = %v, want %v", updated.RescheduledEndTime, newEnd)
	}
	if !updated.StartTime.Equal(at(10, 0)) || !updated.EndTime.Equal(at(11, 0)) {
		t.Errorf("canonical times changed: start=%v end=%v", updated.StartTime, updated.EndTime)
	}

	stored := repo.items[a.ID]
	if !stored.StartTime.Equal(at(10, 0)) || !stored.EndTime.Equal(at(11, 0)) {
		t.Errorf("stored canonical times changed: start=%v end=%v", stored.StartTime, stored.EndTime)
	}
}

func TestListScoping(t *testing.T) {
	svc, _ := newTestService()
	admin := asActor(auth.RoleAdmin, 0)

	for i, patientID := range []int64{2, 2, 3} {
		if _, err := svc.Create(admin, CreateInput{
			PatientID: patientID, ProviderID: 1, AppointmentTypeID: 1,
			StartTime: at(9+2*i, 0), EndTime: at(10+2*i, 0),
		}); err != nil {
			t.Fatalf("seed create %d: %v", i, err)
		}
	}

	items, total, err := svc.List(asActor(auth.RolePatient, 2), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("patient list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("patient list: got %d/%d, want 2/2", len(items), total)
	}
	for _, a := range items {
		if a.PatientID != 2 {
			t.Errorf("patient list leaked appointment for patient %d", a.PatientID)
		}
	}

	if _, _, err := svc.List(asActor(auth.RolePatient, 2), Filter{PatientID: 3}, 20, 0); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("patient listing other patient: got %v, want forbidden", err)
	}

	_, total, err = svc.List(asActor(auth.RoleProvider, 1), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("provider list: %v", err)
	}
	if total != 3 {
		t.Fatalf("provider list total = %d, want 3", total)
	}

	_, total, err = svc.List(admin, Filter{Status: StatusScheduled}, 20, 0)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if total != 3 {
		t.Fatalf("admin scheduled list total = %d, want 3", total)
	}
}
