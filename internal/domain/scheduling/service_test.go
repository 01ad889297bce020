package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment not found")
	}
	return a, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment not found")
	}
	a.UpdatedAt = time.Now()
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) ListByProvider(_ context.Context, providerID int64, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.ProviderID == providerID && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func validAppointment() *Appointment {
	start := time.Now().Add(24 * time.Hour)
	return &Appointment{
		PatientID:  uuid.New(),
		ProviderID: 1,
		StartsAt:   start,
		EndsAt:     start.Add(30 * time.Minute),
	}
}

func TestScheduleAppointment(t *testing.T) {
	svc := NewService(newMockRepo())
	a := validAppointment()

	if err := svc.ScheduleAppointment(context.Background(), a); err != nil {
		t.Fatalf("ScheduleAppointment() error: %v", err)
	}
	if a.Status != "scheduled" {
		t.Errorf("expected scheduled status, got %s", a.Status)
	}
	if a.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestScheduleAppointment_EndBeforeStart(t *testing.T) {
	svc := NewService(newMockRepo())
	a := validAppointment()
	a.EndsAt = a.StartsAt.Add(-10 * time.Minute)

	if err := svc.ScheduleAppointment(context.Background(), a); err == nil {
		t.Error("expected error when ends_at precedes starts_at")
	}

	a.EndsAt = a.StartsAt
	if err := svc.ScheduleAppointment(context.Background(), a); err == nil {
		t.Error("expected error for zero-length appointment")
	}
}

func TestScheduleAppointment_MissingFields(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	a := validAppointment()
	a.PatientID = uuid.Nil
	if err := svc.ScheduleAppointment(ctx, a); err == nil {
		t.Error("expected error for missing patient")
	}

	a = validAppointment()
	a.ProviderID = 0
	if err := svc.ScheduleAppointment(ctx, a); err == nil {
		t.Error("expected error for missing provider")
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	a := validAppointment()
	svc.ScheduleAppointment(ctx, a)

	updated, err := svc.UpdateStatus(ctx, a.ID, "checked-in")
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Status != "checked-in" {
		t.Errorf("expected checked-in, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, "completed"); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	// Completed appointments are final.
	if _, err := svc.UpdateStatus(ctx, a.ID, "scheduled"); err == nil {
		t.Error("expected error reopening a completed appointment")
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	a := validAppointment()
	svc.ScheduleAppointment(ctx, a)

	if _, err := svc.UpdateStatus(ctx, a.ID, "rescheduled-maybe"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestProviderSchedule_FiltersByDay(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	today := validAppointment()
	today.StartsAt = day.Add(9 * time.Hour)
	today.EndsAt = today.StartsAt.Add(30 * time.Minute)
	svc.ScheduleAppointment(ctx, today)

	tomorrow := validAppointment()
	tomorrow.StartsAt = day.Add(33 * time.Hour)
	tomorrow.EndsAt = tomorrow.StartsAt.Add(30 * time.Minute)
	svc.ScheduleAppointment(ctx, tomorrow)

	appts, err := svc.ProviderSchedule(ctx, 1, day)
	if err != nil {
		t.Fatalf("ProviderSchedule() error: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	if appts[0].ID != today.ID {
		t.Error("expected today's appointment")
	}
}
