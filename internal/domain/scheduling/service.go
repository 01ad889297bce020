package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var validAppointmentStatuses = map[string]bool{
	"scheduled": true, "checked-in": true, "completed": true,
	"cancelled": true, "no-show": true,
}

type Service struct {
	appointments Repository
}

func NewService(appointments Repository) *Service {
	return &Service{appointments: appointments}
}

func (s *Service) ScheduleAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.ProviderID <= 0 {
		return fmt.Errorf("provider_id is required")
	}
	if a.StartsAt.IsZero() || a.EndsAt.IsZero() {
		return fmt.Errorf("starts_at and ends_at are required")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return fmt.Errorf("ends_at must be after starts_at")
	}
	a.Status = "scheduled"
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateStatus moves an appointment through its lifecycle. Completed and
// cancelled appointments are final.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !validAppointmentStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == "completed" || a.Status == "cancelled" {
		return nil, fmt.Errorf("appointment is %s and cannot change status", a.Status)
	}
	a.Status = status
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ProviderSchedule returns the provider's appointments for one calendar day.
func (s *Service) ProviderSchedule(ctx context.Context, providerID int64, day time.Time) ([]*Appointment, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("invalid provider id")
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.appointments.ListByProvider(ctx, providerID, from, from.Add(24*time.Hour))
}

func (s *Service) PatientAppointments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}
