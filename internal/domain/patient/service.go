package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients Repository
	forms    IntakeFormRepository
}

func NewService(patients Repository, forms IntakeFormRepository) *Service {
	return &Service{patients: patients, forms: forms}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	p.Active = true
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

// -- Intake Forms --

var validFormStatuses = map[string]bool{
	"pending": true, "completed": true, "expired": true,
}

func (s *Service) CreateIntakeForm(ctx context.Context, f *IntakeForm) error {
	if f.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if f.FormType == "" {
		return fmt.Errorf("form_type is required")
	}
	f.Status = "pending"
	return s.forms.Create(ctx, f)
}

// SubmitIntakeForm records the patient's answers and completes the form.
// Only pending forms can be submitted.
func (s *Service) SubmitIntakeForm(ctx context.Context, id uuid.UUID, payload string) (*IntakeForm, error) {
	f, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status != "pending" {
		return nil, fmt.Errorf("form is %s, only pending forms can be submitted", f.Status)
	}
	now := time.Now()
	f.Status = "completed"
	f.Payload = &payload
	f.SubmittedAt = &now
	if err := s.forms.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListIntakeForms(ctx context.Context, patientID uuid.UUID) ([]*IntakeForm, error) {
	return s.forms.ListByPatient(ctx, patientID)
}
