package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
}

type IntakeFormRepository interface {
	Create(ctx context.Context, f *IntakeForm) error
	GetByID(ctx context.Context, id uuid.UUID) (*IntakeForm, error)
	Update(ctx context.Context, f *IntakeForm) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*IntakeForm, error)
}
