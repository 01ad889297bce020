package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	invoices Repository
}

func NewService(invoices Repository) *Service {
	return &Service{invoices: invoices}
}

func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if inv.AmountCents <= 0 {
		return fmt.Errorf("amount_cents must be positive")
	}
	if inv.Description == "" {
		return fmt.Errorf("description is required")
	}
	inv.Status = "draft"
	return s.invoices.Create(ctx, inv)
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// IssueInvoice moves a draft invoice to issued and stamps it.
func (s *Service) IssueInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != "draft" {
		return nil, fmt.Errorf("invoice is %s, only draft invoices can be issued", inv.Status)
	}
	now := time.Now()
	inv.Status = "issued"
	inv.IssuedAt = &now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RecordPayment marks an issued invoice as paid.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != "issued" {
		return nil, fmt.Errorf("invoice is %s, only issued invoices can be paid", inv.Status)
	}
	now := time.Now()
	inv.Status = "paid"
	inv.PaidAt = &now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// VoidInvoice cancels a draft or issued invoice. Paid invoices are final.
func (s *Service) VoidInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == "paid" || inv.Status == "void" {
		return nil, fmt.Errorf("invoice is %s and cannot be voided", inv.Status)
	}
	inv.Status = "void"
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) PatientInvoices(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.ListByPatient(ctx, patientID, limit, offset)
}
