package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	invoices map[uuid.UUID]*Invoice
}

func newMockRepo() *mockRepo {
	return &mockRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (m *mockRepo) Create(_ context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice not found")
	}
	return inv, nil
}

func (m *mockRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return fmt.Errorf("invoice not found")
	}
	inv.UpdatedAt = time.Now()
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var out []*Invoice
	for _, inv := range m.invoices {
		if inv.PatientID == patientID {
			out = append(out, inv)
		}
	}
	return out, len(out), nil
}

func newDraftInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	inv := &Invoice{PatientID: uuid.New(), AmountCents: 12500, Description: "office visit"}
	if err := svc.CreateInvoice(context.Background(), inv); err != nil {
		t.Fatalf("CreateInvoice() error: %v", err)
	}
	return inv
}

func TestCreateInvoice(t *testing.T) {
	svc := NewService(newMockRepo())
	inv := newDraftInvoice(t, svc)

	if inv.Status != "draft" {
		t.Errorf("expected draft status, got %s", inv.Status)
	}
	if inv.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	cases := []struct {
		name    string
		invoice *Invoice
	}{
		{"missing patient", &Invoice{AmountCents: 100, Description: "x"}},
		{"zero amount", &Invoice{PatientID: uuid.New(), Description: "x"}},
		{"negative amount", &Invoice{PatientID: uuid.New(), AmountCents: -5, Description: "x"}},
		{"missing description", &Invoice{PatientID: uuid.New(), AmountCents: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.CreateInvoice(ctx, tc.invoice); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	inv := newDraftInvoice(t, svc)

	issued, err := svc.IssueInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("IssueInvoice() error: %v", err)
	}
	if issued.Status != "issued" || issued.IssuedAt == nil {
		t.Errorf("expected issued invoice with timestamp, got %+v", issued)
	}

	paid, err := svc.RecordPayment(ctx, inv.ID)
	if err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}
	if paid.Status != "paid" || paid.PaidAt == nil {
		t.Errorf("expected paid invoice with timestamp, got %+v", paid)
	}
}

func TestRecordPayment_RequiresIssued(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	inv := newDraftInvoice(t, svc)

	if _, err := svc.RecordPayment(ctx, inv.ID); err == nil {
		t.Error("expected error paying a draft invoice")
	}
}

func TestIssueInvoice_OnlyFromDraft(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	inv := newDraftInvoice(t, svc)

	svc.IssueInvoice(ctx, inv.ID)
	if _, err := svc.IssueInvoice(ctx, inv.ID); err == nil {
		t.Error("expected error issuing an already issued invoice")
	}
}

func TestVoidInvoice(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	// Draft invoices can be voided.
	draft := newDraftInvoice(t, svc)
	voided, err := svc.VoidInvoice(ctx, draft.ID)
	if err != nil {
		t.Fatalf("VoidInvoice() error: %v", err)
	}
	if voided.Status != "void" {
		t.Errorf("expected void status, got %s", voided.Status)
	}

	// Paid invoices are final.
	paid := newDraftInvoice(t, svc)
	svc.IssueInvoice(ctx, paid.ID)
	svc.RecordPayment(ctx, paid.ID)
	if _, err := svc.VoidInvoice(ctx, paid.ID); err == nil {
		t.Error("expected error voiding a paid invoice")
	}

	// Voiding twice fails.
	if _, err := svc.VoidInvoice(ctx, draft.ID); err == nil {
		t.Error("expected error voiding a void invoice")
	}
}
