package documents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	documents map[uuid.UUID]*Document
}

func newMockRepo() *mockRepo {
	return &mockRepo{documents: make(map[uuid.UUID]*Document)}
}

func (m *mockRepo) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.documents[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Document, error) {
	d, ok := m.documents[id]
	if !ok || d.DeletedAt != nil {
		return nil, fmt.Errorf("document not found")
	}
	return d, nil
}

func (m *mockRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	d, ok := m.documents[id]
	if !ok {
		return fmt.Errorf("document not found")
	}
	now := time.Now()
	d.DeletedAt = &now
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var out []*Document
	for _, d := range m.documents {
		if d.PatientID == patientID && d.DeletedAt == nil {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func validDocument() *Document {
	return &Document{
		PatientID:   uuid.New(),
		Title:       "Lab results",
		ContentType: "application/pdf",
		StorageKey:  "docs/2026/08/lab-results.pdf",
		SizeBytes:   48213,
		UploadedBy:  1,
	}
}

func TestAttachDocument(t *testing.T) {
	svc := NewService(newMockRepo())
	d := validDocument()

	if err := svc.AttachDocument(context.Background(), d); err != nil {
		t.Fatalf("AttachDocument() error: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestAttachDocument_DefaultsContentType(t *testing.T) {
	svc := NewService(newMockRepo())
	d := validDocument()
	d.ContentType = ""

	if err := svc.AttachDocument(context.Background(), d); err != nil {
		t.Fatalf("AttachDocument() error: %v", err)
	}
	if d.ContentType != "application/octet-stream" {
		t.Errorf("expected default content type, got %s", d.ContentType)
	}
}

func TestAttachDocument_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing patient", func(d *Document) { d.PatientID = uuid.Nil }},
		{"missing title", func(d *Document) { d.Title = "" }},
		{"missing storage key", func(d *Document) { d.StorageKey = "" }},
		{"zero size", func(d *Document) { d.SizeBytes = 0 }},
		{"oversized", func(d *Document) { d.SizeBytes = maxDocumentSize + 1 }},
		{"missing uploader", func(d *Document) { d.UploadedBy = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDocument()
			tc.mutate(d)
			if err := svc.AttachDocument(ctx, d); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRemoveDocument(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d := validDocument()
	svc.AttachDocument(ctx, d)

	if err := svc.RemoveDocument(ctx, d.ID); err != nil {
		t.Fatalf("RemoveDocument() error: %v", err)
	}

	// Removed documents disappear from reads and listings.
	if _, err := svc.GetDocument(ctx, d.ID); err == nil {
		t.Error("expected error reading a removed document")
	}
	docs, total, err := svc.PatientDocuments(ctx, d.PatientID, 20, 0)
	if err != nil {
		t.Fatalf("PatientDocuments() error: %v", err)
	}
	if total != 0 || len(docs) != 0 {
		t.Errorf("expected no documents after removal, got %d", len(docs))
	}

	// Row survives for the audit trail.
	if repo.documents[d.ID].DeletedAt == nil {
		t.Error("expected deleted_at to be set on the stored row")
	}

	// Removing twice fails.
	if err := svc.RemoveDocument(ctx, d.ID); err == nil {
		t.Error("expected error removing an already removed document")
	}
}
