package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const maxDocumentSize = 50 << 20 // 50 MB

type Service struct {
	documents Repository
}

func NewService(documents Repository) *Service {
	return &Service{documents: documents}
}

func (s *Service) AttachDocument(ctx context.Context, d *Document) error {
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if d.StorageKey == "" {
		return fmt.Errorf("storage_key is required")
	}
	if d.SizeBytes <= 0 || d.SizeBytes > maxDocumentSize {
		return fmt.Errorf("size_bytes must be between 1 and %d", maxDocumentSize)
	}
	if d.UploadedBy <= 0 {
		return fmt.Errorf("uploaded_by is required")
	}
	if d.ContentType == "" {
		d.ContentType = "application/octet-stream"
	}
	return s.documents.Create(ctx, d)
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.documents.GetByID(ctx, id)
}

// RemoveDocument soft-deletes a document so it disappears from listings
// while the audit trail keeps the row.
func (s *Service) RemoveDocument(ctx context.Context, id uuid.UUID) error {
	if _, err := s.documents.GetByID(ctx, id); err != nil {
		return err
	}
	return s.documents.SoftDelete(ctx, id)
}

func (s *Service) PatientDocuments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	return s.documents.ListByPatient(ctx, patientID, limit, offset)
}
