package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is file metadata attached to a patient chart. The file body
// lives in object storage; only the pointer is kept here.
type Document struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Title       string     `db:"title" json:"title"`
	ContentType string     `db:"content_type" json:"content_type"`
	StorageKey  string     `db:"storage_key" json:"storage_key"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	UploadedBy  int64      `db:"uploaded_by" json:"uploaded_by"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
