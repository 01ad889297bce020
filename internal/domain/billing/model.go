package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice lifecycle: draft -> issued -> paid. Draft and issued invoices
// may be voided; paid invoices are final.
type Invoice struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	IssuedAt    *time.Time `db:"issued_at" json:"issued_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
