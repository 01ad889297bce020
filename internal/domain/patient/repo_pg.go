package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, first_name, last_name, date_of_birth, phone, email, address,
	active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Phone, &p.Email,
		&p.Address, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, first_name, last_name, date_of_birth, phone, email, address, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Phone, p.Email, p.Address, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient SET first_name=$2, last_name=$3, date_of_birth=$4, phone=$5, email=$6,
			address=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Phone, p.Email, p.Address, p.Active)
	return err
}

func (r *repoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	// An empty search matches every row, so a single ILIKE filter covers
	// both the filtered and unfiltered cases.
	pattern := "%" + search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM patient
		WHERE first_name ILIKE $1 OR last_name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE first_name ILIKE $1 OR last_name ILIKE $1
		ORDER BY last_name, first_name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// =========== Intake Form Repository ===========

type intakeRepoPG struct{ pool *pgxpool.Pool }

func NewIntakeFormRepoPG(pool *pgxpool.Pool) IntakeFormRepository {
	return &intakeRepoPG{pool: pool}
}

const intakeCols = `id, patient_id, form_type, status, payload, submitted_at, created_at`

func scanIntakeForm(row pgx.Row) (*IntakeForm, error) {
	var f IntakeForm
	err := row.Scan(&f.ID, &f.PatientID, &f.FormType, &f.Status, &f.Payload, &f.SubmittedAt, &f.CreatedAt)
	return &f, err
}

func (r *intakeRepoPG) Create(ctx context.Context, f *IntakeForm) error {
	f.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO intake_form (id, patient_id, form_type, status, payload)
		VALUES ($1,$2,$3,$4,$5)`,
		f.ID, f.PatientID, f.FormType, f.Status, f.Payload)
	return err
}

func (r *intakeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*IntakeForm, error) {
	return scanIntakeForm(r.pool.QueryRow(ctx, `SELECT `+intakeCols+` FROM intake_form WHERE id = $1`, id))
}

func (r *intakeRepoPG) Update(ctx context.Context, f *IntakeForm) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE intake_form SET status=$2, payload=$3, submitted_at=$4 WHERE id = $1`,
		f.ID, f.Status, f.Payload, f.SubmittedAt)
	return err
}

func (r *intakeRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*IntakeForm, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+intakeCols+` FROM intake_form WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*IntakeForm
	for rows.Next() {
		f, err := scanIntakeForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}
