package prescription

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const recordCols = `id, patient_id, code, version, status, medications, items,
	note, to_patient, to_pharmacy, to_lab, sent_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r     Record
		items []byte
	)
	err := row.Scan(&r.ID, &r.PatientID, &r.Code, &r.Version, &r.Status, &r.Medications, &items,
		&r.Note, &r.To.Patient, &r.To.Pharmacy, &r.To.Lab, &r.SentAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &r.Items); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// Append inactivates the patient's previous active record and inserts the new
// one in a single transaction, so the single-active invariant holds even if
// the insert fails.
func (p *repoPG) Append(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	items, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE prescription SET status = $1 WHERE patient_id = $2 AND status = $3`,
			StatusInactive, r.PatientID, StatusActive); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO prescription (id, patient_id, code, version, status, medications, items,
				note, to_patient, to_pharmacy, to_lab, sent_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			r.ID, r.PatientID, r.Code, r.Version, r.Status, r.Medications, items,
			r.Note, r.To.Patient, r.To.Pharmacy, r.To.Lab, r.SentAt)
		return err
	})
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(p.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM prescription WHERE id = $1`, id))
}

func (p *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescription WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+recordCols+` FROM prescription WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, nil
}

func (p *repoPG) Active(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return scanRecord(p.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM prescription
		WHERE patient_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1`, patientID, StatusActive))
}

func (p *repoPG) ByLineage(ctx context.Context, code string) ([]*Record, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+recordCols+` FROM prescription WHERE code = $1 ORDER BY version ASC`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, nil
}
