package labrequest

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

const recordCols = `id, patient_id, code, version, type_summary, panels, custom, results,
	note, to_patient, to_lab, sent_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r       Record
		results []byte
	)
	err := row.Scan(&r.ID, &r.PatientID, &r.Code, &r.Version, &r.TypeSummary, &r.Panels, &r.Custom, &results,
		&r.Note, &r.To.Patient, &r.To.Lab, &r.SentAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &r.Values); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (p *repoPG) Append(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	results, err := json.Marshal(r.Values)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO lab_request (id, patient_id, code, version, type_summary, panels, custom, results,
			note, to_patient, to_lab, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.ID, r.PatientID, r.Code, r.Version, r.TypeSummary, r.Panels, r.Custom, results,
		r.Note, r.To.Patient, r.To.Lab, r.SentAt)
	return err
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(p.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM lab_request WHERE id = $1`, id))
}

func (p *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_request WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+recordCols+` FROM lab_request WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
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

func (p *repoPG) SetResults(ctx context.Context, id uuid.UUID, values []ResultValue) error {
	results, err := json.Marshal(values)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `UPDATE lab_request SET results = $2 WHERE id = $1`, id, results)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
