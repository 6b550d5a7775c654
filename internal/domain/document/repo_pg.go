package document

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

const fileCols = `id, patient_id, kind, name, mime, size, blob_id,
	to_patient, sent_at, meta, created_at`

func scanFile(row pgx.Row) (*File, error) {
	var (
		f    File
		meta []byte
	)
	err := row.Scan(&f.ID, &f.PatientID, &f.Kind, &f.Name, &f.Mime, &f.Size, &f.BlobID,
		&f.To.Patient, &f.SentAt, &meta, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &f.Meta); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

func (p *repoPG) Append(ctx context.Context, f *File) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	var (
		meta []byte
		err  error
	)
	if f.Meta != nil {
		if meta, err = json.Marshal(f.Meta); err != nil {
			return err
		}
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO patient_file (id, patient_id, kind, name, mime, size, blob_id,
			to_patient, sent_at, meta)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		f.ID, f.PatientID, f.Kind, f.Name, f.Mime, f.Size, f.BlobID,
		f.To.Patient, f.SentAt, meta)
	return err
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*File, error) {
	return scanFile(p.pool.QueryRow(ctx, `SELECT `+fileCols+` FROM patient_file WHERE id = $1`, id))
}

func (p *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*File, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_file WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+fileCols+` FROM patient_file WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, nil
}
