package store

import (
	"database/sql"
	"errors"
	"time"
)

// Batch is one benchmark session.
type Batch struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	Runs      int       `json:"runs"`
}

// BatchRepository provides access to batches.
type BatchRepository struct {
	db *sql.DB
}

// Batches returns the batch repository for this store.
func (s *Store) Batches() *BatchRepository {
	return &BatchRepository{db: s.db}
}

// Create inserts a new batch.
func (r *BatchRepository) Create(b *Batch) error {
	_, err := r.db.Exec(
		`INSERT INTO batches (id, started_at, ended_at) VALUES (?, ?, ?)`,
		b.ID, b.StartedAt.UTC(), nullTime(b.EndedAt),
	)
	return err
}

// Finish records the end time of a batch.
func (r *BatchRepository) Finish(id string, endedAt time.Time) error {
	result, err := r.db.Exec(`UPDATE batches SET ended_at = ? WHERE id = ?`, endedAt.UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a batch with its run count.
func (r *BatchRepository) GetByID(id string) (*Batch, error) {
	row := r.db.QueryRow(
		`SELECT b.id, b.started_at, b.ended_at, COUNT(r.id)
		 FROM batches b LEFT JOIN runs r ON r.batch_id = b.id
		 WHERE b.id = ?
		 GROUP BY b.id`,
		id,
	)

	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns the most recent batches first. A non-positive limit returns all.
func (r *BatchRepository) List(limit int) ([]*Batch, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT b.id, b.started_at, b.ended_at, COUNT(r.id)
		 FROM batches b LEFT JOIN runs r ON r.batch_id = b.id
		 GROUP BY b.id
		 ORDER BY b.started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Delete removes a batch and, through the cascade, its runs.
func (r *BatchRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*Batch, error) {
	b := &Batch{}
	var ended sql.NullTime
	if err := row.Scan(&b.ID, &b.StartedAt, &ended, &b.Runs); err != nil {
		return nil, err
	}
	if ended.Valid {
		b.EndedAt = ended.Time
	}
	return b, nil
}
