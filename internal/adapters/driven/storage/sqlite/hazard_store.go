package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// hazardStore implements driven.HazardStore. The submitted record is
// kept as JSON so the review queue survives schema changes to known_data.
type hazardStore struct {
	store *Store
}

var _ driven.HazardStore = (*hazardStore)(nil)

// Save inserts or replaces a pending hazard.
func (s *hazardStore) Save(ctx context.Context, hazard *domain.PendingHazard) error {
	if hazard == nil || hazard.ID == "" {
		return domain.ErrInvalidInput
	}

	record, err := json.Marshal(hazard.Record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO pending_hazards (id, record, status, submitted_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record = excluded.record,
			status = excluded.status,
			submitted_at = excluded.submitted_at,
			reviewed_at = excluded.reviewed_at
	`, hazard.ID, string(record), string(hazard.Status),
		formatTime(hazard.SubmittedAt), formatNullableTime(hazard.ReviewedAt))
	if err != nil {
		return fmt.Errorf("saving pending hazard: %w", err)
	}
	return nil
}

// Get retrieves a hazard by ID.
func (s *hazardStore) Get(ctx context.Context, id string) (*domain.PendingHazard, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, record, status, submitted_at, reviewed_at
		FROM pending_hazards WHERE id = ?
	`, id)

	h, err := scanPendingHazard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByStatus returns hazards with status, oldest submission first.
func (s *hazardStore) ListByStatus(ctx context.Context, status domain.HazardStatus) ([]domain.PendingHazard, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, record, status, submitted_at, reviewed_at
		FROM pending_hazards WHERE status = ?
		ORDER BY submitted_at, id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying pending hazards: %w", err)
	}
	defer rows.Close()

	hazards := []domain.PendingHazard{}
	for rows.Next() {
		h, err := scanPendingHazard(rows)
		if err != nil {
			return nil, err
		}
		hazards = append(hazards, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending hazards: %w", err)
	}
	return hazards, nil
}

// UpdateStatus sets the review status and stamps the review time.
func (s *hazardStore) UpdateStatus(ctx context.Context, id string, status domain.HazardStatus) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE pending_hazards SET status = ?, reviewed_at = ? WHERE id = ?
	`, string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating hazard status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating hazard status: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPendingHazard(row rowScanner) (domain.PendingHazard, error) {
	var (
		h           domain.PendingHazard
		record      string
		status      string
		submittedAt string
		reviewedAt  sql.NullString
	)
	if err := row.Scan(&h.ID, &record, &status, &submittedAt, &reviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scanning pending hazard: %w", err)
	}
	if err := json.Unmarshal([]byte(record), &h.Record); err != nil {
		return h, fmt.Errorf("unmarshalling record: %w", err)
	}
	h.Status = domain.HazardStatus(status)
	h.SubmittedAt = parseTime(submittedAt)
	h.ReviewedAt = parseNullableTime(reviewedAt)
	return h, nil
}
