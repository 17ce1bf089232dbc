package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/storage/fold"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// knownDataStore implements driven.KnownDataStore.
type knownDataStore struct {
	store *Store
}

var _ driven.KnownDataStore = (*knownDataStore)(nil)

const knownDataColumns = `id, title, process, activity_name, hazard_type, hazard_des,
	injury, control, risk_type, severity, likelihood, rpn, created_at`

// Save inserts record and sets its ID and CreatedAt.
func (s *knownDataStore) Save(ctx context.Context, record *domain.KnownData) error {
	if record == nil {
		return domain.ErrInvalidInput
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO known_data (title, process, title_key, process_key, activity_name, hazard_type,
			hazard_des, injury, control, risk_type, severity, likelihood, rpn, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.Title, record.Process, fold.Key(record.Title), fold.Key(record.Process), record.ActivityName, record.HazardType, record.HazardDes,
		record.Injury, record.Control, record.RiskType, record.Severity, record.Likelihood,
		record.RPN, formatTime(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving known data: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading known data id: %w", err)
	}
	record.ID = id
	return nil
}

// FindByActivity returns records whose activity name is exactly name.
func (s *knownDataStore) FindByActivity(ctx context.Context, name string) ([]domain.KnownData, error) {
	return s.query(ctx, `SELECT `+knownDataColumns+`
		FROM known_data WHERE activity_name = ? ORDER BY id`, name)
}

// FindByTitleProcess matches title and process by their fold.Key.
func (s *knownDataStore) FindByTitleProcess(ctx context.Context, title, process string) ([]domain.KnownData, error) {
	return s.query(ctx, `SELECT `+knownDataColumns+`
		FROM known_data
		WHERE title_key = ? AND process_key = ?
		ORDER BY id`, fold.Key(title), fold.Key(process))
}

// backfillFoldKeys computes the lookup keys for rows saved before the
// key columns existed.
func (s *knownDataStore) backfillFoldKeys(ctx context.Context) error {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, title, process FROM known_data
		WHERE title_key = '' AND process_key = '' AND (title <> '' OR process <> '')`)
	if err != nil {
		return fmt.Errorf("finding rows without fold keys: %w", err)
	}
	type pending struct {
		id             int64
		title, process string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.title, &p.process); err != nil {
			rows.Close()
			return fmt.Errorf("scanning row without fold keys: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows without fold keys: %w", err)
	}
	if len(todo) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit
	for _, p := range todo {
		if _, err := tx.ExecContext(ctx, `UPDATE known_data SET title_key = ?, process_key = ? WHERE id = ?`,
			fold.Key(p.title), fold.Key(p.process), p.id); err != nil {
			return fmt.Errorf("writing fold keys for row %d: %w", p.id, err)
		}
	}
	return tx.Commit()
}

// List returns the newest records first. limit <= 0 returns all.
func (s *knownDataStore) List(ctx context.Context, limit int) ([]domain.KnownData, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, `SELECT `+knownDataColumns+`
		FROM known_data ORDER BY id DESC LIMIT ?`, limit)
}

// Count returns the number of stored records.
func (s *knownDataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM known_data").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting known data: %w", err)
	}
	return n, nil
}

func (s *knownDataStore) query(ctx context.Context, query string, args ...any) ([]domain.KnownData, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying known data: %w", err)
	}
	defer rows.Close()

	records := []domain.KnownData{}
	for rows.Next() {
		r, err := scanKnownData(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating known data: %w", err)
	}
	return records, nil
}

func scanKnownData(rows *sql.Rows) (domain.KnownData, error) {
	var (
		r         domain.KnownData
		createdAt string
	)
	if err := rows.Scan(&r.ID, &r.Title, &r.Process, &r.ActivityName, &r.HazardType, &r.HazardDes,
		&r.Injury, &r.Control, &r.RiskType, &r.Severity, &r.Likelihood, &r.RPN, &createdAt); err != nil {
		return domain.KnownData{}, fmt.Errorf("scanning known data: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}
