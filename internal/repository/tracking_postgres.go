package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bloomhaus/mailflow/internal/database"
	"github.com/bloomhaus/mailflow/internal/model"
)

// PostgresTrackingStore is a durable TrackingStore. The claim step relies on
// a conditional UPDATE so two sweeps racing on the same record cannot both
// win, even across processes.
type PostgresTrackingStore struct {
	db *database.Postgres
}

// NewPostgresTrackingStore creates a new PostgresTrackingStore
func NewPostgresTrackingStore(db *database.Postgres) *PostgresTrackingStore {
	return &PostgresTrackingStore{db: db}
}

const trackingColumns = `id, customer_email, automation_type, scheduled_at, sent_at, status, attempts, last_error, metadata, created_at, updated_at`

func (s *PostgresTrackingStore) Put(ctx context.Context, rec *model.TrackingRecord) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	query := `
		INSERT INTO tracking_records (` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.CustomerEmail,
		string(rec.Type),
		rec.ScheduledAt,
		rec.SentAt,
		string(rec.Status),
		rec.Attempts,
		rec.LastError,
		meta,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking record: %w", err)
	}
	return nil
}

func (s *PostgresTrackingStore) Get(ctx context.Context, id string) (*model.TrackingRecord, error) {
	query := `SELECT ` + trackingColumns + ` FROM tracking_records WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresTrackingStore) Update(ctx context.Context, rec *model.TrackingRecord) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	query := `
		UPDATE tracking_records
		SET scheduled_at = $2, sent_at = $3, status = $4, attempts = $5,
		    last_error = $6, metadata = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ScheduledAt,
		rec.SentAt,
		string(rec.Status),
		rec.Attempts,
		rec.LastError,
		meta,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracking record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresTrackingStore) Claim(ctx context.Context, id string, now time.Time) (*model.TrackingRecord, error) {
	query := `
		UPDATE tracking_records
		SET status = $3, updated_at = $2
		WHERE id = $1 AND status = $4 AND scheduled_at <= $2
		RETURNING ` + trackingColumns
	rec, err := s.scanOne(s.db.QueryRowContext(ctx, query, id, now, string(model.StatusProcessing), string(model.StatusPending)))
	if err == nil {
		return rec, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	// Lost the conditional update; figure out why for the caller.
	var status string
	var scheduledAt time.Time
	row := s.db.QueryRowContext(ctx, `SELECT status, scheduled_at FROM tracking_records WHERE id = $1`, id)
	switch err := row.Scan(&status, &scheduledAt); {
	case err == sql.ErrNoRows:
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to inspect unclaimed record: %w", err)
	case model.Status(status) != model.StatusPending:
		return nil, ErrNotPending
	default:
		return nil, ErrNotDue
	}
}

func (s *PostgresTrackingStore) DueIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM tracking_records
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at
	`
	rows, err := s.db.QueryContext(ctx, query, string(model.StatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan due record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresTrackingStore) LastSentAt(ctx context.Context, email string, t model.AutomationType) (*time.Time, error) {
	query := `
		SELECT MAX(sent_at) FROM tracking_records
		WHERE customer_email = $1 AND automation_type = $2 AND status = $3
	`
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, query, email, string(t), string(model.StatusSent)).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last sent time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

func (s *PostgresTrackingStore) All(ctx context.Context) ([]*model.TrackingRecord, error) {
	query := `SELECT ` + trackingColumns + ` FROM tracking_records`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking records: %w", err)
	}
	defer rows.Close()

	var out []*model.TrackingRecord
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresTrackingStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM tracking_records
		WHERE status IN ($1, $2, $3) AND created_at < $4
	`
	res, err := s.db.ExecContext(ctx, query,
		string(model.StatusSent), string(model.StatusFailed), string(model.StatusCancelled), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old tracking records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresTrackingStore) scanOne(row *sql.Row) (*model.TrackingRecord, error) {
	rec, err := s.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *PostgresTrackingStore) scanRow(row rowScanner) (*model.TrackingRecord, error) {
	var rec model.TrackingRecord
	var autoType, status string
	var sentAt sql.NullTime
	var lastError sql.NullString
	var meta []byte

	err := row.Scan(
		&rec.ID,
		&rec.CustomerEmail,
		&autoType,
		&rec.ScheduledAt,
		&sentAt,
		&status,
		&rec.Attempts,
		&lastError,
		&meta,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tracking record: %w", err)
	}

	rec.Type = model.AutomationType(autoType)
	rec.Status = model.Status(status)
	if sentAt.Valid {
		rec.SentAt = &sentAt.Time
	}
	if lastError.Valid {
		rec.LastError = lastError.String
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}
