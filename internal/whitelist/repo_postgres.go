package whitelist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"acs-platform/pkg/utils"
)

// PostgresStore persists whitelist entries.
//
// Assumed table: whitelist_entries with a unique index on
// (person_id, access_point_id, event_id) where event_id is NOT NULL and a
// partial unique index on (person_id, access_point_id) where event_id IS
// NULL. Time-of-day bounds are stored as minutes since midnight; weekday
// sets as JSONB.
type PostgresStore struct {
	db *sql.DB
	q  querier
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		// Already transactional; nested calls reuse the outer tx.
		return fn(ctx, s)
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &PostgresStore{db: s.db, q: tx})
	})
}

const entryColumns = `
id, person_id, access_point_id, event_id, is_allowed, valid_from, valid_until,
start_minute, end_minute, recurrence, recurrence_days, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var (
		e          Entry
		eventID    sql.NullString
		validFrom  sql.NullTime
		validUntil sql.NullTime
		startMin   sql.NullInt64
		endMin     sql.NullInt64
		days       []byte
	)
	err := row.Scan(
		&e.ID,
		&e.PersonID,
		&e.AccessPointID,
		&eventID,
		&e.IsAllowed,
		&validFrom,
		&validUntil,
		&startMin,
		&endMin,
		&e.Recurrence,
		&days,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.EventID = eventID.String
	if validFrom.Valid {
		t := validFrom.Time.UTC()
		e.ValidFrom = &t
	}
	if validUntil.Valid {
		t := validUntil.Time.UTC()
		e.ValidUntil = &t
	}
	if startMin.Valid {
		v := TimeOfDay(startMin.Int64)
		e.StartTime = &v
	}
	if endMin.Valid {
		v := TimeOfDay(endMin.Int64)
		e.EndTime = &v
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &e.RecurrenceDays); err != nil {
			return Entry{}, fmt.Errorf("decode recurrence_days: %w", err)
		}
	}
	return e, nil
}

func entryArgs(e Entry) ([]any, error) {
	var days any
	if len(e.RecurrenceDays) > 0 {
		b, err := json.Marshal(e.RecurrenceDays)
		if err != nil {
			return nil, err
		}
		days = b
	}
	return []any{
		e.ID,
		e.PersonID,
		e.AccessPointID,
		nullString(e.EventID),
		e.IsAllowed,
		nullTime(e.ValidFrom),
		nullTime(e.ValidUntil),
		nullMinute(e.StartTime),
		nullMinute(e.EndTime),
		string(e.Recurrence),
		days,
		e.CreatedAt,
		e.UpdatedAt,
	}, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM whitelist_entries WHERE id = $1`
	e, err := scanEntry(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *PostgresStore) GetByKey(ctx context.Context, personID, accessPointID, eventID string) (Entry, error) {
	q := `SELECT ` + entryColumns + `
FROM whitelist_entries
WHERE person_id = $1 AND access_point_id = $2 AND event_id IS NOT DISTINCT FROM $3`
	e, err := scanEntry(s.q.QueryRowContext(ctx, q, personID, accessPointID, nullString(eventID)))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *PostgresStore) ListForPair(ctx context.Context, personID, accessPointID string) ([]Entry, error) {
	q := `SELECT ` + entryColumns + `
FROM whitelist_entries
WHERE person_id = $1 AND access_point_id = $2
ORDER BY created_at`
	return s.list(ctx, q, personID, accessPointID)
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM whitelist_entries WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.PersonID != "" {
		q += " AND person_id = " + arg(f.PersonID)
	}
	if f.AccessPointID != "" {
		q += " AND access_point_id = " + arg(f.AccessPointID)
	}
	if f.EventID != "" {
		q += " AND event_id = " + arg(f.EventID)
	}
	q += " ORDER BY created_at"
	return s.list(ctx, q, args...)
}

func (s *PostgresStore) list(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO whitelist_entries (` + entryColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = s.q.ExecContext(ctx, q, args...)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, e Entry) error {
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	const q = `
UPDATE whitelist_entries SET
  person_id = $2, access_point_id = $3, event_id = $4, is_allowed = $5,
  valid_from = $6, valid_until = $7, start_minute = $8, end_minute = $9,
  recurrence = $10, recurrence_days = $11, created_at = $12, updated_at = $13
WHERE id = $1`
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM whitelist_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullMinute(t *TimeOfDay) any {
	if t == nil {
		return nil
	}
	return int64(*t)
}
