package extlog

import (
	"context"
	"database/sql"

	"acs-platform/pkg/utils"
)

// PostgresStore persists mirrored movement rows in external_access_logs,
// which carries a unique index on external_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertEntry = `
INSERT INTO external_access_logs (
  external_id, movement_type, origin, card_id, client_id, occurred_at,
  result, controller_id, access_id, observation, record_kind, reason_code,
  pass_flag, pass_permitted_at, pass_controller_id, synced_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (external_id) DO UPDATE SET
  movement_type = EXCLUDED.movement_type,
  origin = EXCLUDED.origin,
  card_id = EXCLUDED.card_id,
  client_id = EXCLUDED.client_id,
  occurred_at = EXCLUDED.occurred_at,
  result = EXCLUDED.result,
  controller_id = EXCLUDED.controller_id,
  access_id = EXCLUDED.access_id,
  observation = EXCLUDED.observation,
  record_kind = EXCLUDED.record_kind,
  reason_code = EXCLUDED.reason_code,
  pass_flag = EXCLUDED.pass_flag,
  pass_permitted_at = EXCLUDED.pass_permitted_at,
  pass_controller_id = EXCLUDED.pass_controller_id,
  synced_at = EXCLUDED.synced_at`

func (s *PostgresStore) UpsertBatch(ctx context.Context, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertEntry)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			_, err := stmt.ExecContext(ctx,
				e.ExternalID,
				e.MovementType,
				e.Origin,
				e.CardID,
				e.ClientID,
				e.OccurredAt,
				e.Result,
				e.ControllerID,
				e.AccessID,
				e.Observation,
				e.RecordKind,
				e.ReasonCode,
				e.PassFlag,
				e.PassPermittedAt,
				e.PassControllerID,
				e.SyncedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `
SELECT external_id, movement_type, origin, card_id, client_id, occurred_at,
       result, controller_id, access_id, observation, record_kind, reason_code,
       pass_flag, pass_permitted_at, pass_controller_id, synced_at
FROM external_access_logs
ORDER BY occurred_at DESC, external_id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			passAt sql.NullTime
		)
		err := rows.Scan(
			&e.ExternalID,
			&e.MovementType,
			&e.Origin,
			&e.CardID,
			&e.ClientID,
			&e.OccurredAt,
			&e.Result,
			&e.ControllerID,
			&e.AccessID,
			&e.Observation,
			&e.RecordKind,
			&e.ReasonCode,
			&e.PassFlag,
			&passAt,
			&e.PassControllerID,
			&e.SyncedAt,
		)
		if err != nil {
			return nil, err
		}
		if passAt.Valid {
			t := passAt.Time.UTC()
			e.PassPermittedAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
