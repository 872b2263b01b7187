package invitations

import (
	"context"
	"database/sql"
	"errors"

	"acs-platform/internal/directory"
)

// PostgresRepo stores invitations in guest_invitations.
// (person_id, event_id) carries a unique constraint.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetByKey(ctx context.Context, personID, eventID string) (directory.GuestInvitation, error) {
	const q = `
SELECT id, person_id, event_id, guest_type, created_at
FROM guest_invitations
WHERE person_id = $1 AND event_id = $2`
	var inv directory.GuestInvitation
	err := r.db.QueryRowContext(ctx, q, personID, eventID).Scan(
		&inv.ID, &inv.PersonID, &inv.EventID, &inv.GuestType, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.GuestInvitation{}, ErrNotFound
	}
	if err != nil {
		return directory.GuestInvitation{}, err
	}
	return inv, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, inv directory.GuestInvitation) error {
	const q = `
INSERT INTO guest_invitations (id, person_id, event_id, guest_type, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, inv.ID, inv.PersonID, inv.EventID, string(inv.GuestType), inv.CreatedAt)
	return err
}

func (r *PostgresRepo) ListByEvent(ctx context.Context, eventID string) ([]directory.GuestInvitation, error) {
	const q = `
SELECT id, person_id, event_id, guest_type, created_at
FROM guest_invitations
WHERE event_id = $1
ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []directory.GuestInvitation
	for rows.Next() {
		var inv directory.GuestInvitation
		if err := rows.Scan(&inv.ID, &inv.PersonID, &inv.EventID, &inv.GuestType, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
