package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PostgresRepo reads directory entities from Postgres.
//
// Assumed tables: persons, sites, access_points, access_devices, events.
// Event allow-lists are stored as JSONB arrays of type strings.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const personColumns = `
id, first_name, last_name, dni, email, phone, credential_code,
facial_enrolled, person_type, guest_type, is_active, created_at, updated_at`

func scanPerson(row interface{ Scan(...any) error }) (Person, error) {
	var p Person
	var phone, credential, guestType sql.NullString
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.DNI,
		&p.Email,
		&phone,
		&credential,
		&p.FacialEnrolled,
		&p.PersonType,
		&guestType,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Person{}, err
	}
	p.Phone = phone.String
	p.CredentialCode = credential.String
	p.GuestType = GuestType(guestType.String)
	return p, nil
}

func (r *PostgresRepo) GetPerson(ctx context.Context, id string) (Person, error) {
	q := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	p, err := scanPerson(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepo) GetAccessPoint(ctx context.Context, id string) (AccessPoint, error) {
	const q = `SELECT id, site_id, name, description FROM access_points WHERE id = $1`
	var ap AccessPoint
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&ap.ID, &ap.SiteID, &ap.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return AccessPoint{}, ErrNotFound
	}
	if err != nil {
		return AccessPoint{}, err
	}
	ap.Description = desc.String
	return ap, nil
}

func (r *PostgresRepo) GetEvent(ctx context.Context, id string) (Event, error) {
	const q = `
SELECT id, site_id, name, description, start_date, end_date,
       allowed_person_types, allowed_guest_types
FROM events WHERE id = $1`
	var e Event
	var desc sql.NullString
	var personTypes, guestTypes []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID,
		&e.SiteID,
		&e.Name,
		&desc,
		&e.StartDate,
		&e.EndDate,
		&personTypes,
		&guestTypes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	e.Description = desc.String
	if len(personTypes) > 0 {
		if err := json.Unmarshal(personTypes, &e.AllowedPersonTypes); err != nil {
			return Event{}, fmt.Errorf("decode allowed_person_types: %w", err)
		}
	}
	if len(guestTypes) > 0 {
		if err := json.Unmarshal(guestTypes, &e.AllowedGuestTypes); err != nil {
			return Event{}, fmt.Errorf("decode allowed_guest_types: %w", err)
		}
	}
	return e, nil
}

func (r *PostgresRepo) ListAccessPointsByIDs(ctx context.Context, ids []string) ([]AccessPoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `SELECT id, site_id, name, description FROM access_points WHERE id IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY name`
	return r.listAccessPoints(ctx, q, args...)
}

func (r *PostgresRepo) ListAccessPointsBySite(ctx context.Context, siteID string) ([]AccessPoint, error) {
	const q = `SELECT id, site_id, name, description FROM access_points WHERE site_id = $1 ORDER BY name`
	return r.listAccessPoints(ctx, q, siteID)
}

func (r *PostgresRepo) listAccessPoints(ctx context.Context, q string, args ...any) ([]AccessPoint, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccessPoint
	for rows.Next() {
		var ap AccessPoint
		var desc sql.NullString
		if err := rows.Scan(&ap.ID, &ap.SiteID, &ap.Name, &desc); err != nil {
			return nil, err
		}
		ap.Description = desc.String
		out = append(out, ap)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListPersons(ctx context.Context, f PersonFilter) ([]Person, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.PersonTypes) > 0 {
		ph := make([]string, len(f.PersonTypes))
		for i, t := range f.PersonTypes {
			ph[i] = arg(string(t))
		}
		conds = append(conds, "person_type IN ("+strings.Join(ph, ",")+")")
	}
	if len(f.GuestTypes) > 0 {
		ph := make([]string, len(f.GuestTypes))
		for i, t := range f.GuestTypes {
			ph[i] = arg(string(t))
		}
		// Guest-type filtering only constrains guests; other person types
		// pass through, mirroring PersonFilter.matches.
		conds = append(conds, "(person_type <> 'guest' OR guest_type IN ("+strings.Join(ph, ",")+"))")
	}
	if f.ActiveOnly != nil {
		conds = append(conds, "is_active = "+arg(*f.ActiveOnly))
	}

	q := `SELECT ` + personColumns + ` FROM persons`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY last_name, first_name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
