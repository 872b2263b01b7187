package biostar

import (
	"context"
	"database/sql"
)

// PostgresStore mirrors vendor rows into biostar_devices and biostar_users,
// each with a unique index on the vendor id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertDevice(ctx context.Context, d Device) (bool, error) {
	// xmax = 0 only holds for freshly inserted rows.
	const q = `
INSERT INTO biostar_devices (device_id, name, device_type, ip_addr, status, group_id, group_name, last_synced_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (device_id) DO UPDATE SET
  name = EXCLUDED.name,
  device_type = EXCLUDED.device_type,
  ip_addr = EXCLUDED.ip_addr,
  status = EXCLUDED.status,
  group_id = EXCLUDED.group_id,
  group_name = EXCLUDED.group_name,
  last_synced_at = EXCLUDED.last_synced_at
RETURNING (xmax = 0)`
	var created bool
	err := s.db.QueryRowContext(ctx, q,
		d.DeviceID, d.Name, d.DeviceType, d.IPAddr, d.Status, d.GroupID, d.GroupName, d.LastSyncedAt,
	).Scan(&created)
	return created, err
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u User) (bool, error) {
	const q = `
INSERT INTO biostar_users (user_id, user_unique_id, name, email, phone, is_active, last_synced_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id) DO UPDATE SET
  user_unique_id = EXCLUDED.user_unique_id,
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  phone = EXCLUDED.phone,
  is_active = EXCLUDED.is_active,
  last_synced_at = EXCLUDED.last_synced_at
RETURNING (xmax = 0)`
	var created bool
	err := s.db.QueryRowContext(ctx, q,
		u.UserID, u.UserUniqueID, u.Name, u.Email, u.Phone, u.IsActive, u.LastSyncedAt,
	).Scan(&created)
	return created, err
}

func (s *PostgresStore) ListDevices(ctx context.Context) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT device_id, name, device_type, ip_addr, status, group_id, group_name, last_synced_at
FROM biostar_devices ORDER BY device_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		var (
			d      Device
			ipAddr sql.NullString
			status sql.NullString
		)
		if err := rows.Scan(&d.DeviceID, &d.Name, &d.DeviceType, &ipAddr, &status, &d.GroupID, &d.GroupName, &d.LastSyncedAt); err != nil {
			return nil, err
		}
		d.IPAddr = ipAddr.String
		d.Status = status.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, user_unique_id, name, email, phone, is_active, last_synced_at
FROM biostar_users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.UserUniqueID, &u.Name, &u.Email, &u.Phone, &u.IsActive, &u.LastSyncedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
