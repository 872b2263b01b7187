package biostar

import "time"

// Device is the local mirror of one reader registered in the vendor system.
type Device struct {
	DeviceID     int64     `json:"device_id" db:"device_id"`
	Name         string    `json:"name" db:"name"`
	DeviceType   string    `json:"device_type" db:"device_type"`
	IPAddr       string    `json:"ip_addr,omitempty" db:"ip_addr"`
	Status       string    `json:"status,omitempty" db:"status"`
	GroupID      *int64    `json:"group_id,omitempty" db:"group_id"`
	GroupName    string    `json:"group_name,omitempty" db:"group_name"`
	LastSyncedAt time.Time `json:"last_synced_at" db:"last_synced_at"`
}

// User is the local mirror of one person registered in the vendor system.
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	UserUniqueID string    `json:"user_unique_id,omitempty" db:"user_unique_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email,omitempty" db:"email"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	LastSyncedAt time.Time `json:"last_synced_at" db:"last_synced_at"`
}

// SyncResult reports one mirror sync run.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
