package biostar

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// API is the slice of Client the service needs.
type API interface {
	ListDevices(ctx context.Context) ([]json.RawMessage, error)
	ListUsers(ctx context.Context) ([]json.RawMessage, error)
	ListDeviceUsers(ctx context.Context, deviceID int64) ([]json.RawMessage, error)
}

// Service mirrors vendor devices and users into the local store.
type Service struct {
	api   API
	store Store
	log   *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(api API, store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, store: store, log: log, clock: time.Now}
}

type deviceRow struct {
	ID          flexID     `json:"id"`
	DeviceID    flexID     `json:"device_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	DeviceType  string     `json:"device_type"`
	IPAddr      string     `json:"ip_addr"`
	IP          string     `json:"ip"`
	Status      string     `json:"status"`
	DeviceGroup *flexGroup `json:"device_group"`
	GroupID     *flexGroup `json:"device_group_id"`
}

// SyncDevices fetches the vendor device list and upserts the local mirror.
// Rows without a usable id are skipped and counted in the result.
func (s *Service) SyncDevices(ctx context.Context) (SyncResult, error) {
	rows, err := s.api.ListDevices(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	now := s.clock().UTC()
	var res SyncResult
	for _, raw := range rows {
		var row deviceRow
		if err := json.Unmarshal(raw, &row); err != nil {
			s.log.Debug("skipping undecodable device row", "error", err)
			res.Skipped++
			continue
		}
		id := int64(row.ID)
		if id == 0 {
			id = int64(row.DeviceID)
		}
		if id == 0 {
			s.log.Debug("skipping device row without identifier", "name", row.Name)
			res.Skipped++
			continue
		}

		d := Device{
			DeviceID:     id,
			Name:         row.Name,
			DeviceType:   firstNonEmpty(row.Type, row.DeviceType),
			IPAddr:       firstNonEmpty(row.IPAddr, row.IP),
			Status:       row.Status,
			LastSyncedAt: now,
		}
		group := row.DeviceGroup
		if group == nil {
			group = row.GroupID
		}
		if group != nil && group.ID != 0 {
			gid := int64(group.ID)
			d.GroupID = &gid
			d.GroupName = group.Name
		}

		created, err := s.store.UpsertDevice(ctx, d)
		if err != nil {
			return SyncResult{}, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

type userRow struct {
	ID       flexID `json:"user_id"`
	AltID    flexID `json:"id"`
	UniqueID string `json:"user_unique_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	AltPhone string `json:"phone"`
	Disabled bool   `json:"disabled"`
}

// SyncUsers fetches the vendor user list and upserts the local mirror.
func (s *Service) SyncUsers(ctx context.Context) (SyncResult, error) {
	rows, err := s.api.ListUsers(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	now := s.clock().UTC()
	var res SyncResult
	users, skipped := s.mapUserRows(rows, now)
	res.Skipped = skipped
	for _, u := range users {
		created, err := s.store.UpsertUser(ctx, u)
		if err != nil {
			return SyncResult{}, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// mapUserRows decodes vendor user rows, dropping ones without a usable id.
func (s *Service) mapUserRows(rows []json.RawMessage, now time.Time) ([]User, int) {
	users := make([]User, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		var row userRow
		if err := json.Unmarshal(raw, &row); err != nil {
			s.log.Debug("skipping undecodable user row", "error", err)
			skipped++
			continue
		}
		id := int64(row.ID)
		if id == 0 {
			id = int64(row.AltID)
		}
		if id == 0 {
			s.log.Debug("skipping user row without identifier", "name", row.Name)
			skipped++
			continue
		}
		users = append(users, User{
			UserID:       id,
			UserUniqueID: row.UniqueID,
			Name:         row.Name,
			Email:        row.Email,
			Phone:        firstNonEmpty(row.Phone, row.AltPhone),
			IsActive:     !row.Disabled,
			LastSyncedAt: now,
		})
	}
	return users, skipped
}

// ListDevices returns the mirrored devices.
func (s *Service) ListDevices(ctx context.Context) ([]Device, error) {
	return s.store.ListDevices(ctx)
}

// ListUsers returns the mirrored users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// ListDeviceUsers returns the users currently enrolled on one device,
// straight from the vendor; enrollment is not mirrored locally.
func (s *Service) ListDeviceUsers(ctx context.Context, deviceID int64) ([]User, error) {
	rows, err := s.api.ListDeviceUsers(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	users, _ := s.mapUserRows(rows, s.clock().UTC())
	return users, nil
}

// SearchUsers filters the mirrored users by a case-insensitive substring
// match on name, email or unique id. An empty query returns everyone.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users, nil
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.UserUniqueID), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
