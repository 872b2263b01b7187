package biostar

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config describes the vendor device-management API.
type Config struct {
	BaseURL       string
	Username      string
	Password      string
	VerifyTLS     bool
	Timeout       time.Duration
	SessionMaxAge time.Duration
}

// Session is the vendor session token together with the time it was
// obtained. It is held by the client and passed explicitly through request
// plumbing; there is no global token state.
type Session struct {
	ID         string
	ObtainedAt time.Time
}

// Expired reports whether the session should be re-obtained before use.
func (s Session) Expired(now time.Time, maxAge time.Duration) bool {
	if s.ID == "" {
		return true
	}
	return maxAge > 0 && now.Sub(s.ObtainedAt) >= maxAge
}

// APIError is a non-2xx vendor response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("biostar: unexpected status %d: %s", e.Status, e.Body)
}

// Client talks to the BioStar 2 local API. The server issues session tokens
// via the bs-session-id response header on login and expects the same header
// on every call; an expired token yields 401, answered with exactly one
// re-login and retry.
type Client struct {
	cfg  Config
	http *http.Client

	mu      sync.Mutex
	session Session

	clock func() time.Time
}

func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 30 * time.Minute
	}
	transport := &http.Transport{}
	if !cfg.VerifyTLS {
		// Appliances in the field almost never carry a valid certificate.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		clock: time.Now,
	}
}

// Login obtains a fresh session and stores it on the client.
func (c *Client) Login(ctx context.Context) (Session, error) {
	payload := map[string]any{
		"User": map[string]string{
			"login_id": c.cfg.Username,
			"password": c.cfg.Password,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("biostar login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Session{}, &APIError{Status: resp.StatusCode, Body: string(b)}
	}

	id := strings.TrimSpace(resp.Header.Get("bs-session-id"))
	if id == "" {
		return Session{}, fmt.Errorf("biostar login: response carries no bs-session-id header")
	}

	session := Session{ID: id, ObtainedAt: c.clock()}
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return session, nil
}

func (c *Client) currentSession(ctx context.Context) (Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if !session.Expired(c.clock(), c.cfg.SessionMaxAge) {
		return session, nil
	}
	return c.Login(ctx)
}

// get performs an authenticated GET, re-logging in at most once on 401.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	session, err := c.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	body, status, err := c.doGet(ctx, path, session)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		session, err = c.Login(ctx)
		if err != nil {
			return nil, err
		}
		body, status, err = c.doGet(ctx, path, session)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Body: string(body)}
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, path string, session Session) ([]byte, int, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("bs-session-id", session.ID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("biostar %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("biostar %s: read body: %w", path, err)
	}
	return body, resp.StatusCode, nil
}

// ListDevices returns the raw device rows.
func (c *Client) ListDevices(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/api/devices")
	if err != nil {
		return nil, err
	}
	return decodeRows(body, "DeviceCollection", "device_collection", "devices")
}

// ListUsers returns the raw user rows.
func (c *Client) ListUsers(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/api/users")
	if err != nil {
		return nil, err
	}
	return decodeRows(body, "UserCollection", "user_collection", "users")
}

// ListDeviceUsers returns the raw user rows enrolled on one device.
func (c *Client) ListDeviceUsers(ctx context.Context, deviceID int64) ([]json.RawMessage, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/devices/%d/users", deviceID))
	if err != nil {
		return nil, err
	}
	return decodeRows(body, "UserCollection", "user_collection", "users")
}
