package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"acs-platform/internal/audit"
	"acs-platform/internal/auth"
	"acs-platform/internal/biostar"
	"acs-platform/internal/directory"
	"acs-platform/internal/extlog"
	"acs-platform/internal/invitations"
	"acs-platform/internal/whitelist"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth        *auth.Manager
	Whitelist   *whitelist.Service
	Invitations *invitations.Service
	ExtLogs     extlog.Store
	Syncer      *extlog.Synchronizer
	BioStar     *biostar.Service
	Audit       *audit.Service
}

// writeServiceError maps service failures to HTTP responses. Validation
// failures carry the full field map as a 422 body.
func writeServiceError(c *gin.Context, err error) {
	var fe whitelist.FieldErrors
	switch {
	case errors.As(err, &fe):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": fe})
	case errors.Is(err, whitelist.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h Handlers) actor(c *gin.Context) (userID, role, ip string) {
	userID, _ = auth.UserID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return userID, role, c.ClientIP()
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Whitelist ---

// entryRequest is the wire form of a whitelist write. Dates come as
// YYYY-MM-DD and times as HH:MM.
type entryRequest struct {
	PersonID       string `json:"person_id"`
	AccessPointID  string `json:"access_point_id"`
	EventID        string `json:"event_id"`
	IsAllowed      *bool  `json:"is_allowed"`
	ValidFrom      string `json:"valid_from"`
	ValidUntil     string `json:"valid_until"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Recurrence     string `json:"recurrence"`
	RecurrenceDays []int  `json:"recurrence_days"`
}

func (r entryRequest) toWriteRequest() (whitelist.WriteRequest, whitelist.FieldErrors) {
	errs := whitelist.FieldErrors{}
	out := whitelist.WriteRequest{
		PersonID:       r.PersonID,
		AccessPointID:  r.AccessPointID,
		EventID:        r.EventID,
		IsAllowed:      r.IsAllowed,
		RecurrenceDays: r.RecurrenceDays,
	}
	out.ValidFrom = parseDateField(r.ValidFrom, "valid_from", errs)
	out.ValidUntil = parseDateField(r.ValidUntil, "valid_until", errs)
	out.StartTime = parseTimeField(r.StartTime, "start_time", errs)
	out.EndTime = parseTimeField(r.EndTime, "end_time", errs)
	if r.Recurrence != "" {
		rec := whitelist.Recurrence(r.Recurrence)
		out.Recurrence = &rec
	}
	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}

func parseDateField(v, field string, errs whitelist.FieldErrors) *time.Time {
	if v == "" {
		return nil
	}
	d, err := whitelist.ParseDate(v)
	if err != nil {
		errs[field] = err.Error()
		return nil
	}
	return &d
}

func parseTimeField(v, field string, errs whitelist.FieldErrors) *whitelist.TimeOfDay {
	if v == "" {
		return nil
	}
	t, err := whitelist.ParseTimeOfDay(v)
	if err != nil {
		errs[field] = err.Error()
		return nil
	}
	return &t
}

func (h Handlers) CreateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	wr, errs := req.toWriteRequest()
	if errs != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	entry, err := h.Whitelist.Create(c.Request.Context(), wr)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if h.Audit != nil {
		uid, role, ip := h.actor(c)
		_ = h.Audit.LogWhitelistWrite(c.Request.Context(), audit.EventTypeWhitelistCreate, uid, role, ip, entry.ID, entry.PersonID, entry.AccessPointID)
	}
	c.JSON(http.StatusCreated, entry)
}

func (h Handlers) UpdateEntry(c *gin.Context) {
	id := c.Param("id")
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	wr, errs := req.toWriteRequest()
	if errs != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	entry, err := h.Whitelist.Update(c.Request.Context(), id, wr)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if h.Audit != nil {
		uid, role, ip := h.actor(c)
		_ = h.Audit.LogWhitelistWrite(c.Request.Context(), audit.EventTypeWhitelistUpdate, uid, role, ip, entry.ID, entry.PersonID, entry.AccessPointID)
	}
	c.JSON(http.StatusOK, entry)
}

func (h Handlers) DeleteEntry(c *gin.Context) {
	id := c.Param("id")
	if err := h.Whitelist.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	if h.Audit != nil {
		uid, role, ip := h.actor(c)
		_ = h.Audit.LogWhitelistWrite(c.Request.Context(), audit.EventTypeWhitelistDelete, uid, role, ip, id, "", "")
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) GetEntry(c *gin.Context) {
	entry, err := h.Whitelist.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h Handlers) ListEntries(c *gin.Context) {
	entries, err := h.Whitelist.List(c.Request.Context(), whitelist.Filter{
		PersonID:      c.Query("person_id"),
		AccessPointID: c.Query("access_point_id"),
		EventID:       c.Query("event_id"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// --- Batch authorization ---

type batchRequest struct {
	AccessPointIDs []string `json:"access_point_ids"`
	SiteID         string   `json:"site_id"`
	EventID        string   `json:"event_id"`
	PersonTypes    []string `json:"person_types"`
	GuestTypes     []string `json:"guest_types"`
	ActiveOnly     *bool    `json:"active_only"`
	IsAllowed      *bool    `json:"is_allowed"`
	ValidFrom      string   `json:"valid_from"`
	ValidUntil     string   `json:"valid_until"`
	Preview        bool     `json:"preview"`
}

func (h Handlers) BatchAuthorize(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errs := whitelist.FieldErrors{}
	br := whitelist.BatchRequest{
		AccessPointIDs: req.AccessPointIDs,
		SiteID:         req.SiteID,
		EventID:        req.EventID,
		ActiveOnly:     req.ActiveOnly,
		IsAllowed:      req.IsAllowed,
		Preview:        req.Preview,
	}
	for _, t := range req.PersonTypes {
		br.PersonTypes = append(br.PersonTypes, directory.PersonType(t))
	}
	for _, t := range req.GuestTypes {
		br.GuestTypes = append(br.GuestTypes, directory.GuestType(t))
	}
	br.ValidFrom = parseDateField(req.ValidFrom, "valid_from", errs)
	br.ValidUntil = parseDateField(req.ValidUntil, "valid_until", errs)
	if len(errs) > 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	res, err := h.Whitelist.BatchAuthorize(c.Request.Context(), br)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if !res.Preview && h.Audit != nil {
		uid, role, ip := h.actor(c)
		_ = h.Audit.LogBatch(c.Request.Context(), uid, role, ip, req.EventID,
			`{"created":`+strconv.Itoa(res.Created)+`,"updated":`+strconv.Itoa(res.Updated)+`}`)
	}
	c.JSON(http.StatusOK, res)
}

// --- Guest invitations ---

type inviteRequest struct {
	PersonID string `json:"person_id"`
	EventID  string `json:"event_id"`
}

func (h Handlers) CreateInvitation(c *gin.Context) {
	if h.Invitations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invitations not configured"})
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	inv, err := h.Invitations.Invite(c.Request.Context(), req.PersonID, req.EventID)
	if err != nil {
		var fe invitations.FieldErrors
		switch {
		case errors.As(err, &fe):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": fe})
		case errors.Is(err, invitations.ErrAlreadyInvited):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h Handlers) ListInvitations(c *gin.Context) {
	if h.Invitations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invitations not configured"})
		return
	}
	eventID := c.Query("event_id")
	if eventID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
		return
	}
	invs, err := h.Invitations.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

// --- External access logs ---

func (h Handlers) ListAccessLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.ExtLogs.List(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// AccessLogStats summarizes synchronized movements by type, result and day.
func (h Handlers) AccessLogStats(c *gin.Context) {
	entries, err := h.ExtLogs.List(c.Request.Context(), 0)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, extlog.Summarize(entries))
}

type syncRequest struct {
	Limit *int `json:"limit"`
}

// TriggerSync runs one synchronous fetch-and-persist cycle.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Syncer == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "external log source is not configured"})
		return
	}

	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	var (
		n   int
		err error
	)
	if req.Limit != nil {
		if *req.Limit <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		n, err = h.Syncer.SyncN(c.Request.Context(), *req.Limit)
	} else {
		n, err = h.Syncer.SyncOnce(c.Request.Context())
	}

	if err != nil {
		// Configuration and source connect/query failures are the caller's
		// problem to act on; anything else is ours.
		var srcErr *extlog.SourceError
		if errors.Is(err, extlog.ErrConfig) || errors.As(err, &srcErr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	if h.Audit != nil {
		uid, role, ip := h.actor(c)
		_ = h.Audit.LogSync(c.Request.Context(), audit.EventTypeExtlogSync, uid, role, ip,
			`{"synced":`+strconv.Itoa(n)+`}`)
	}
	c.JSON(http.StatusOK, gin.H{"synced": n})
}

// --- BioStar mirror ---

func (h Handlers) requireBioStar(c *gin.Context) bool {
	if h.BioStar == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "biostar integration is not configured"})
		return false
	}
	return true
}

func (h Handlers) ListDevices(c *gin.Context) {
	if !h.requireBioStar(c) {
		return
	}
	devices, err := h.BioStar.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (h Handlers) SyncDevices(c *gin.Context) {
	if !h.requireBioStar(c) {
		return
	}
	res, err := h.BioStar.SyncDevices(c.Request.Context())
	if err != nil {
		h.writeBioStarError(c, err)
		return
	}
	h.auditBioStarSync(c, res)
	c.JSON(http.StatusOK, res)
}

func (h Handlers) ListUsers(c *gin.Context) {
	if !h.requireBioStar(c) {
		return
	}
	users, err := h.BioStar.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h Handlers) ListDeviceUsers(c *gin.Context) {
	if !h.requireBioStar(c) {
		return
	}
	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || deviceID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "device id must be a positive integer"})
		return
	}
	users, err := h.BioStar.ListDeviceUsers(c.Request.Context(), deviceID)
	if err != nil {
		h.writeBioStarError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h Handlers) SyncUsers(c *gin.Context) {
	if !h.requireBioStar(c) {
		return
	}
	res, err := h.BioStar.SyncUsers(c.Request.Context())
	if err != nil {
		h.writeBioStarError(c, err)
		return
	}
	h.auditBioStarSync(c, res)
	c.JSON(http.StatusOK, res)
}

func (h Handlers) writeBioStarError(c *gin.Context, err error) {
	var apiErr *biostar.APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "vendor api error"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h Handlers) auditBioStarSync(c *gin.Context, res biostar.SyncResult) {
	if h.Audit == nil {
		return
	}
	uid, role, ip := h.actor(c)
	_ = h.Audit.LogSync(c.Request.Context(), audit.EventTypeBioStarSync, uid, role, ip,
		`{"created":`+strconv.Itoa(res.Created)+`,"updated":`+strconv.Itoa(res.Updated)+`}`)
}
