package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"acs-platform/internal/audit"
	"acs-platform/internal/directory"
	"acs-platform/internal/extlog"
	"acs-platform/internal/invitations"
	"acs-platform/internal/whitelist"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	handlers Handlers
	store    *whitelist.MemoryStore
	extStore *extlog.MemoryStore
	fetch    *fixtureFetcher
	audits   *audit.MemoryRepo
}

type fixtureFetcher struct {
	records []extlog.Record
	err     error
}

func (f *fixtureFetcher) FetchLatest(ctx context.Context, limit int) ([]extlog.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := directory.NewMemoryRepo()
	dir.Sites["s1"] = directory.Site{ID: "s1", Name: "Club Norte"}
	dir.AccessPoints["ap1"] = directory.AccessPoint{ID: "ap1", SiteID: "s1", Name: "Main Gate"}
	dir.Persons["p1"] = directory.Person{
		ID: "p1", FirstName: "Ana", LastName: "Alvarez", DNI: "11111111",
		PersonType: directory.PersonTypeMember, IsActive: true,
	}
	dir.Persons["g1"] = directory.Person{
		ID: "g1", FirstName: "Carla", LastName: "Castro", DNI: "33333333",
		PersonType: directory.PersonTypeGuest, GuestType: directory.GuestTypeEventVisitor,
		IsActive: true,
	}
	dir.Events["e1"] = directory.Event{
		ID: "e1", SiteID: "s1", Name: "Open Day",
		AllowedGuestTypes: []directory.GuestType{directory.GuestTypeEventVisitor},
	}

	store := whitelist.NewMemoryStore()
	extStore := extlog.NewMemoryStore()
	fetch := &fixtureFetcher{}
	audits := audit.NewMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		handlers: Handlers{
			Whitelist:   whitelist.NewService(store, dir, nil),
			Invitations: invitations.NewService(invitations.NewMemoryRepo(), dir),
			ExtLogs:     extStore,
			Syncer:      extlog.NewSynchronizer(fetch, extStore, 10, log),
			Audit:       audit.NewService(audits),
		},
		store:    store,
		extStore: extStore,
		fetch:    fetch,
		audits:   audits,
	}
}

func (f *fixture) router() *gin.Engine {
	r := gin.New()
	r.POST("/v1/whitelist", f.handlers.CreateEntry)
	r.PUT("/v1/whitelist/:id", f.handlers.UpdateEntry)
	r.DELETE("/v1/whitelist/:id", f.handlers.DeleteEntry)
	r.GET("/v1/whitelist/:id", f.handlers.GetEntry)
	r.GET("/v1/whitelist", f.handlers.ListEntries)
	r.POST("/v1/whitelist/batch", f.handlers.BatchAuthorize)
	r.GET("/v1/access-logs", f.handlers.ListAccessLogs)
	r.GET("/v1/access-logs/stats", f.handlers.AccessLogStats)
	r.POST("/v1/access-logs/sync", f.handlers.TriggerSync)
	r.POST("/v1/invitations", f.handlers.CreateInvitation)
	r.GET("/v1/invitations", f.handlers.ListInvitations)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEntryEndpoint(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	w := doJSON(t, r, http.MethodPost, "/v1/whitelist", gin.H{
		"person_id":       "p1",
		"access_point_id": "ap1",
		"valid_from":      "2024-06-01",
		"valid_until":     "2024-06-30",
		"start_time":      "08:00",
		"end_time":        "18:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var entry whitelist.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.ID == "" || entry.PersonID != "p1" || !entry.IsAllowed {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.StartTime == nil || entry.StartTime.String() != "08:00" {
		t.Fatalf("start time = %v", entry.StartTime)
	}

	if evs := f.audits.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeWhitelistCreate {
		t.Fatalf("audit events = %+v", evs)
	}
}

func TestCreateEntryValidationErrors(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	// Unknown person surfaces as a field-keyed 422.
	w := doJSON(t, r, http.MethodPost, "/v1/whitelist", gin.H{
		"person_id":       "ghost",
		"access_point_id": "ap1",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Errors["person_id"] == "" {
		t.Fatalf("errors = %v", resp.Errors)
	}

	// Malformed date is caught at the parse layer with the same shape.
	w = doJSON(t, r, http.MethodPost, "/v1/whitelist", gin.H{
		"person_id":       "p1",
		"access_point_id": "ap1",
		"valid_from":      "01/06/2024",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpdateAndDeleteEndpoints(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	w := doJSON(t, r, http.MethodPost, "/v1/whitelist", gin.H{
		"person_id": "p1", "access_point_id": "ap1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var entry whitelist.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)

	w = doJSON(t, r, http.MethodPut, "/v1/whitelist/"+entry.ID, gin.H{
		"person_id": "p1", "access_point_id": "ap1", "is_allowed": false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, "/v1/whitelist/"+entry.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/whitelist/"+entry.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", w.Code)
	}
}

func TestBatchEndpointPreviewAndWrite(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	w := doJSON(t, r, http.MethodPost, "/v1/whitelist/batch", gin.H{
		"site_id": "s1", "preview": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("preview: %d %s", w.Code, w.Body.String())
	}
	var res whitelist.BatchResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Preview || len(res.People) != 2 {
		t.Fatalf("preview result = %+v", res)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/whitelist/batch", gin.H{"site_id": "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("write: %d %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Created != 2 || res.Preview {
		t.Fatalf("write result = %+v", res)
	}

	// Selector problems come back as 422 field errors.
	w = doJSON(t, r, http.MethodPost, "/v1/whitelist/batch", gin.H{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty selectors: %d", w.Code)
	}
}

func TestListAccessLogsLimitValidation(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	seed := []extlog.Entry{
		{ExternalID: 1, OccurredAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{ExternalID: 2, OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
	}
	if _, err := f.extStore.UpsertBatch(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/v1/access-logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list all: %d", w.Code)
	}
	var resp struct {
		Entries []extlog.Entry `json:"entries"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Entries) != 2 || resp.Entries[0].ExternalID != 2 {
		t.Fatalf("entries = %+v", resp.Entries)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/access-logs?limit=1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp.Entries) != 1 {
		t.Fatalf("limited list: %d, %d entries", w.Code, len(resp.Entries))
	}

	for _, bad := range []string{"0", "-3", "abc"} {
		w = doJSON(t, r, http.MethodGet, "/v1/access-logs?limit="+bad, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("limit %q: status = %d", bad, w.Code)
		}
	}
}

func TestTriggerSyncEndpoint(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	id := int64(7)
	f.fetch.records = []extlog.Record{{ExternalID: &id, MovementType: "IN"}}

	w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sync: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Synced int `json:"synced"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Synced != 1 {
		t.Fatalf("synced = %d", resp.Synced)
	}

	// Configuration problems and source connect/query failures are both
	// client errors; only unexpected failures become 500s.
	f.fetch.err = &extlog.SourceError{Op: "connect", Err: errors.New("down")}
	if w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("source error: %d", w.Code)
	}
	f.fetch.err = extlog.ErrConfig
	if w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("config error: %d", w.Code)
	}
	f.fetch.err = errors.New("boom")
	if w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected error: %d", w.Code)
	}

	f.fetch.err = nil
	if w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", gin.H{"limit": 0}); w.Code != http.StatusBadRequest {
		t.Fatalf("zero limit: %d", w.Code)
	}
}

func TestAccessLogStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	seed := []extlog.Entry{
		{ExternalID: 1, MovementType: "IN", Result: "OK", OccurredAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{ExternalID: 2, MovementType: "IN", Result: "OK", OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{ExternalID: 3, MovementType: "OUT", Result: "OK", OccurredAt: time.Date(2024, 5, 2, 17, 0, 0, 0, time.UTC)},
	}
	if _, err := f.extStore.UpsertBatch(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/v1/access-logs/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	var s extlog.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.ByMovementType["IN"] != 2 || len(s.Days) != 2 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestInvitationEndpoints(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	w := doJSON(t, r, http.MethodPost, "/v1/invitations", gin.H{"person_id": "g1", "event_id": "e1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("invite: %d %s", w.Code, w.Body.String())
	}
	var inv directory.GuestInvitation
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatal(err)
	}
	if inv.ID == "" || inv.GuestType != directory.GuestTypeEventVisitor {
		t.Fatalf("invitation = %+v", inv)
	}

	// Non-guests come back as field-keyed 422s, duplicates as 409.
	if w := doJSON(t, r, http.MethodPost, "/v1/invitations", gin.H{"person_id": "p1", "event_id": "e1"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("non-guest: %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/invitations", gin.H{"person_id": "g1", "event_id": "e1"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/invitations?event_id=e1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var resp struct {
		Invitations []directory.GuestInvitation `json:"invitations"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Invitations) != 1 || resp.Invitations[0].PersonID != "g1" {
		t.Fatalf("invitations = %+v", resp.Invitations)
	}

	if w := doJSON(t, r, http.MethodGet, "/v1/invitations", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing event_id: %d", w.Code)
	}
}

func TestTriggerSyncWithoutSyncer(t *testing.T) {
	f := newFixture(t)
	f.handlers.Syncer = nil
	r := f.router()

	if w := doJSON(t, r, http.MethodPost, "/v1/access-logs/sync", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
