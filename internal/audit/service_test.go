package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogWhitelistWrite(context.Background(), EventTypeWhitelistCreate, "u1", "operator", "1.2.3.4", "e1", "p1", "ap1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeWhitelistCreate {
		t.Fatalf("expected whitelist_create")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}

func TestService_LogBatchAndSync(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogBatch(context.Background(), "u1", "admin", "1.2.3.4", "ev1", `{"created":3}`); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogSync(context.Background(), EventTypeExtlogSync, "u1", "admin", "1.2.3.4", `{"synced":5}`); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events")
	}
	if evs[0].Type != EventTypeBatchAuthorize || evs[1].Type != EventTypeExtlogSync {
		t.Fatalf("unexpected types: %v %v", evs[0].Type, evs[1].Type)
	}
}
