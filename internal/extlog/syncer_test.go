package extlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type stubFetcher struct {
	batches [][]Record
	err     error
	calls   int
	limits  []int
}

func (f *stubFetcher) FetchLatest(ctx context.Context, limit int) ([]Record, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch, nil
}

func int64Ptr(v int64) *int64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncOnceUpsertsByExternalID(t *testing.T) {
	first := []Record{
		{ExternalID: int64Ptr(1), MovementType: "IN", CardID: " 100 ", OccurredAt: "2024-05-01T08:00:00Z"},
		{ExternalID: int64Ptr(2), MovementType: "OUT", OccurredAt: "2024-05-01T08:05:00Z"},
	}
	second := []Record{
		{ExternalID: int64Ptr(2), MovementType: "IN", OccurredAt: "2024-05-01T09:00:00Z"},
	}

	store := NewMemoryStore()
	sync := NewSynchronizer(&stubFetcher{batches: [][]Record{first, second}}, store, 10, discardLogger())
	times := []time.Time{
		time.Date(2024, 5, 1, 8, 10, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 9, 10, 0, 0, time.UTC),
	}
	sync.clock = func() time.Time {
		t := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return t
	}

	n, err := sync.SyncOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("first cycle: synced %d, err %v", n, err)
	}

	n, err = sync.SyncOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("second cycle: synced %d, err %v", n, err)
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("store holds %d rows, want one per external id", len(entries))
	}

	var row2 Entry
	for _, e := range entries {
		if e.ExternalID == 2 {
			row2 = e
		}
		if e.ExternalID == 1 && e.CardID != "100" {
			t.Fatalf("card id not trimmed: %q", e.CardID)
		}
	}
	if row2.MovementType != "IN" {
		t.Fatalf("repeated external id kept stale values: %+v", row2)
	}
	if !row2.SyncedAt.Equal(time.Date(2024, 5, 1, 9, 10, 0, 0, time.UTC)) {
		t.Fatalf("synced_at not refreshed on overwrite: %v", row2.SyncedAt)
	}
	if !row2.OccurredAt.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("occurred_at not updated: %v", row2.OccurredAt)
	}
}

func TestSyncOnceSkipsRowsWithoutID(t *testing.T) {
	batch := []Record{
		{ExternalID: int64Ptr(1), MovementType: "IN"},
		{MovementType: "ghost"},
		{ExternalID: int64Ptr(3), MovementType: "OUT"},
	}
	store := NewMemoryStore()
	sync := NewSynchronizer(&stubFetcher{batches: [][]Record{batch}}, store, 10, discardLogger())

	n, err := sync.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 {
		t.Fatalf("synced = %d, skipped rows must not be counted", n)
	}

	entries, _ := store.List(context.Background(), 0)
	if len(entries) != 2 {
		t.Fatalf("store holds %d rows, want 2", len(entries))
	}
}

func TestSyncOnceEmptyBatch(t *testing.T) {
	sync := NewSynchronizer(&stubFetcher{}, NewMemoryStore(), 10, discardLogger())
	n, err := sync.SyncOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("empty fetch: synced %d, err %v", n, err)
	}
}

func TestSyncNOverridesLimit(t *testing.T) {
	f := &stubFetcher{}
	sync := NewSynchronizer(f, NewMemoryStore(), 10, discardLogger())

	if _, err := sync.SyncN(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if _, err := sync.SyncOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.limits) != 2 || f.limits[0] != 5 || f.limits[1] != 10 {
		t.Fatalf("fetch limits = %v, want [5 10]", f.limits)
	}
}

func TestRunSurvivesFailingCycles(t *testing.T) {
	f := &stubFetcher{err: &SourceError{Op: "connect", Err: errors.New("down")}}
	sync := NewSynchronizer(f, NewMemoryStore(), 10, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sync.Run(ctx, time.Millisecond)
		close(done)
	}()

	// Let a few failing cycles pass, then stop.
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
	if len(f.limits) < 2 {
		t.Fatalf("loop died after %d cycles despite errors", len(f.limits))
	}
}
