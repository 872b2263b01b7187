package extlog

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LatestFetcher is the slice of Fetcher the synchronizer needs.
type LatestFetcher interface {
	FetchLatest(ctx context.Context, limit int) ([]Record, error)
}

// Synchronizer mirrors the external movement rows into the local store.
type Synchronizer struct {
	fetcher LatestFetcher
	store   Store
	limit   int
	log     *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewSynchronizer(fetcher LatestFetcher, store Store, limit int, log *slog.Logger) *Synchronizer {
	if limit <= 0 {
		limit = 10
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{fetcher: fetcher, store: store, limit: limit, log: log, clock: time.Now}
}

// SyncOnce runs one fetch-and-persist cycle with the configured limit.
func (s *Synchronizer) SyncOnce(ctx context.Context) (int, error) {
	return s.SyncN(ctx, s.limit)
}

// SyncN runs one cycle fetching at most limit rows. Rows without an external
// id are skipped and do not count toward the result; all surviving rows are
// upserted in one transaction.
func (s *Synchronizer) SyncN(ctx context.Context, limit int) (int, error) {
	records, err := s.fetcher.FetchLatest(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	now := s.clock().UTC()
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if rec.ExternalID == nil {
			s.log.Debug("skipping external row without identifier",
				"movement_type", rec.MovementType,
				"occurred_at", rec.OccurredAt,
			)
			continue
		}
		entries = append(entries, rec.toEntry(now))
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return s.store.UpsertBatch(ctx, entries)
}

// Run polls until ctx is cancelled. A failing cycle is logged and the loop
// continues; losing the loop would silently stop all future sync attempts.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := s.SyncOnce(ctx)
		var srcErr *SourceError
		switch {
		case err == nil:
			s.log.Debug("external log sync completed", "synced", n)
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, ErrConfig) || errors.As(err, &srcErr):
			s.log.Error("external log sync failed", "error", err)
		default:
			s.log.Error("unexpected error during external log sync", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
