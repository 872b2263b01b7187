package extlog

import "context"

// Store persists the local mirror of external movement rows.
type Store interface {
	// UpsertBatch inserts or overwrites the given entries keyed by
	// ExternalID inside one transaction and returns the number written.
	UpsertBatch(ctx context.Context, entries []Entry) (int, error)

	// List returns stored entries, most recent movement first. limit <= 0
	// returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)
}
