package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// ErrNotFound is returned for lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// EventStore defines the access patterns the pipeline requires from the
// backing store. Append-mostly with engine-driven deletes; the store must
// provide at least read-committed isolation so a page read never observes
// a half-written record.
type EventStore interface {
	// SaveEvent appends one validated record. A failed append propagates to
	// the caller as a failed ingest: no record, no notification.
	SaveEvent(ctx context.Context, event *v1.ValidatedEvent) error

	// DeleteOlderDuplicates removes every record sharing (app, event type,
	// fingerprint) except keepID - the record the caller just wrote.
	// Keying the survivor by explicit identifier rather than recency is what
	// makes the cleanup safe under concurrent writers: re-running it
	// redundantly is harmless, so two interleaved duplicate writes still
	// converge to one live record. Do not collapse this into an upsert.
	DeleteOlderDuplicates(ctx context.Context, appID, eventType, fp, keepID string) (int64, error)

	// PageEvents returns one page of the app's history ordered by creation
	// time descending, plus the total record count. Offset pagination is
	// acceptable for moderate history depth; callers only consume the
	// records and the total, so a keyset scheme can be substituted without
	// changing the contract.
	PageEvents(ctx context.Context, appID string, page, pageSize int) ([]*v1.ValidatedEvent, int64, error)

	// DistinctEventTypes returns the distinct event type names observed for
	// an app. This is the L set of the coverage computation.
	DistinctEventTypes(ctx context.Context, appID string) ([]string, error)

	// ListEventsSince returns all records for the app created at or after
	// the given instant, newest first. Backs the windowed status counts.
	ListEventsSince(ctx context.Context, appID string, since time.Time) ([]*v1.ValidatedEvent, error)

	// DeleteOlderThan removes records created before the cutoff.
	// Retention housekeeping; returns the number deleted.
	DeleteOlderThan(ctx context.Context, appID string, cutoff time.Time) (int64, error)
}
