package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// MemoryEventStore is an in-memory implementation of EventStore.
// Useful for testing and development.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []*v1.ValidatedEvent
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) SaveEvent(ctx context.Context, event *v1.ValidatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *event
	s.events = append(s.events, &copy)
	return nil
}

func (s *MemoryEventStore) DeleteOlderDuplicates(ctx context.Context, appID, eventType, fp, keepID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.AppID == appID && e.EventType == eventType && e.Fingerprint == fp && e.ID != keepID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

func (s *MemoryEventStore) PageEvents(ctx context.Context, appID string, page, pageSize int) ([]*v1.ValidatedEvent, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.forApp(appID)
	total := int64(len(matched))

	offset := (page - 1) * pageSize
	if offset >= len(matched) {
		return []*v1.ValidatedEvent{}, total, nil
	}
	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemoryEventStore) DistinctEventTypes(ctx context.Context, appID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.events {
		if e.AppID == appID {
			seen[e.EventType] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryEventStore) ListEventsSince(ctx context.Context, appID string, since time.Time) ([]*v1.ValidatedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.ValidatedEvent
	for _, e := range s.forApp(appID) {
		if !e.CreatedAt.Before(since) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *MemoryEventStore) DeleteOlderThan(ctx context.Context, appID string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.AppID == appID && e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

// forApp returns copies of the app's records, newest first with ID as the
// tiebreak - the same order the SQL adapter produces.
func (s *MemoryEventStore) forApp(appID string) []*v1.ValidatedEvent {
	var matched []*v1.ValidatedEvent
	for _, e := range s.events {
		if e.AppID == appID {
			copy := *e
			matched = append(matched, &copy)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
