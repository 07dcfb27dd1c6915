package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	"github.com/beacon-lab/project-beacon/internal/core/storage"
	"github.com/beacon-lab/project-beacon/internal/fingerprint"
	"github.com/beacon-lab/project-beacon/internal/notify"
	"github.com/beacon-lab/project-beacon/internal/rules"
	"github.com/beacon-lab/project-beacon/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const notifyTimeout = 2 * time.Second

// Service runs the ingest-validate-deduplicate pipeline.
type Service struct {
	validator        *validation.EventValidator
	store            storage.EventStore
	publisher        notify.Publisher
	maxBodySizeBytes int
	storageTimeout   time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewService creates the ingest pipeline service.
func NewService(val *validation.EventValidator, store storage.EventStore, pub notify.Publisher, maxBodySizeMB int, storageTimeout time.Duration) *Service {
	if val == nil {
		panic("ingestion: validator must not be nil")
	}
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if pub == nil {
		pub = notify.NewLogPublisher()
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	if storageTimeout <= 0 {
		storageTimeout = 5 * time.Second
	}
	return &Service{
		validator:        val,
		store:            store,
		publisher:        pub,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		storageTimeout:   storageTimeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/apps/:app_id/events", s.IngestHandler)
}

// Ingest validates, fingerprints, persists, and deduplicates one event.
//
// The only failure that propagates is the storage append: no record, no
// notification, and the caller should treat it as retriable. Duplicate
// cleanup and publishing are best-effort.
func (s *Service) Ingest(ctx context.Context, appID string, evt *v1.IncomingEvent) (*v1.IngestResult, error) {
	eventType := rules.NormalizeEventType(evt.EventName)
	payload := evt.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	result := s.validator.Validate(ctx, appID, eventType, payload)
	if result.Overall == v1.StatusError {
		slog.Warn("Event validation errored",
			"app_id", appID, "event_type", eventType, "diagnostic", result.Diagnostic)
	}

	fp, err := fingerprint.Compute(eventType, payload)
	if err != nil {
		// Unserializable payloads cannot be deduplicated or stored.
		return nil, fmt.Errorf("ingest: %w", err)
	}

	record := &v1.ValidatedEvent{
		ID:           uuid.NewString(),
		AppID:        appID,
		EventType:    eventType,
		Payload:      payload,
		FieldResults: result.Fields,
		Status:       result.Overall,
		Fingerprint:  fp,
		CreatedAt:    s.now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.store.SaveEvent(writeCtx, record); err != nil {
		return nil, fmt.Errorf("ingest: save event: %w", err)
	}

	// Write first, then delete the older duplicates by explicit identifier.
	// Comparing timestamps before the write completes is unsafe under
	// concurrent writers: two near-simultaneous duplicates could both decide
	// "I am newest" and neither would delete the other. A failed cleanup is
	// self-healing - the next ingest of the same fingerprint retries it.
	deleted, err := s.store.DeleteOlderDuplicates(writeCtx, appID, eventType, fp, record.ID)
	if err != nil {
		slog.Warn("Duplicate cleanup failed, will retry on next matching ingest",
			"app_id", appID, "event_type", eventType, "fingerprint", fp, "error", err)
	} else if deleted > 0 {
		slog.Info("Deduplication removed superseded records",
			"app_id", appID, "event_type", eventType, "removed", deleted)
	}

	s.notifyAsync(appID, record)

	return &v1.IngestResult{
		Status:       result.Overall,
		FieldResults: result.Fields,
		StoredID:     record.ID,
	}, nil
}

// notifyAsync publishes the stored record without tying the outcome to the
// ingest call. Runs on its own context so a cancelled request doesn't
// suppress the notification.
func (s *Service) notifyAsync(appID string, record *v1.ValidatedEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.publisher.Notify(ctx, appID, record); err != nil {
			slog.Warn("Publish notification failed",
				"app_id", appID, "event_id", record.ID, "error", err)
		}
	}()
}
