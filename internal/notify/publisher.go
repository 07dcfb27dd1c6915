// Package notify delivers fire-and-forget notifications of newly stored
// events to interested observers (dashboards, push channels). Delivery
// failure must never affect an ingest call's result.
package notify

import (
	"context"
	"log/slog"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// Publisher is the seam to the real-time transport. Implementations must
// be safe for concurrent use.
type Publisher interface {
	Notify(ctx context.Context, appID string, record *v1.ValidatedEvent) error
}

// LogPublisher writes notifications to the structured log. The default
// when no push transport is wired.
type LogPublisher struct{}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Notify(ctx context.Context, appID string, record *v1.ValidatedEvent) error {
	slog.Info("[Notify] Event stored",
		"app_id", appID,
		"event_type", record.EventType,
		"event_id", record.ID,
		"status", record.Status)
	return nil
}
