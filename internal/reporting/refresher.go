package reporting

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically recomputes coverage for a fixed set of apps and,
// when configured, sweeps records past the retention horizon. It is
// stateless: each tick reads fresh from the stores, so a missed tick
// costs nothing but staleness.
type Refresher struct {
	service       *Service
	interval      time.Duration
	apps          []string
	retentionDays int
}

// NewRefresher creates the periodic refresh loop. interval must be
// positive; apps may be empty (the loop then only logs its heartbeat).
func NewRefresher(service *Service, interval time.Duration, apps []string, retentionDays int) *Refresher {
	return &Refresher{
		service:       service,
		interval:      interval,
		apps:          apps,
		retentionDays: retentionDays,
	}
}

// Start runs the refresh loop until the context is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("[Refresher] Starting coverage refresh loop",
		"interval", r.interval,
		"apps", len(r.apps),
		"retention_days", r.retentionDays,
	)

	// Initial pass so dashboards have fresh numbers right after startup.
	r.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			slog.Info("[Refresher] Stopping (context cancelled)")
			return nil
		}
	}
}

func (r *Refresher) sweep(ctx context.Context) {
	for _, appID := range r.apps {
		snapshot, err := r.service.Coverage(ctx, appID)
		if err != nil {
			slog.Warn("[Refresher] Coverage refresh failed", "app_id", appID, "error", err)
			continue
		}
		slog.Info("[Refresher] Coverage refreshed",
			"app_id", appID,
			"captured", snapshot.Captured,
			"missing", snapshot.Missing,
			"total", snapshot.Total,
			"captured_percent", snapshot.CapturedPercent,
		)

		if r.retentionDays > 0 {
			cutoff := r.service.now().AddDate(0, 0, -r.retentionDays)
			deleted, err := r.service.store.DeleteOlderThan(ctx, appID, cutoff)
			if err != nil {
				slog.Warn("[Refresher] Retention sweep failed", "app_id", appID, "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("[Refresher] Retention sweep removed records",
					"app_id", appID, "removed", deleted, "cutoff", cutoff)
			}
		}
	}
}
