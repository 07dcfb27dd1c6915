package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	"github.com/beacon-lab/project-beacon/internal/core/stats"
	"github.com/beacon-lab/project-beacon/internal/core/storage"
	"github.com/beacon-lab/project-beacon/internal/rules"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidQuery marks caller mistakes (bad page numbers, window sizes).
var ErrInvalidQuery = errors.New("invalid query")

// Service is the read-only aggregation side of the pipeline: coverage,
// windowed status counts, and history pagination.
type Service struct {
	rules              rules.Repository
	store              storage.EventStore
	defaultWindowHours int
	maxPageSize        int

	// now is injectable for tests.
	now func() time.Time
}

// NewService creates the reporting service.
func NewService(ruleRepo rules.Repository, store storage.EventStore, defaultWindowHours, maxPageSize int) *Service {
	if ruleRepo == nil {
		panic("reporting: rule repository must not be nil")
	}
	if store == nil {
		panic("reporting: store must not be nil")
	}
	if defaultWindowHours <= 0 {
		defaultWindowHours = 24
	}
	if maxPageSize <= 0 {
		maxPageSize = 200
	}
	return &Service{
		rules:              ruleRepo,
		store:              store,
		defaultWindowHours: defaultWindowHours,
		maxPageSize:        maxPageSize,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Coverage computes the app's declared-vs-observed event type coverage.
// Both set reads are independent, so they run concurrently.
func (s *Service) Coverage(ctx context.Context, appID string) (stats.CoverageSnapshot, error) {
	var declared, observed []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		declared, err = s.rules.EventTypes(gctx, appID)
		if err != nil {
			return fmt.Errorf("rule event types: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		observed, err = s.store.DistinctEventTypes(gctx, appID)
		if err != nil {
			return fmt.Errorf("observed event types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stats.CoverageSnapshot{}, err
	}

	snapshot := stats.Coverage(declared, observed)
	if !snapshot.Consistent() {
		// Cannot happen with the intersection-based formula; a warning
		// here means the set arithmetic regressed.
		slog.Warn("Coverage invariant violated",
			"app_id", appID,
			"captured", snapshot.Captured,
			"missing", snapshot.Missing,
			"total", snapshot.Total)
	}
	return snapshot, nil
}

// StatusCounts partitions the window's unique event types into
// passed/failed/errored. windowHours <= 0 uses the configured default.
func (s *Service) StatusCounts(ctx context.Context, appID string, windowHours int) (stats.StatusCounts, error) {
	if windowHours < 0 {
		return stats.StatusCounts{}, fmt.Errorf("%w: window_hours must not be negative", ErrInvalidQuery)
	}
	if windowHours == 0 {
		windowHours = s.defaultWindowHours
	}

	since := s.now().Add(-time.Duration(windowHours) * time.Hour)
	records, err := s.store.ListEventsSince(ctx, appID, since)
	if err != nil {
		return stats.StatusCounts{}, fmt.Errorf("list window events: %w", err)
	}
	return stats.PartitionByEventType(records), nil
}

// Dashboard bundles the two dashboard queries into one response,
// fetched concurrently.
type Dashboard struct {
	Coverage stats.CoverageSnapshot `json:"coverage"`
	Stats    stats.StatusCounts     `json:"stats"`
}

// DashboardSummary runs Coverage and StatusCounts concurrently.
func (s *Service) DashboardSummary(ctx context.Context, appID string, windowHours int) (*Dashboard, error) {
	var dash Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cov, err := s.Coverage(gctx, appID)
		if err != nil {
			return err
		}
		dash.Coverage = cov
		return nil
	})
	g.Go(func() error {
		counts, err := s.StatusCounts(gctx, appID, windowHours)
		if err != nil {
			return err
		}
		dash.Stats = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}

// Page returns one page of validated history, newest first.
func (s *Service) Page(ctx context.Context, appID string, page, pageSize int) (*v1.EventPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page_size must be >= 1", ErrInvalidQuery)
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	records, total, err := s.store.PageEvents(ctx, appID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("page events: %w", err)
	}
	return &v1.EventPage{
		Records:  records,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// EventTypes returns the distinct observed event type names for the
// filter UI.
func (s *Service) EventTypes(ctx context.Context, appID string) ([]string, error) {
	names, err := s.store.DistinctEventTypes(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("distinct event types: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
