// Package stats holds the pure aggregation arithmetic of the pipeline:
// coverage set math and per-event-type status partitioning. No storage,
// no hidden state - every function maps explicit inputs to a new value,
// which keeps the invariants trivially testable.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CoverageSnapshot is the derived coverage of declared event types.
// Never persisted; recomputed on demand.
type CoverageSnapshot struct {
	// Captured is |R ∩ L|: declared event types with at least one
	// observed event.
	Captured int `json:"captured"`

	// Missing is |R − L|: declared event types with zero observed events.
	Missing int `json:"missing"`

	// Total is |R|, the size of the declared rule set.
	Total int `json:"total"`

	// CapturedPercent is Captured/Total as a percentage, rounded to two
	// decimal places. Zero when no event types are declared.
	CapturedPercent decimal.Decimal `json:"captured_percent"`

	// MissingEventTypes lists R − L, sorted.
	MissingEventTypes []string `json:"missing_event_types"`
}

// Consistent reports the construction invariant captured + missing == total.
// It cannot fail for snapshots built by Coverage; a false return is a
// programming bug worth a diagnostic warning, not a user-facing error.
func (s CoverageSnapshot) Consistent() bool {
	return s.Captured+s.Missing == s.Total
}

// Coverage computes the snapshot from the declared rule event types (R)
// and the observed log event types (L).
//
// Captured is defined as the intersection |R ∩ L|, not |L|: observed event
// types outside the declared rule set (ad hoc client events with no
// authored rule) must never inflate the captured count. The intersection
// form is what preserves captured + missing == total for arbitrary L.
func Coverage(ruleTypes, observedTypes []string) CoverageSnapshot {
	observed := make(map[string]struct{}, len(observedTypes))
	for _, name := range observedTypes {
		observed[name] = struct{}{}
	}

	declared := make(map[string]struct{}, len(ruleTypes))
	captured := 0
	missing := make([]string, 0)
	for _, name := range ruleTypes {
		if _, dup := declared[name]; dup {
			continue
		}
		declared[name] = struct{}{}
		if _, ok := observed[name]; ok {
			captured++
		} else {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	total := len(declared)
	percent := decimal.Zero
	if total > 0 {
		percent = decimal.NewFromInt(int64(captured)).
			Div(decimal.NewFromInt(int64(total))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return CoverageSnapshot{
		Captured:          captured,
		Missing:           len(missing),
		Total:             total,
		CapturedPercent:   percent,
		MissingEventTypes: missing,
	}
}
