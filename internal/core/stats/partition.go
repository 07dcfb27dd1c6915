package stats

import (
	"sort"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// StatusCounts is the three-way health partition of unique event types
// within a time window. Counts are per event type, not per raw record,
// so retry volume never conflates with event-type health.
type StatusCounts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`

	PassedTypes  []string `json:"passed_types"`
	FailedTypes  []string `json:"failed_types"`
	ErroredTypes []string `json:"errored_types"`
}

// PartitionByEventType groups the window's records by event type name and
// classifies each type into exactly one bucket:
//
//   - errored: any record of the type has overall status error
//   - failed: otherwise, any record is invalid or carries a single
//     non-Valid field result
//   - passed: every record is valid and every field result in every
//     record is Valid
//
// Errored takes precedence over failed, failed over passed. The sets are
// disjoint by construction.
func PartitionByEventType(records []*v1.ValidatedEvent) StatusCounts {
	const (
		passed = iota
		failed
		errored
	)

	classes := make(map[string]int)
	for _, rec := range records {
		class, seen := classes[rec.EventType]
		if !seen {
			class = passed
		}

		switch {
		case rec.Status == v1.StatusError:
			class = errored
		case class != errored && !recordClean(rec):
			class = failed
		}
		classes[rec.EventType] = class
	}

	var counts StatusCounts
	for name, class := range classes {
		switch class {
		case errored:
			counts.ErroredTypes = append(counts.ErroredTypes, name)
		case failed:
			counts.FailedTypes = append(counts.FailedTypes, name)
		default:
			counts.PassedTypes = append(counts.PassedTypes, name)
		}
	}
	sort.Strings(counts.PassedTypes)
	sort.Strings(counts.FailedTypes)
	sort.Strings(counts.ErroredTypes)

	counts.Passed = len(counts.PassedTypes)
	counts.Failed = len(counts.FailedTypes)
	counts.Errored = len(counts.ErroredTypes)
	return counts
}

// recordClean reports whether one record counts toward "passed": overall
// valid and every per-field result Valid. A single Invalid or Missing
// field anywhere demotes the whole event type for the window.
func recordClean(rec *v1.ValidatedEvent) bool {
	if rec.Status != v1.StatusValid {
		return false
	}
	for _, fr := range rec.FieldResults {
		if fr.Status != v1.FieldValid {
			return false
		}
	}
	return true
}
