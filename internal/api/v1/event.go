package v1

import (
	"fmt"
	"time"
)

// Status is the overall validation outcome of one stored event.
type Status string

const (
	// StatusValid means every declared rule was satisfied (or no rules exist
	// for the event type - the pipeline is permissive by default).
	StatusValid Status = "valid"

	// StatusInvalid means at least one field was Invalid or Missing.
	StatusInvalid Status = "invalid"

	// StatusError means the event could not be evaluated at all
	// (malformed nested structure, rule lookup failure). Always recovered
	// locally; never aborts ingestion.
	StatusError Status = "error"
)

// FieldStatus is the outcome of validating one payload field against one rule.
type FieldStatus string

const (
	FieldValid   FieldStatus = "Valid"
	FieldInvalid FieldStatus = "Invalid"
	FieldMissing FieldStatus = "Missing"
)

// IncomingEvent is the wire shape of one telemetry event as clients send it.
// It separates the business payload (the only part that matters for
// validation and deduplication) from transport metadata, which is accepted
// but semantically inert.
type IncomingEvent struct {
	// EventName is the declared event type (e.g. "card_click"). Acts as the
	// key for the rule lookup. Normalized to lowercase on ingest.
	EventName string `json:"eventName"`

	// Payload is the domain-specific business payload. Arbitrary nested
	// JSON; validated field-by-field against the app's rules and hashed for
	// deduplication.
	Payload map[string]interface{} `json:"payload"`

	// --- Transport metadata (excluded from the fingerprint) ---

	// Identity is the client-reported origin identity. May be empty.
	Identity string `json:"identity,omitempty"`

	// EventTime is the client-side timestamp, usually epoch millis as a string.
	EventTime string `json:"eventTime,omitempty"`

	// SessionID is the client session token.
	SessionID string `json:"sessionId,omitempty"`

	// Retry is the client-side retry counter for this event.
	Retry int `json:"retry,omitempty"`

	// NetworkMode is the client network state ("WIFI", "Unknown", ...).
	NetworkMode string `json:"networkMode,omitempty"`
}

// Validate ensures the event carries the attributes the pipeline cannot
// proceed without. An empty payload is legitimate.
func (e *IncomingEvent) Validate() error {
	if e.EventName == "" {
		return fmt.Errorf("eventName is required")
	}
	return nil
}

// FieldResult is one per-rule validation outcome, kept on the stored record
// for diagnostics.
type FieldResult struct {
	Field        string      `json:"field"`
	Value        interface{} `json:"value,omitempty"`
	ExpectedType string      `json:"expected_type"`
	ObservedType string      `json:"observed_type"`
	Status       FieldStatus `json:"status"`
}

// ValidatedEvent is the persisted record produced by the ingest pipeline.
// Exclusively owned by the event store: created on ingest, superseded
// (deleted) by the deduplication pass when a newer record with the same
// fingerprint arrives, never updated in place.
type ValidatedEvent struct {
	// ID is assigned by the pipeline (UUID). The dedup pass identifies the
	// record to keep by this ID, never by recency heuristics.
	ID string `json:"id"`

	AppID     string                 `json:"app_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`

	// FieldResults is the ordered per-rule result list. Empty for event
	// types with no declared rules.
	FieldResults []FieldResult `json:"field_results"`

	Status Status `json:"status"`

	// Fingerprint is the SHA-256 content hash over (event type, payload).
	// At most one live record exists per (app, event type, fingerprint).
	Fingerprint string `json:"fingerprint"`

	CreatedAt time.Time `json:"created_at"`
}

// IngestResult is the structured response of one ingest call.
type IngestResult struct {
	Status       Status        `json:"status"`
	FieldResults []FieldResult `json:"field_results"`
	StoredID     string        `json:"stored_id"`
}

// EventPage is one page of validated history, newest first.
type EventPage struct {
	Records  []*ValidatedEvent `json:"records"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
