package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// marshalEventJSON marshals a record's payload and field results to JSON.
// Nil field results produce nil (SQL NULL) rather than the JSON string
// "null".
func marshalEventJSON(event *v1.ValidatedEvent) (payloadJSON, resultsJSON []byte, err error) {
	payloadJSON, err = json.Marshal(event.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if len(event.FieldResults) > 0 {
		resultsJSON, err = json.Marshal(event.FieldResults)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal field results: %w", err)
		}
	}

	return payloadJSON, resultsJSON, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into a ValidatedEvent.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.ValidatedEvent, error) {
	var evt v1.ValidatedEvent
	var payloadJSON, resultsJSON []byte

	err := row.Scan(
		&evt.ID,
		&evt.AppID,
		&evt.EventType,
		&payloadJSON,
		&resultsJSON,
		&evt.Status,
		&evt.Fingerprint,
		&evt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	if err := json.Unmarshal(payloadJSON, &evt.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &evt.FieldResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field results: %w", err)
		}
	}

	return &evt, nil
}
