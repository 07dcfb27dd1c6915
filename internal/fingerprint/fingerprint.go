// Package fingerprint computes content hashes for event deduplication.
//
// The fingerprint covers exactly two logical fields: the event type name and
// the business payload, serialized in canonical key-sorted JSON. Transport
// metadata (identity, client timestamp, session token, retry count, network
// mode) is deliberately excluded: two requests describing the same business
// fact must collapse to one record even when they arrive from different
// sessions seconds apart. Only a change in the payload or the event type
// constitutes a genuinely new event.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"
)

// envelope pins the serialization order of the two hashed fields.
type envelope struct {
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
}

// Compute returns the hex-encoded SHA-256 fingerprint of (event type,
// business payload). Map keys are sorted by the JSON encoder at every
// nesting level, so semantically identical payloads always hash equal
// regardless of client key order.
func Compute(eventType string, payload map[string]interface{}) (string, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}

	canonical, err := json.Marshal(envelope{
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal payload: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
