package rules

import (
	"context"
	"errors"
	"strings"
)

// DataType is the declared type of an expected payload field.
type DataType string

const (
	TypeText    DataType = "text"
	TypeInteger DataType = "integer"
	TypeFloat   DataType = "float"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
)

// ValidDataType reports whether t is a supported declared type.
func ValidDataType(t DataType) bool {
	switch t {
	case TypeText, TypeInteger, TypeFloat, TypeBoolean, TypeDate:
		return true
	}
	return false
}

// Rule is one expected-field declaration for (app, event type).
// (AppID, EventType, Field) is unique within a rule set. Rules are created
// in bulk on schema import and never mutated in place.
type Rule struct {
	AppID     string   `yaml:"-"`
	EventType string   `yaml:"event_type"`
	Field     string   `yaml:"field"`
	Type      DataType `yaml:"type"`
	Required  bool     `yaml:"required"`

	// Pattern is a free-form constraint hint carried for diagnostics.
	// Not evaluated by the field validator.
	Pattern string `yaml:"pattern,omitempty"`
}

// NormalizeEventType canonicalizes an event type name for lookups.
// Clients are inconsistent about casing; rule authors are too.
func NormalizeEventType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeField canonicalizes a field name: lowercase, spaces collapsed
// to underscores. Matches how imported rule sheets name fields.
func NormalizeField(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// ErrNotFound is returned when an app has no rule set at all.
var ErrNotFound = errors.New("rule set not found")

// Repository is the read-heavy rule store the pipeline consults.
// Writes happen through Replace only (bulk import path); the pipeline
// itself never mutates rules, so reads need no locking discipline beyond
// the implementation's own.
type Repository interface {
	// RulesFor returns all rules for (app, event type), already normalized.
	// An unknown event type yields an empty slice and no error - unknown
	// events are accepted, not rejected.
	RulesFor(ctx context.Context, appID, eventType string) ([]Rule, error)

	// EventTypes returns the distinct event type names declared for an app.
	// This is the R set of the coverage computation.
	EventTypes(ctx context.Context, appID string) ([]string, error)

	// Replace atomically swaps the app's entire rule set. The storage half
	// of a schema re-import: prior rules for the app are deleted first.
	Replace(ctx context.Context, appID string, rules []Rule) error
}
