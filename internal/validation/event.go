package validation

import (
	"context"
	"fmt"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	"github.com/beacon-lab/project-beacon/internal/rules"
)

// Result is the outcome of validating one event against its rule set.
type Result struct {
	Overall v1.Status
	Fields  []v1.FieldResult

	// Diagnostic carries the recovered failure message when Overall is
	// StatusError. Empty otherwise.
	Diagnostic string
}

// EventValidator orchestrates the field validator across all rules for an
// event type. Failures during lookup or payload traversal are converted to
// an error-status result; they never propagate and abort ingestion.
type EventValidator struct {
	rules rules.Repository
}

// NewEventValidator creates a validator backed by the given rule store.
func NewEventValidator(repo rules.Repository) *EventValidator {
	if repo == nil {
		panic("validation: rule repository must not be nil")
	}
	return &EventValidator{rules: repo}
}

// Validate checks the business payload of (app, event type) against the
// app's declared rules.
//
// An event type with no rules is valid with an empty result list: new
// client-side events routinely arrive before rules are authored, and the
// pipeline favors permissive ingestion over rejection.
func (v *EventValidator) Validate(ctx context.Context, appID, eventType string, payload map[string]interface{}) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Overall:    v1.StatusError,
				Diagnostic: fmt.Sprintf("validation panic: %v", r),
			}
		}
	}()

	ruleSet, err := v.rules.RulesFor(ctx, appID, rules.NormalizeEventType(eventType))
	if err != nil {
		return Result{
			Overall:    v1.StatusError,
			Diagnostic: fmt.Sprintf("rule lookup failed: %v", err),
		}
	}

	if len(ruleSet) == 0 {
		return Result{Overall: v1.StatusValid, Fields: []v1.FieldResult{}}
	}

	fields := make([]v1.FieldResult, 0, len(ruleSet))
	overall := v1.StatusValid
	for _, rule := range ruleSet {
		value, present := resolveField(payload, rule.Field)
		fr := CheckField(rule, value, present)
		if fr.Status != v1.FieldValid {
			overall = v1.StatusInvalid
		}
		fields = append(fields, fr)
	}

	return Result{Overall: overall, Fields: fields}
}

// resolveField locates a rule's field in the payload by normalized name.
// Falls back one level into a "payload" sub-object, since client envelopes
// commonly wrap the business fields: {..., "payload": {...}}.
func resolveField(payload map[string]interface{}, field string) (interface{}, bool) {
	want := rules.NormalizeField(field)

	for key, value := range payload {
		if rules.NormalizeField(key) == want {
			return value, true
		}
	}

	if sub, ok := payload["payload"].(map[string]interface{}); ok {
		for key, value := range sub {
			if rules.NormalizeField(key) == want {
				return value, true
			}
		}
	}

	return nil, false
}
