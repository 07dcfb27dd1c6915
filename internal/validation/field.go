package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	"github.com/beacon-lab/project-beacon/internal/rules"
)

// Observed type names reported in field results. These classify the value
// a client actually sent, independent of what the rule declared.
const (
	typeNull    = "null"
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeFloat   = "float"
	typeText    = "text"
	typeDate    = "date"
	typeArray   = "array"
	typeObject  = "object"
	typeMissing = "not present"
	typeUnknown = "unknown"
)

// Date formats accepted for the "date" declared type, tried in order.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CheckField validates one observed value (or its absence) against one rule.
// Pure and total: unparseable input reports as Invalid, never panics.
//
// present=false means the field was absent from the payload. A missing
// required field is Missing; a missing optional field passes untouched.
func CheckField(rule rules.Rule, value interface{}, present bool) v1.FieldResult {
	result := v1.FieldResult{
		Field:        rule.Field,
		ExpectedType: string(rule.Type),
	}

	if !present {
		result.ObservedType = typeMissing
		if rule.Required {
			result.Status = v1.FieldMissing
		} else {
			result.Status = v1.FieldValid
		}
		return result
	}

	result.Value = value
	result.ObservedType = ObservedType(value)

	// Explicit null and empty string carry no evaluable value. For a
	// required field that is as good as absent.
	if value == nil || value == "" {
		if rule.Required {
			result.Status = v1.FieldMissing
		} else {
			result.Status = v1.FieldValid
		}
		return result
	}

	if checkType(rule.Type, value) {
		result.Status = v1.FieldValid
	} else {
		result.Status = v1.FieldInvalid
	}
	return result
}

// ObservedType classifies a decoded JSON value for diagnostics.
// JSON numbers arrive as float64; whole values classify as integer.
func ObservedType(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return typeNull
	case bool:
		return typeBoolean
	case float64:
		if isWhole(v) {
			return typeInteger
		}
		return typeFloat
	case int, int64:
		return typeInteger
	case string:
		if isDateString(v) {
			return typeDate
		}
		return typeText
	case []interface{}:
		return typeArray
	case map[string]interface{}:
		return typeObject
	default:
		return typeUnknown
	}
}

func checkType(declared rules.DataType, value interface{}) bool {
	switch declared {
	case rules.TypeText:
		_, ok := value.(string)
		return ok
	case rules.TypeInteger:
		return isIntegerValue(value)
	case rules.TypeFloat:
		return isNumericValue(value)
	case rules.TypeBoolean:
		return isBooleanValue(value)
	case rules.TypeDate:
		return isDateValue(value)
	default:
		return false
	}
}

// isWhole reports whether f has no fractional part and is finite.
func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// isIntegerValue accepts whole-number values. Strings never qualify,
// even numeric ones; booleans never qualify.
func isIntegerValue(value interface{}) bool {
	switch v := value.(type) {
	case float64:
		return isWhole(v)
	case int, int64:
		return true
	default:
		return false
	}
}

// isNumericValue accepts any numeric value (integer or fractional).
func isNumericValue(value interface{}) bool {
	switch value.(type) {
	case float64, int, int64:
		return true
	default:
		return false
	}
}

// isBooleanValue accepts boolean literals plus the case-insensitive string
// forms "true"/"false", which some client SDKs emit.
func isBooleanValue(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return true
	case string:
		lower := strings.ToLower(v)
		return lower == "true" || lower == "false"
	default:
		return false
	}
}

// isDateValue accepts ISO dates, ISO datetimes, and 10/13-digit Unix epochs
// (seconds/millis), as integers or strings.
func isDateValue(value interface{}) bool {
	switch v := value.(type) {
	case string:
		if isDateString(v) {
			return true
		}
		return isEpochString(v)
	case float64:
		if !isWhole(v) {
			return false
		}
		return isEpochDigits(strconv.FormatInt(int64(v), 10))
	case int:
		return isEpochDigits(strconv.Itoa(v))
	case int64:
		return isEpochDigits(strconv.FormatInt(v, 10))
	default:
		return false
	}
}

func isDateString(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isEpochString(s string) bool {
	if !isEpochDigits(s) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isEpochDigits reports whether s looks like a 10-digit (seconds) or
// 13-digit (millis) Unix timestamp.
func isEpochDigits(s string) bool {
	if len(s) != 10 && len(s) != 13 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
