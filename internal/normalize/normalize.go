// Package normalize maps arbitrary structured log records onto the
// canonical event schema. Field mapping is declarative: each target
// attribute has an ordered chain of (candidate key, extractor) rules
// evaluated in fixed priority order, so normalization is deterministic
// regardless of map iteration order and idempotent for any input.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/logward/logward/pkg/types"
)

// rule binds one candidate record key to an extractor producing the target
// attribute value. An extractor returning ("", false) passes to the next
// rule in the chain.
type rule struct {
	key     string
	extract func(value interface{}) (string, bool)
}

// asText is the default extractor: stringify the value, reject empties.
func asText(value interface{}) (string, bool) {
	s := stringify(value)
	if s == "" {
		return "", false
	}
	return s, true
}

// asUpperText uppercases the stringified value.
func asUpperText(value interface{}) (string, bool) {
	s, ok := asText(value)
	if !ok {
		return "", false
	}
	return strings.ToUpper(s), true
}

// asIdentity extracts a principal from a structured identity value:
// principalId, then userName, then arn; anything non-structured is
// stringified as-is.
func asIdentity(value interface{}) (string, bool) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return asText(value)
	}
	for _, k := range []string{"principalId", "userName", "arn"} {
		if v, ok := m[k]; ok {
			if s := stringify(v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Attribute chains, in the fixed precedence order the schema defines.
// AWS-style keys lead where the original sources overlap.
var (
	timestampChain = []rule{
		{"eventTime", asText},
		{"timestamp", asText},
		{"@timestamp", asText},
		{"time", asText},
	}

	serviceChain = []rule{
		{"operationName", asText},
		{"eventName", asText},
		{"service", asText},
		{"logName", asText},
	}

	userChain = []rule{
		{"userIdentity", asIdentity},
		{"caller", asText},
		{"user", asText},
	}

	ipChain = []rule{
		{"sourceIPAddress", asText},
		{"ip", asText},
		{"clientIP", asText},
	}

	levelChain = []rule{
		{"level", asUpperText},
		{"severity", asUpperText},
		{"logLevel", asUpperText},
	}

	messageChain = []rule{
		{"message", asText},
		{"msg", asText},
		{"text", asText},
		{"errorMessage", asText},
	}
)

// applyChain evaluates a chain against the record, first matching rule wins.
func applyChain(chain []rule, record types.Record) (string, bool) {
	for _, r := range chain {
		if value, ok := record[r.key]; ok {
			if s, ok := r.extract(value); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Normalize maps a structured record onto the canonical event schema.
// The returned event always has a non-empty Timestamp (ingestTime when no
// timestamp-like key is present) and a non-empty Message (the serialized
// record when no message-like key is present).
func Normalize(record types.Record, ingestTime time.Time) types.NormalizedEvent {
	event := types.NormalizedEvent{
		Level: types.LevelInfo,
	}

	if raw, err := json.Marshal(record); err == nil {
		event.RawJSON = string(raw)
	}

	if ts, ok := applyChain(timestampChain, record); ok {
		event.Timestamp = ts
	} else {
		event.Timestamp = FormatTime(ingestTime)
	}

	event.Service, _ = applyChain(serviceChain, record)
	event.User, _ = applyChain(userChain, record)
	event.IP, _ = applyChain(ipChain, record)

	if level, ok := applyChain(levelChain, record); ok {
		event.Level = level
	}

	if msg, ok := applyChain(messageChain, record); ok {
		event.Message = msg
	} else {
		// Whole-record fallback keeps the message invariant: downstream
		// indexing and search depend on it.
		event.Message = event.RawJSON
		if event.Message == "" {
			event.Message = fmt.Sprint(record)
		}
	}

	return event
}

// NormalizeScalar produces an event for non-record inputs: the stringified
// input becomes the message and every other attribute takes its default.
func NormalizeScalar(value interface{}, ingestTime time.Time) types.NormalizedEvent {
	return types.NormalizedEvent{
		Timestamp: FormatTime(ingestTime),
		Level:     types.LevelInfo,
		Message:   stringify(value),
	}
}

// FormatTime renders the canonical ISO-8601 timestamp form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// stringify renders a record value as text. Strings pass through; numbers
// avoid exponent notation where possible; structured values serialize to
// JSON.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case map[string]interface{}, []interface{}:
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
