package parse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/logward/logward/internal/normalize"
	"github.com/logward/logward/pkg/types"
)

// ParseJSON parses JSON or line-delimited JSON logs. The fallback chain is
// fixed: whole-document parse first (array elements or a single object as
// records), then line-delimited parsing, and any line that still fails
// becomes a plain-text event rather than being dropped. Real logs routinely
// mix valid and malformed lines.
func ParseJSON(data []byte, filename string, ingestTime time.Time) []types.NormalizedEvent {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err == nil {
		return parseDocument(doc, ingestTime)
	}

	var events []types.NormalizedEvent
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var value interface{}
		if err := json.Unmarshal([]byte(line), &value); err == nil {
			events = append(events, normalizeValue(value, ingestTime))
			continue
		}

		// Malformed line: keep it as a plain-text event.
		events = append(events, types.NormalizedEvent{
			Timestamp: normalize.FormatTime(ingestTime),
			Level:     types.LevelInfo,
			Service:   filename,
			Message:   line,
		})
	}
	return events
}

// parseDocument maps a successfully parsed JSON document onto events: one
// per array element, or one for the whole document.
func parseDocument(doc interface{}, ingestTime time.Time) []types.NormalizedEvent {
	if arr, ok := doc.([]interface{}); ok {
		events := make([]types.NormalizedEvent, 0, len(arr))
		for _, item := range arr {
			events = append(events, normalizeValue(item, ingestTime))
		}
		return events
	}
	return []types.NormalizedEvent{normalizeValue(doc, ingestTime)}
}

// normalizeValue routes structured values through the normalizer and
// scalars through the scalar path.
func normalizeValue(value interface{}, ingestTime time.Time) types.NormalizedEvent {
	if record, ok := value.(map[string]interface{}); ok {
		return normalize.Normalize(types.Record(record), ingestTime)
	}
	return normalize.NormalizeScalar(value, ingestTime)
}
