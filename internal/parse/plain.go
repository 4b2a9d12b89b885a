package parse

import (
	"strings"
	"time"

	"github.com/satyrius/gonx"

	"github.com/logward/logward/internal/normalize"
	"github.com/logward/logward/pkg/types"
)

// levelTokens is the fixed search order for level detection in plain text;
// first match in the uppercased line wins.
var levelTokens = []string{
	types.LevelError,
	types.LevelFatal,
	types.LevelCritical,
	types.LevelWarn,
	types.LevelWarning,
	types.LevelDebug,
	types.LevelTrace,
}

// clfParser recognizes NCSA common-log-format lines so access logs yield a
// client address and request time instead of bare text.
var clfParser = gonx.NewParser(`$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent`)

const clfTimeLayout = "02/Jan/2006:15:04:05 -0700"

// ParsePlain parses plain text and .log files: each non-blank line of at
// least 3 characters becomes one event. Plain text carries no reliable
// timestamp field, so events default to the ingestion time unless the line
// is an access-log entry with a parseable request time.
func ParsePlain(data []byte, filename string, ingestTime time.Time) []types.NormalizedEvent {
	var events []types.NormalizedEvent

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}

		event := types.NormalizedEvent{
			Timestamp: normalize.FormatTime(ingestTime),
			Level:     DetectLevel(line),
			Service:   filename,
			Message:   line,
		}

		if ip, ts, ok := liftAccessLog(line); ok {
			event.IP = ip
			if ts != "" {
				event.Timestamp = ts
			}
		}

		events = append(events, event)
	}
	return events
}

// DetectLevel returns the first level token found in the uppercased line,
// defaulting to INFO.
func DetectLevel(line string) string {
	upper := strings.ToUpper(line)
	for _, token := range levelTokens {
		if strings.Contains(upper, token) {
			return token
		}
	}
	return types.LevelInfo
}

// liftAccessLog extracts the client address and request time from a
// common-log-format line. Any parse failure falls back to the plain record.
func liftAccessLog(line string) (ip, timestamp string, ok bool) {
	entry, err := clfParser.ParseString(line)
	if err != nil {
		return "", "", false
	}

	addr, err := entry.Field("remote_addr")
	if err != nil || addr == "" || addr == "-" {
		return "", "", false
	}

	if local, err := entry.Field("time_local"); err == nil {
		if t, err := time.Parse(clfTimeLayout, local); err == nil {
			timestamp = normalize.FormatTime(t)
		}
	}

	return addr, timestamp, true
}
