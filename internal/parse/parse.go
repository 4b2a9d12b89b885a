// Package parse turns raw file bytes into normalized events, one parser per
// supported file type. Malformed content is always recovered locally: a bad
// JSON line becomes a plain-text event, a bad CSV row is skipped, and no
// parser propagates a fatal error for content problems.
package parse

import (
	"time"

	"github.com/logward/logward/pkg/types"
)

// Parse dispatches to the parser for the detected file type and returns the
// normalized event stream. Unknown types fall back to the plain-text parser,
// which accepts anything line-shaped.
func Parse(fileType string, data []byte, filename string, ingestTime time.Time) []types.NormalizedEvent {
	switch fileType {
	case "json":
		return ParseJSON(data, filename, ingestTime)
	case "csv":
		return ParseCSV(data, ingestTime)
	default: // log, txt
		return ParsePlain(data, filename, ingestTime)
	}
}
