package parse

import (
	"bytes"
	"encoding/csv"
	"io"
	"time"

	"github.com/logward/logward/internal/normalize"
	"github.com/logward/logward/pkg/types"
)

// ParseCSV parses CSV logs: the first row defines field names and every
// subsequent row becomes one record fed through the same normalizer as JSON
// records. Rows that fail to parse are skipped; a file without a readable
// header yields no events.
func ParseCSV(data []byte, ingestTime time.Time) []types.NormalizedEvent {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil
	}

	var events []types.NormalizedEvent
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		record := make(types.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		if len(record) == 0 {
			continue
		}
		events = append(events, normalize.Normalize(record, ingestTime))
	}
	return events
}
