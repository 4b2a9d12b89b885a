package parse

import (
	"testing"
	"time"

	"github.com/logward/logward/pkg/types"
)

var ingestTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestParseJSONArray(t *testing.T) {
	data := []byte(`[
		{"eventTime": "2024-01-15T10:00:00Z", "eventName": "PutObject", "message": "object stored"},
		{"eventTime": "2024-01-15T10:01:00Z", "eventName": "GetObject", "message": "object fetched"}
	]`)

	events := ParseJSON(data, "trail.json", ingestTime)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Timestamp != "2024-01-15T10:00:00Z" {
		t.Errorf("unexpected timestamp: %q", events[0].Timestamp)
	}
	if events[1].Service != "GetObject" {
		t.Errorf("unexpected service: %q", events[1].Service)
	}
}

func TestParseJSONSingleObject(t *testing.T) {
	events := ParseJSON([]byte(`{"message": "one record", "level": "warn"}`), "a.json", ingestTime)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != types.LevelWarn {
		t.Errorf("unexpected level: %q", events[0].Level)
	}
}

func TestParseJSONLinesWithMalformedLine(t *testing.T) {
	data := []byte(`{"message": "first"}
this line is not json
{"message": "third"}`)

	events := ParseJSON(data, "mixed.json", ingestTime)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	bad := events[1]
	if bad.Message != "this line is not json" {
		t.Errorf("malformed line not preserved: %q", bad.Message)
	}
	if bad.Service != "mixed.json" {
		t.Errorf("expected filename as service, got %q", bad.Service)
	}
	if bad.Level != types.LevelInfo {
		t.Errorf("expected INFO for plain line, got %q", bad.Level)
	}
	if bad.Timestamp != "2026-03-14T09:26:53Z" {
		t.Errorf("expected ingestion time, got %q", bad.Timestamp)
	}
}

func TestParseJSONScalarLines(t *testing.T) {
	events := ParseJSON([]byte("\"just a string\"\n42\n"), "s.json", ingestTime)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "just a string" {
		t.Errorf("unexpected message: %q", events[0].Message)
	}
	if events[1].Message != "42" {
		t.Errorf("unexpected message: %q", events[1].Message)
	}
}

func TestParseCSVHeaderMapping(t *testing.T) {
	data := []byte(`timestamp,level,service,message
2024-01-15T10:00:00Z,error,auth,login failed
2024-01-15T10:05:00Z,info,api,request handled`)

	events := ParseCSV(data, ingestTime)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Level != types.LevelError {
		t.Errorf("unexpected level: %q", events[0].Level)
	}
	if events[0].Service != "auth" {
		t.Errorf("unexpected service: %q", events[0].Service)
	}
	if events[0].Message != "login failed" {
		t.Errorf("unexpected message: %q", events[0].Message)
	}
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	data := []byte("level,message\ninfo,ok\n\"unterminated quote, broken row\ninfo,also ok\n")

	events := ParseCSV(data, ingestTime)
	if len(events) == 0 {
		t.Fatal("expected surviving rows")
	}
	for _, e := range events {
		if e.Message == "" {
			t.Errorf("event with empty message: %+v", e)
		}
	}
}

func TestParseCSVRowsShorterThanHeader(t *testing.T) {
	data := []byte("level,message,service\nerror,disk full\n")

	events := ParseCSV(data, ingestTime)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Service != "" {
		t.Errorf("expected empty service for short row, got %q", events[0].Service)
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	if events := ParseCSV(nil, ingestTime); events != nil {
		t.Fatalf("expected nil for empty input, got %d events", len(events))
	}
}

func TestParsePlainLevelDetection(t *testing.T) {
	data := []byte(`ERROR: connection refused
a warning was issued here
all systems nominal
ab`)

	events := ParsePlain(data, "app.log", ingestTime)
	if len(events) != 3 {
		t.Fatalf("expected 3 events (short line skipped), got %d", len(events))
	}
	if events[0].Level != types.LevelError {
		t.Errorf("expected ERROR, got %q", events[0].Level)
	}
	if events[1].Level != types.LevelWarn {
		t.Errorf("expected WARN, got %q", events[1].Level)
	}
	if events[2].Level != types.LevelInfo {
		t.Errorf("expected INFO, got %q", events[2].Level)
	}
	for _, e := range events {
		if e.Service != "app.log" {
			t.Errorf("expected filename as service, got %q", e.Service)
		}
	}
}

func TestDetectLevelOrder(t *testing.T) {
	// ERROR outranks WARN when both tokens appear.
	if got := DetectLevel("warn: escalated to error"); got != types.LevelError {
		t.Errorf("expected ERROR, got %q", got)
	}
	if got := DetectLevel("fatal crash"); got != types.LevelFatal {
		t.Errorf("expected FATAL, got %q", got)
	}
}

func TestParsePlainAccessLogLift(t *testing.T) {
	line := `192.168.1.10 - frank [10/Oct/2023:13:55:36 -0700] "GET /api/health HTTP/1.1" 200 2326`

	events := ParsePlain([]byte(line), "access.log", ingestTime)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.IP != "192.168.1.10" {
		t.Errorf("expected remote address lifted, got %q", e.IP)
	}
	if e.Timestamp != "2023-10-10T20:55:36Z" {
		t.Errorf("expected request time lifted, got %q", e.Timestamp)
	}
	if e.Message != line {
		t.Errorf("message should keep the raw line, got %q", e.Message)
	}
}

func TestParsePlainNonAccessLogKeepsIngestTime(t *testing.T) {
	events := ParsePlain([]byte("plain diagnostic output"), "run.txt", ingestTime)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].IP != "" {
		t.Errorf("expected no address, got %q", events[0].IP)
	}
	if events[0].Timestamp != "2026-03-14T09:26:53Z" {
		t.Errorf("expected ingestion time, got %q", events[0].Timestamp)
	}
}

func TestParseDispatch(t *testing.T) {
	if events := Parse("json", []byte(`{"message":"m"}`), "f.json", ingestTime); len(events) != 1 {
		t.Errorf("json dispatch: got %d events", len(events))
	}
	if events := Parse("csv", []byte("message\nhello\n"), "f.csv", ingestTime); len(events) != 1 {
		t.Errorf("csv dispatch: got %d events", len(events))
	}
	if events := Parse("log", []byte("a plain line\n"), "f.log", ingestTime); len(events) != 1 {
		t.Errorf("log dispatch: got %d events", len(events))
	}
}
