package filter

import (
	"testing"

	"github.com/logward/logward/pkg/types"
)

func makeEvents(messages ...string) []types.NormalizedEvent {
	events := make([]types.NormalizedEvent, len(messages))
	for i, m := range messages {
		events[i] = types.NormalizedEvent{
			Timestamp: "2024-01-15T10:00:00Z",
			Level:     types.LevelInfo,
			Message:   m,
		}
	}
	return events
}

func TestDropNoisePatterns(t *testing.T) {
	events := makeEvents(
		"GET /Health Check returned 200",
		"user login succeeded",
		"heartbeat from node-3",
		"payment processed",
		"PING 10.0.0.1 ok",
	)
	patterns := []string{"health check", "heartbeat", "ping", "keep-alive"}

	kept := Drop(events, patterns)
	if len(kept) != 2 {
		t.Fatalf("expected 2 events kept, got %d", len(kept))
	}
	if kept[0].Message != "user login succeeded" || kept[1].Message != "payment processed" {
		t.Errorf("wrong events kept: %+v", kept)
	}
}

func TestDropNoPatterns(t *testing.T) {
	events := makeEvents("a message", "another message")
	if kept := Drop(events, nil); len(kept) != 2 {
		t.Fatalf("expected all events kept, got %d", len(kept))
	}
}

func TestDropIgnoresEmptyPattern(t *testing.T) {
	events := makeEvents("anything at all")
	if kept := Drop(events, []string{""}); len(kept) != 1 {
		t.Fatalf("empty pattern must not match, got %d kept", len(kept))
	}
}

func TestSampleBelowThreshold(t *testing.T) {
	events := makeEvents("a", "b", "c")
	s := NewSampler(5, 1)

	out := s.Sample(events)
	if len(out) != 3 {
		t.Fatalf("expected untouched stream, got %d events", len(out))
	}
	for i := range events {
		if out[i] != events[i] {
			t.Errorf("order changed below threshold at %d", i)
		}
	}
}

func TestSampleAtThreshold(t *testing.T) {
	events := makeEvents("a", "b", "c")
	s := NewSampler(3, 1)
	if out := s.Sample(events); len(out) != 3 {
		t.Fatalf("stream at exactly the threshold must not shrink, got %d", len(out))
	}
}

func TestSampleAboveThreshold(t *testing.T) {
	messages := make([]string, 100)
	for i := range messages {
		messages[i] = string(rune('a' + i%26))
	}
	events := makeEvents(messages...)

	s := NewSampler(10, 42)
	out := s.Sample(events)
	if len(out) != 10 {
		t.Fatalf("expected exactly 10 events, got %d", len(out))
	}

	// Every sampled event must come from the input.
	seen := make(map[string]int, len(events))
	for _, e := range events {
		seen[e.Message]++
	}
	for _, e := range out {
		if seen[e.Message] == 0 {
			t.Errorf("sampled event not in input: %q", e.Message)
		}
		seen[e.Message]--
	}
}

func TestSampleSeededReproducible(t *testing.T) {
	events := makeEvents("a", "b", "c", "d", "e", "f", "g", "h")

	first := NewSampler(4, 7).Sample(events)
	second := NewSampler(4, 7).Sample(events)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded sampling not reproducible at %d: %q vs %q",
				i, first[i].Message, second[i].Message)
		}
	}
}
