// Package filter reduces the event stream before storage: noise lines are
// dropped by pattern match and oversized streams are down-sampled.
package filter

import (
	"math/rand"
	"strings"
	"time"

	"github.com/logward/logward/pkg/types"
)

// Drop removes events whose message contains any of the patterns,
// case-insensitively. An empty pattern list keeps everything.
func Drop(events []types.NormalizedEvent, patterns []string) []types.NormalizedEvent {
	if len(patterns) == 0 {
		return events
	}

	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}

	kept := events[:0]
	for _, event := range events {
		message := strings.ToLower(event.Message)
		noisy := false
		for _, p := range lowered {
			if p != "" && strings.Contains(message, p) {
				noisy = true
				break
			}
		}
		if !noisy {
			kept = append(kept, event)
		}
	}
	return kept
}

// Sampler down-samples event streams above a threshold. A zero seed picks a
// clock seed, so runs are not reproducible unless a seed is configured.
type Sampler struct {
	threshold int
	rng       *rand.Rand
}

// NewSampler returns a sampler that caps streams at threshold events.
func NewSampler(threshold int, seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		threshold: threshold,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Sample returns the input unchanged when it fits within the threshold,
// otherwise a uniform random sample of exactly threshold events. Sampling
// does not preserve input order.
func (s *Sampler) Sample(events []types.NormalizedEvent) []types.NormalizedEvent {
	if s.threshold <= 0 || len(events) <= s.threshold {
		return events
	}

	picked := make([]types.NormalizedEvent, len(events))
	copy(picked, events)
	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:s.threshold]
}
