// Package insights derives numeric analytics from stored events: error
// rates, hourly spike detection, top talkers and compliance coverage.
package insights

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/logward/logward/pkg/types"
)

const (
	// spikeMinEvents is the floor below which spike detection is skipped;
	// hourly statistics on tiny samples are meaningless.
	spikeMinEvents = 50

	// spikeMADFactor scales the median absolute deviation when setting the
	// spike threshold.
	spikeMADFactor = 3.0

	topTalkerLimit   = 10
	errorKeywordLimit = 15
	keywordMinLength  = 4

	complianceMinEvents       = 100
	complianceTimestampRatio  = 0.9
	complianceUserRatio       = 0.5
)

// Spike is one hour whose event count exceeded the robust threshold.
type Spike struct {
	Hour      string  `json:"hour"`
	Count     int     `json:"count"`
	Threshold float64 `json:"threshold"`
}

// Talker is a ranked name/count pair.
type Talker struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ComplianceCheck is one pass/fail coverage check.
type ComplianceCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ProviderTally summarizes the ingested files of one cloud provider.
type ProviderTally struct {
	Files     int   `json:"files"`
	SizeBytes int64 `json:"size_bytes"`
}

// Report is the full analytics output over a set of events and files.
type Report struct {
	TotalEvents   int                      `json:"total_events"`
	ErrorEvents   int                      `json:"error_events"`
	ErrorRate     float64                  `json:"error_rate"`
	Spikes        []Spike                  `json:"spikes"`
	TopServices   []Talker                 `json:"top_services"`
	TopUsers      []Talker                 `json:"top_users"`
	TopIPs        []Talker                 `json:"top_ips"`
	ErrorKeywords []Talker                 `json:"error_keywords"`
	Compliance    []ComplianceCheck        `json:"compliance"`
	ByProvider    map[string]ProviderTally `json:"by_provider"`
}

// Analyze computes the full report.
func Analyze(events []types.NormalizedEvent, files []types.FileRecord) *Report {
	report := &Report{
		TotalEvents: len(events),
		ByProvider:  providerTallies(files),
	}

	for _, e := range events {
		if types.IsErrorLevel(e.Level) {
			report.ErrorEvents++
		}
	}
	if report.TotalEvents > 0 {
		report.ErrorRate = round4(float64(report.ErrorEvents) / float64(report.TotalEvents))
	}

	report.Spikes = DetectSpikes(events)
	report.TopServices = topBy(events, func(e types.NormalizedEvent) string { return e.Service })
	report.TopUsers = topBy(events, func(e types.NormalizedEvent) string { return e.User })
	report.TopIPs = topBy(events, func(e types.NormalizedEvent) string { return e.IP })
	report.ErrorKeywords = ErrorKeywords(events)
	report.Compliance = ComplianceChecks(events)
	return report
}

// DetectSpikes buckets events by hour and flags hours whose count exceeds
// median + 3*MAD. Fewer than 50 events yields no spikes.
func DetectSpikes(events []types.NormalizedEvent) []Spike {
	if len(events) <= spikeMinEvents {
		return nil
	}

	hourly := make(map[string]int)
	for _, e := range events {
		t, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			continue
		}
		hourly[t.UTC().Format("2006-01-02T15:00")]++
	}
	if len(hourly) < 2 {
		return nil
	}

	counts := make([]float64, 0, len(hourly))
	for _, c := range hourly {
		counts = append(counts, float64(c))
	}
	med := median(counts)

	deviations := make([]float64, len(counts))
	for i, c := range counts {
		deviations[i] = math.Abs(c - med)
	}
	mad := median(deviations)

	threshold := med + spikeMADFactor*mad
	if mad == 0 {
		// Flat histograms have MAD 0; treat any hour above the median as
		// a spike only when it clearly stands out.
		threshold = med * 2
	}

	var spikes []Spike
	for hour, count := range hourly {
		if float64(count) > threshold {
			spikes = append(spikes, Spike{Hour: hour, Count: count, Threshold: round4(threshold)})
		}
	}
	sort.Slice(spikes, func(i, j int) bool { return spikes[i].Hour < spikes[j].Hour })
	return spikes
}

// ErrorKeywords counts words longer than 4 characters in error-class
// messages and returns the top 15.
func ErrorKeywords(events []types.NormalizedEvent) []Talker {
	counts := make(map[string]int)
	for _, e := range events {
		if !types.IsErrorLevel(e.Level) {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(e.Message)) {
			word = strings.Trim(word, ".,;:!?'\"()[]{}")
			if len(word) > keywordMinLength {
				counts[word]++
			}
		}
	}
	return rank(counts, errorKeywordLimit)
}

// ComplianceChecks runs the three coverage checks.
func ComplianceChecks(events []types.NormalizedEvent) []ComplianceCheck {
	n := len(events)
	withTimestamp, withUser := 0, 0
	for _, e := range events {
		if e.Timestamp != "" {
			withTimestamp++
		}
		if e.User != "" {
			withUser++
		}
	}

	checks := []ComplianceCheck{
		{
			Name:   "logging_coverage",
			Passed: n > complianceMinEvents,
			Detail: "requires more than 100 stored events",
		},
	}
	if n > 0 {
		checks = append(checks,
			ComplianceCheck{
				Name:   "timestamp_coverage",
				Passed: float64(withTimestamp)/float64(n) > complianceTimestampRatio,
				Detail: "requires event timestamps on more than 90% of events",
			},
			ComplianceCheck{
				Name:   "user_attribution",
				Passed: float64(withUser)/float64(n) > complianceUserRatio,
				Detail: "requires an acting user on more than 50% of events",
			},
		)
	}
	return checks
}

func providerTallies(files []types.FileRecord) map[string]ProviderTally {
	tallies := make(map[string]ProviderTally)
	for _, f := range files {
		if f.CloudType == types.CloudUnknown {
			continue
		}
		t := tallies[string(f.CloudType)]
		t.Files++
		t.SizeBytes += f.Size
		tallies[string(f.CloudType)] = t
	}
	return tallies
}

func topBy(events []types.NormalizedEvent, key func(types.NormalizedEvent) string) []Talker {
	counts := make(map[string]int)
	for _, e := range events {
		if k := key(e); k != "" {
			counts[k]++
		}
	}
	return rank(counts, topTalkerLimit)
}

// rank orders count pairs by count descending, name ascending on ties.
func rank(counts map[string]int, limit int) []Talker {
	talkers := make([]Talker, 0, len(counts))
	for name, count := range counts {
		talkers = append(talkers, Talker{Name: name, Count: count})
	}
	sort.Slice(talkers, func(i, j int) bool {
		if talkers[i].Count != talkers[j].Count {
			return talkers[i].Count > talkers[j].Count
		}
		return talkers[i].Name < talkers[j].Name
	})
	if len(talkers) > limit {
		talkers = talkers[:limit]
	}
	return talkers
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
