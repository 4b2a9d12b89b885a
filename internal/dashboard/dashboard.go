// Package dashboard aggregates stored events and file records into the
// KPI and chart payloads served by the dashboard endpoint.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/logward/logward/pkg/types"
)

const topSeriesLimit = 10

// KPIs are the headline numbers.
type KPIs struct {
	TotalEvents      int     `json:"total_events"`
	ErrorCount       int     `json:"error_count"`
	ErrorRate        float64 `json:"error_rate"`
	IngestedMB       float64 `json:"ingested_mb"`
	FilesProcessed   int     `json:"files_processed"`
	DistinctServices int     `json:"distinct_services"`
}

// Point is one bucket of a time or category series.
type Point struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Data is the full dashboard payload.
type Data struct {
	KPIs           KPIs    `json:"kpis"`
	ErrorsOverTime []Point `json:"errors_over_time"`
	EventsByLevel  []Point `json:"events_by_level"`
	TopServices    []Point `json:"top_services"`
	TopUsers       []Point `json:"top_users"`
	HourOfDay      []Point `json:"hour_of_day"`
}

// Build computes the dashboard from events and file records.
func Build(events []types.NormalizedEvent, files []types.FileRecord) *Data {
	data := &Data{
		KPIs: KPIs{TotalEvents: len(events)},
	}

	services := make(map[string]int)
	users := make(map[string]int)
	levels := make(map[string]int)
	errorHours := make(map[string]int)
	hourOfDay := make([]int, 24)

	for _, e := range events {
		levels[e.Level]++
		if e.Service != "" {
			services[e.Service]++
		}
		if e.User != "" {
			users[e.User]++
		}

		isError := types.IsErrorLevel(e.Level)
		if isError {
			data.KPIs.ErrorCount++
		}

		if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			t = t.UTC()
			hourOfDay[t.Hour()]++
			if isError {
				errorHours[t.Format("2006-01-02T15:00")]++
			}
		}
	}

	if data.KPIs.TotalEvents > 0 {
		data.KPIs.ErrorRate = math.Round(float64(data.KPIs.ErrorCount)/float64(data.KPIs.TotalEvents)*10000) / 10000
	}
	data.KPIs.DistinctServices = len(services)

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.Size
		if f.Status == types.StatusProcessed {
			data.KPIs.FilesProcessed++
		}
	}
	data.KPIs.IngestedMB = math.Round(float64(totalBytes)/(1024*1024)*100) / 100

	data.ErrorsOverTime = sortedByLabel(errorHours)
	data.EventsByLevel = sortedByCount(levels, len(levels))
	data.TopServices = sortedByCount(services, topSeriesLimit)
	data.TopUsers = sortedByCount(users, topSeriesLimit)

	data.HourOfDay = make([]Point, 24)
	for h, count := range hourOfDay {
		data.HourOfDay[h] = Point{Label: hourLabel(h), Count: count}
	}
	return data
}

func hourLabel(h int) string {
	return time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("15:00")
}

func sortedByLabel(counts map[string]int) []Point {
	points := toPoints(counts)
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
	return points
}

func sortedByCount(counts map[string]int, limit int) []Point {
	points := toPoints(counts)
	sort.Slice(points, func(i, j int) bool {
		if points[i].Count != points[j].Count {
			return points[i].Count > points[j].Count
		}
		return points[i].Label < points[j].Label
	})
	if len(points) > limit {
		points = points[:limit]
	}
	return points
}

func toPoints(counts map[string]int) []Point {
	points := make([]Point, 0, len(counts))
	for label, count := range counts {
		points = append(points, Point{Label: label, Count: count})
	}
	return points
}
