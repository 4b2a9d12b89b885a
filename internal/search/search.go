// Package search answers relevance queries against the built index. The
// index artifacts are loaded lazily and cached until invalidated by a
// rebuild.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"

	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/internal/index"
)

// DefaultMinScore is the relevance floor below which matches are discarded.
const DefaultMinScore = 0.01

// Filters narrows search results after ranking. Zero values match
// everything; timestamp bounds are inclusive lexicographic comparisons on
// the ISO-8601 event time.
type Filters struct {
	Level   string
	Service string
	From    string
	To      string
}

// Result is one ranked match.
type Result struct {
	Score     float64 `json:"score"`
	File      string  `json:"file"`
	Line      int     `json:"line"`
	Timestamp string  `json:"ts_event"`
	Level     string  `json:"level"`
	Service   string  `json:"service,omitempty"`
	User      string  `json:"user,omitempty"`
	IP        string  `json:"ip,omitempty"`
	Message   string  `json:"message"`
}

// Engine runs cosine-similarity queries over the index artifacts.
type Engine struct {
	dir      string
	minScore float64

	mu       sync.RWMutex
	artifact *index.Artifact
}

// NewEngine returns an engine reading artifacts from dir. A minScore of 0
// uses the default.
func NewEngine(dir string, minScore float64) *Engine {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Engine{dir: dir, minScore: minScore}
}

// Invalidate drops the cached artifacts; the next query reloads them.
// Called after every index rebuild.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.artifact = nil
	e.mu.Unlock()
}

// load returns the cached artifact, reading it from disk on first use.
func (e *Engine) load() (*index.Artifact, error) {
	e.mu.RLock()
	artifact := e.artifact
	e.mu.RUnlock()
	if artifact != nil {
		return artifact, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.artifact != nil {
		return e.artifact, nil
	}

	artifact, err := index.Load(e.dir)
	if err != nil {
		return nil, err
	}
	e.artifact = artifact
	return artifact, nil
}

// Search ranks every indexed document against the query and returns at most
// topN results above the relevance floor, filtered after ranking.
func (e *Engine) Search(query string, topN int, filters Filters) ([]Result, error) {
	if topN <= 0 {
		topN = 10
	}

	artifact, err := e.load()
	if err != nil {
		return nil, err
	}

	queryVec, ok := artifact.Vectorizer.Transform(query)
	if !ok {
		return nil, lwerrors.NewIndexError(lwerrors.CodeTransformFailed, "query transformation failed")
	}

	type scored struct {
		row   int
		score float64
	}
	var candidates []scored
	for row, docVec := range artifact.Matrix.Rows {
		score := dot(queryVec, docVec)
		if score >= e.minScore {
			candidates = append(candidates, scored{row: row, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].row < candidates[j].row
	})

	// Rank first, filter second: fetch extra candidates so filters do not
	// starve the result set.
	if len(candidates) > 2*topN {
		candidates = candidates[:2*topN]
	}

	results := make([]Result, 0, topN)
	for _, c := range candidates {
		doc := artifact.Docs[c.row]
		if !matches(doc, filters) {
			continue
		}
		results = append(results, Result{
			Score:     math.Round(c.score*10000) / 10000,
			File:      doc.File,
			Line:      doc.Line,
			Timestamp: doc.Timestamp,
			Level:     doc.Level,
			Service:   doc.Service,
			User:      doc.User,
			IP:        doc.IP,
			Message:   doc.Message,
		})
		if len(results) == topN {
			break
		}
	}
	return results, nil
}

// Suggest returns up to limit vocabulary terms with the given prefix, in
// alphabetical order. Matching is case-insensitive; an empty prefix
// matches everything, yielding the leading terms of the vocabulary.
func (e *Engine) Suggest(prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	artifact, err := e.load()
	if err != nil {
		return nil, err
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))

	var suggestions []string
	for _, term := range artifact.Vectorizer.Terms() {
		if strings.HasPrefix(term, prefix) {
			suggestions = append(suggestions, term)
			if len(suggestions) == limit {
				break
			}
		}
	}
	return suggestions, nil
}

// dot multiplies two index-sorted sparse vectors.
func dot(a, b []index.Term) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Index == b[j].Index:
			sum += a[i].Value * b[j].Value
			i++
			j++
		case a[i].Index < b[j].Index:
			i++
		default:
			j++
		}
	}
	return sum
}

// matches applies the post-ranking filters to one document.
func matches(doc index.DocMeta, f Filters) bool {
	if f.Level != "" && doc.Level != f.Level {
		return false
	}
	if f.Service != "" && doc.Service != f.Service {
		return false
	}
	if f.From != "" && doc.Timestamp < f.From {
		return false
	}
	if f.To != "" && doc.Timestamp > f.To {
		return false
	}
	return true
}
