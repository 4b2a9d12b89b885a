package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vectorizer defaults. Terms must appear in at least MinDocFreq documents
// and at most MaxDocRatio of them; the vocabulary is capped at MaxFeatures
// terms by corpus frequency.
const (
	DefaultMaxFeatures = 5000
	DefaultMinDocFreq  = 2
	DefaultMaxDocRatio = 0.8
)

// Term is one weighted vocabulary entry of a sparse document vector.
type Term struct {
	Index int
	Value float64
}

// Vectorizer maps documents to L2-normalized TF-IDF vectors over a fixed
// vocabulary of unigrams and bigrams.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	DocCount    int            `json:"doc_count"`
	MaxFeatures int            `json:"max_features"`
	MinDocFreq  int            `json:"min_doc_freq"`
	MaxDocRatio float64        `json:"max_doc_ratio"`
}

// tokenize lowercases text and splits it into alphanumeric tokens of at
// least two characters, dropping stop words.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() >= 2 {
			token := current.String()
			if _, stop := englishStopWords[token]; !stop {
				tokens = append(tokens, token)
			}
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// ngrams returns the unigrams plus adjacent bigrams of a token stream.
func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	grams := make([]string, 0, 2*len(tokens)-1)
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

// Options tunes vocabulary pruning. Zero values fall back to the defaults.
type Options struct {
	MaxFeatures int
	MinDocFreq  int
	MaxDocRatio float64
}

func (o Options) withDefaults() Options {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = DefaultMaxFeatures
	}
	if o.MinDocFreq <= 0 {
		o.MinDocFreq = DefaultMinDocFreq
	}
	if o.MaxDocRatio <= 0 {
		o.MaxDocRatio = DefaultMaxDocRatio
	}
	return o
}

// Fit builds the vocabulary and IDF weights from a document set. It returns
// false when pruning leaves an empty vocabulary.
func Fit(docs []string, opts Options) (*Vectorizer, bool) {
	opts = opts.withDefaults()
	n := len(docs)
	if n == 0 {
		return nil, false
	}

	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)
	for _, doc := range docs {
		grams := ngrams(tokenize(doc))
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			totalFreq[g]++
			seen[g] = struct{}{}
		}
		for g := range seen {
			docFreq[g]++
		}
	}

	maxDocCount := int(opts.MaxDocRatio * float64(n))
	if maxDocCount < 1 {
		maxDocCount = 1
	}

	var kept []string
	for term, df := range docFreq {
		if df >= opts.MinDocFreq && df <= maxDocCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, false
	}

	// Cap the vocabulary by corpus frequency, most frequent first.
	if len(kept) > opts.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if totalFreq[kept[i]] != totalFreq[kept[j]] {
				return totalFreq[kept[i]] > totalFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:opts.MaxFeatures]
	}

	// Stable term indices: alphabetical over the surviving vocabulary.
	sort.Strings(kept)

	v := &Vectorizer{
		Vocabulary:  make(map[string]int, len(kept)),
		IDF:         make([]float64, len(kept)),
		DocCount:    n,
		MaxFeatures: opts.MaxFeatures,
		MinDocFreq:  opts.MinDocFreq,
		MaxDocRatio: opts.MaxDocRatio,
	}
	for i, term := range kept {
		v.Vocabulary[term] = i
		// Smoothed inverse document frequency.
		v.IDF[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}
	return v, true
}

// Transform maps one document onto the fitted vocabulary as an
// L2-normalized sparse vector. The second return is false when no token of
// the document is in the vocabulary.
func (v *Vectorizer) Transform(doc string) ([]Term, bool) {
	counts := make(map[int]int)
	for _, g := range ngrams(tokenize(doc)) {
		if idx, ok := v.Vocabulary[g]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil, false
	}

	terms := make([]Term, 0, len(counts))
	var norm float64
	for idx, count := range counts {
		w := float64(count) * v.IDF[idx]
		terms = append(terms, Term{Index: idx, Value: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range terms {
		terms[i].Value /= norm
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].Index < terms[j].Index })
	return terms, true
}

// Terms returns the vocabulary sorted alphabetically.
func (v *Vectorizer) Terms() []string {
	terms := make([]string, 0, len(v.Vocabulary))
	for term := range v.Vocabulary {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
