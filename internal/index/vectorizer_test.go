package index

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("Connection to DB-01 failed: timeout after 30s!")
	want := []string{"connection", "db", "01", "failed", "timeout", "30s"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("the server was crashing a lot")
	for _, tok := range tokens {
		if tok == "the" || tok == "was" || tok == "a" {
			t.Errorf("stop word survived: %q", tok)
		}
	}
	// "a" is both short and a stop word; "was"/"the" are stop words.
	if len(tokens) != 3 {
		t.Errorf("expected [server crashing lot], got %v", tokens)
	}
}

func TestNgramsIncludeBigrams(t *testing.T) {
	grams := ngrams([]string{"connection", "timeout", "database"})
	want := map[string]bool{
		"connection":         true,
		"timeout":            true,
		"database":           true,
		"connection timeout": true,
		"timeout database":   true,
	}
	if len(grams) != len(want) {
		t.Fatalf("got %v", grams)
	}
	for _, g := range grams {
		if !want[g] {
			t.Errorf("unexpected gram %q", g)
		}
	}
}

func TestFitPrunesRareAndUbiquitousTerms(t *testing.T) {
	// "request" appears in all 10 docs (df=10 > 0.8*10), "singleton" in one
	// (df=1 < 2). Both must be pruned; "timeout" (df=3) survives.
	docs := make([]string, 10)
	for i := range docs {
		docs[i] = "request handled"
	}
	docs[0] = "request timeout singleton"
	docs[1] = "request timeout"
	docs[2] = "request timeout"

	v, ok := Fit(docs, Options{})
	if !ok {
		t.Fatal("expected a vocabulary")
	}
	if _, found := v.Vocabulary["request"]; found {
		t.Error("ubiquitous term not pruned")
	}
	if _, found := v.Vocabulary["singleton"]; found {
		t.Error("rare term not pruned")
	}
	if _, found := v.Vocabulary["timeout"]; !found {
		t.Errorf("expected timeout in vocabulary: %v", v.Terms())
	}
	if _, found := v.Vocabulary["handled"]; !found {
		t.Error("expected handled in vocabulary")
	}
}

func TestFitEmptyVocabulary(t *testing.T) {
	if _, ok := Fit(nil, Options{}); ok {
		t.Error("no documents must not produce a vocabulary")
	}
	// Every term appears exactly once, all below min_df.
	if _, ok := Fit([]string{"alpha unique", "beta distinct"}, Options{}); ok {
		t.Error("all-rare corpus must not produce a vocabulary")
	}
}

func TestFitMaxFeaturesCap(t *testing.T) {
	docs := []string{
		"alpha alpha beta beta gamma delta",
		"alpha alpha beta beta gamma delta",
		"alpha beta",
		"gamma delta",
		"noise words filler",
	}
	v, ok := Fit(docs, Options{MaxFeatures: 2})
	if !ok {
		t.Fatal("expected a vocabulary")
	}
	if len(v.Vocabulary) != 2 {
		t.Fatalf("expected 2 features, got %d: %v", len(v.Vocabulary), v.Terms())
	}
	// alpha and beta are the most frequent terms.
	if _, found := v.Vocabulary["alpha"]; !found {
		t.Errorf("expected alpha kept: %v", v.Terms())
	}
	if _, found := v.Vocabulary["beta"]; !found {
		t.Errorf("expected beta kept: %v", v.Terms())
	}
}

func TestTransformNormalized(t *testing.T) {
	docs := []string{
		"connection timeout database",
		"connection timeout network",
		"database migration complete",
		"database migration started",
	}
	v, ok := Fit(docs, Options{})
	if !ok {
		t.Fatal("expected a vocabulary")
	}

	terms, ok := v.Transform("connection timeout")
	if !ok {
		t.Fatal("expected in-vocabulary transform")
	}

	var norm float64
	for _, term := range terms {
		norm += term.Value * term.Value
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Errorf("vector not L2-normalized: norm=%f", math.Sqrt(norm))
	}
}

func TestTransformOutOfVocabulary(t *testing.T) {
	docs := []string{"alpha beta", "alpha beta", "alpha gamma", "beta gamma"}
	v, ok := Fit(docs, Options{})
	if !ok {
		t.Fatal("expected a vocabulary")
	}

	if _, ok := v.Transform("completely unrelated words"); ok {
		t.Error("expected out-of-vocabulary failure")
	}
	// Stop words only is the same as out of vocabulary.
	if _, ok := v.Transform("the and of"); ok {
		t.Error("stop-word-only query must not transform")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	m := &Matrix{Rows: [][]Term{
		{{Index: 0, Value: 0.6}, {Index: 4, Value: 0.8}},
		nil,
		{{Index: 2, Value: 1.0}},
	}}

	decoded, err := DeserializeMatrix(m.Serialize())
	if err != nil {
		t.Fatalf("DeserializeMatrix failed: %v", err)
	}
	if len(decoded.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(decoded.Rows))
	}
	if len(decoded.Rows[1]) != 0 {
		t.Errorf("empty row not preserved")
	}
	if decoded.Rows[0][1].Index != 4 || decoded.Rows[0][1].Value != 0.8 {
		t.Errorf("row 0 mismatch: %+v", decoded.Rows[0])
	}
}

func TestDeserializeMatrixRejectsGarbage(t *testing.T) {
	if _, err := DeserializeMatrix([]byte("definitely not snappy")); err == nil {
		t.Error("expected decode failure")
	}
}
