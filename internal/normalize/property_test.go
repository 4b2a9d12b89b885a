package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/logward/logward/pkg/types"
)

// asInterface erases a generator's result type to interface{} so MapOf
// produces a map[string]interface{}. Gen.Map cannot do this: gopter treats
// any mapper returning interface{} as returning *gopter.GenResult and
// panics on the type assertion.
func asInterface(g gopter.Gen) gopter.Gen {
	interfaceType := reflect.TypeOf((*interface{})(nil)).Elem()
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		result := g(genParams)
		return &gopter.GenResult{
			Shrinker:   gopter.NoShrinker,
			Result:     result.Result,
			Labels:     result.Labels,
			ResultType: interfaceType,
		}
	}
}

// genRecord produces arbitrary flat records mixing known and unknown keys.
func genRecord() gopter.Gen {
	return gen.MapOf(
		gen.OneConstOf("eventTime", "timestamp", "level", "severity", "message",
			"msg", "service", "user", "ip", "payload", "zzz_unknown"),
		gen.OneGenOf(
			asInterface(gen.AlphaString()),
			asInterface(gen.Float64Range(-1e6, 1e6)),
			asInterface(gen.Bool()),
		),
	).Map(func(m map[string]interface{}) types.Record { return types.Record(m) })
}

// TestProperty_MessageAndTimestampAlwaysPopulated validates the core
// normalization invariant: every produced event has a non-empty message and
// a non-empty timestamp, for any input record shape.
func TestProperty_MessageAndTimestampAlwaysPopulated(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ingest := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("message and timestamp are never empty", prop.ForAll(
		func(record types.Record) bool {
			event := Normalize(record, ingest)
			return event.Message != "" && event.Timestamp != ""
		},
		genRecord(),
	))

	properties.TestingRun(t)
}

// TestProperty_NormalizationIdempotent validates that re-running
// normalization on the same record yields a field-for-field identical event.
func TestProperty_NormalizationIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ingest := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("same record always yields the same event", prop.ForAll(
		func(record types.Record) bool {
			return Normalize(record, ingest) == Normalize(record, ingest)
		},
		genRecord(),
	))

	properties.TestingRun(t)
}
