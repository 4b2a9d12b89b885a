package validate

import (
	"encoding/json"
	"strings"

	"github.com/logward/logward/pkg/types"
)

// structuralFields lists provider-specific field names for tier-1 detection
// on JSON input. A provider wins with at least two field hits on a sample
// record, checked in this order.
var structuralFields = []struct {
	provider types.CloudType
	fields   []string
}{
	{types.CloudAWS, []string{"eventName", "eventSource", "awsRegion", "userIdentity", "requestParameters", "responseElements"}},
	{types.CloudAzure, []string{"operationName", "resourceId", "subscriptionId", "tenantId", "resourceGroupName", "correlation"}},
	{types.CloudGCP, []string{"protoPayload", "resource", "severity", "logName", "insertId", "jsonPayload"}},
}

// keywordTerms lists provider-specific keywords for tier-2 detection by
// case-insensitive substring counting over the leading content.
var keywordTerms = map[types.CloudType][]string{
	types.CloudAWS:   {"cloudtrail", "cloudwatch", "amazonaws.com", "s3.", "ec2", "lambda", "arn:aws:", "eventname", "requestid"},
	types.CloudAzure: {"azure", "microsoft", "windows.net", "subscriptionid", "resourceid", "operationname", "azurewebsites"},
	types.CloudGCP:   {"googleapis", "google", "gcp", "cloud.google", "protopayload", "insertid", "bigquery", "compute."},
}

// detection thresholds; unweighted counts are a tunable heuristic, not a
// contract.
const (
	structuralThreshold = 2
	keywordThreshold    = 2
	keywordScanBytes    = 5 * 1024
)

// DetectProvider guesses the originating cloud provider for a file.
// Tier 1 inspects JSON structure for provider-specific field names; tier 2
// counts provider keywords in the first 5KB of content. The boolean is false
// when no hint could be derived at all.
func DetectProvider(fileType string, data []byte) (types.CloudType, bool) {
	if len(data) == 0 {
		return types.CloudUnknown, false
	}

	if fileType == "json" {
		if provider, ok := detectStructural(data); ok {
			return provider, true
		}
	}

	return detectByKeywords(data)
}

// detectStructural parses the document and checks a sample record for
// provider field names.
func detectStructural(data []byte) (types.CloudType, bool) {
	var sample map[string]interface{}

	var arr []map[string]interface{}
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		sample = arr[0]
	} else {
		var obj map[string]interface{}
		if err := json.Unmarshal(data, &obj); err == nil {
			sample = obj
		}
	}
	if sample == nil {
		return types.CloudUnknown, false
	}

	for _, entry := range structuralFields {
		hits := 0
		for _, field := range entry.fields {
			if _, ok := sample[field]; ok {
				hits++
			}
		}
		if hits >= structuralThreshold {
			return entry.provider, true
		}
	}

	return types.CloudUnknown, false
}

// detectByKeywords counts provider keywords in the leading content and
// returns the provider with the highest count if it meets the threshold,
// else "other".
func detectByKeywords(data []byte) (types.CloudType, bool) {
	if len(data) > keywordScanBytes {
		data = data[:keywordScanBytes]
	}
	content := strings.ToLower(string(data))

	best := types.CloudOther
	bestScore := 0
	for _, provider := range []types.CloudType{types.CloudAWS, types.CloudAzure, types.CloudGCP} {
		score := 0
		for _, term := range keywordTerms[provider] {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > bestScore {
			best = provider
			bestScore = score
		}
	}

	if bestScore >= keywordThreshold {
		return best, true
	}
	return types.CloudOther, true
}
