package icount

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/tombee/icount-connector/internal/operation/transport"
)

// The iCount API wraps JSON responses in a {status, data, message, error}
// envelope, but not consistently: some endpoints put the payload at the top
// level, some under data, and collection endpoints vary between arrays and
// key-to-object maps. This file is the single place that knows those rules.

// decodeEnvelope parses a response body and enforces the status field.
// Returns the decoded top-level object, or an APIError when status is false.
func decodeEnvelope(resp *transport.Response) (map[string]interface{}, error) {
	var body map[string]interface{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return nil, fmt.Errorf("failed to decode iCount response: %w", err)
		}
	}
	if body == nil {
		body = map[string]interface{}{}
	}

	if status, ok := body["status"].(bool); ok && !status {
		return nil, &APIError{
			Message:    failureMessage(body, resp.Body),
			StatusCode: resp.StatusCode,
		}
	}

	return body, nil
}

// failureMessage resolves the error text of a failed envelope:
// message, else error, else the JSON-stringified body.
func failureMessage(body map[string]interface{}, raw []byte) string {
	if msg, ok := body["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := body["error"].(string); ok && msg != "" {
		return msg
	}
	return string(raw)
}

// unwrapData returns the payload of an envelope: the data field when it is an
// object, falling back to the envelope itself.
func unwrapData(body map[string]interface{}) map[string]interface{} {
	if data, ok := body["data"].(map[string]interface{}); ok {
		return data
	}
	return body
}

// envelopeMetaKeys are bookkeeping fields the API mixes into the same object
// as collection entries on some endpoints.
var envelopeMetaKeys = map[string]bool{
	"status": true,
	"api":    true,
	"error":  true,
	"reqid":  true,
}

// resolveCollection locates the result collection of a list/search response.
//
// Candidate keys are tried in fixed precedence order: data.documents,
// documents, data, then the raw body. An ordered sequence is used as-is; a
// key-to-object map takes its object-typed values (stray metadata keys like
// status or api are dropped). An empty result after filtering is a valid
// no-results outcome, not an error.
func resolveCollection(body map[string]interface{}) []map[string]interface{} {
	candidates := []interface{}{}

	if data, ok := body["data"].(map[string]interface{}); ok {
		if docs, ok := data["documents"]; ok {
			candidates = append(candidates, docs)
		}
	}
	if docs, ok := body["documents"]; ok {
		candidates = append(candidates, docs)
	}
	if data, ok := body["data"]; ok {
		candidates = append(candidates, data)
	}
	candidates = append(candidates, body)

	for _, candidate := range candidates {
		if records, ok := collectionEntries(candidate); ok {
			return records
		}
	}

	return nil
}

// collectionEntries flattens one candidate value into an ordered record list.
// Reports false when the candidate has no usable collection shape at all.
func collectionEntries(v interface{}) ([]map[string]interface{}, bool) {
	switch c := v.(type) {
	case []interface{}:
		records := make([]map[string]interface{}, 0, len(c))
		for _, el := range c {
			if m, ok := el.(map[string]interface{}); ok {
				records = append(records, m)
			}
		}
		return records, true
	case map[string]interface{}:
		// Key order carries the sequence on map-shaped collections. Keys
		// are often docnums, so integer-like keys compare numerically
		// ("2" before "10").
		keys := make([]string, 0, len(c))
		for key := range c {
			if envelopeMetaKeys[key] {
				continue
			}
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, aErr := strconv.Atoi(keys[i])
			b, bErr := strconv.Atoi(keys[j])
			if aErr == nil && bErr == nil {
				return a < b
			}
			return keys[i] < keys[j]
		})

		// Empty after filtering is a valid no-results outcome; the
		// candidate was still the collection, so lower-priority
		// candidates must not be consulted.
		records := make([]map[string]interface{}, 0, len(keys))
		for _, key := range keys {
			if m, ok := c[key].(map[string]interface{}); ok {
				records = append(records, m)
			}
		}
		return records, true
	default:
		return nil, false
	}
}
