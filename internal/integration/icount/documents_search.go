package icount

import (
	"context"

	"github.com/tombee/icount-connector/internal/operation"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

const (
	// defaultSearchLimit is applied when the caller does not bound a search.
	defaultSearchLimit = 100

	// maxSearchLimit is the largest page iCount serves in one call. Searches
	// with return_all set always request this many.
	maxSearchLimit = 1000
)

// documentFilterFields are the search criteria forwarded to doc/search
// when present.
var documentFilterFields = []string{
	"doctype",
	"client_id",
	"client_name",
	"docnum",
	"from_date",
	"to_date",
	"from_sum",
	"to_sum",
	"status",
	"income_type_id",
	"currency_code",
	"email",
}

// searchDocuments queries documents via doc/search. The result is a
// sequence of one record per matching document, or a single debug record
// when nothing matched.
func (c *ICountIntegration) searchDocuments(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body := map[string]interface{}{}
	copyPresent(inputs, body, documentFilterFields...)

	returnAll, _ := inputs["return_all"].(bool)
	if returnAll {
		body["max_results"] = maxSearchLimit
	} else if limit, ok := presentValue(inputs, "max_results"); ok {
		body["max_results"] = limit
	} else {
		body["max_results"] = defaultSearchLimit
	}
	copyPresent(inputs, body, "page")

	resp, envelope, err := c.post(ctx, "/doc/search", body)
	if err != nil {
		return nil, err
	}

	return c.collectionResult(resp, envelope, "No documents found"), nil
}

// listDocuments enumerates documents of one type via doc/list.
func (c *ICountIntegration) listDocuments(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"doctype"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"doctype": inputs["doctype"],
	}
	copyPresent(inputs, body, "from_date", "to_date", "detail_level", "max_results", "page")

	resp, envelope, err := c.post(ctx, "/doc/list", body)
	if err != nil {
		return nil, err
	}

	return c.collectionResult(resp, envelope, "No documents found"), nil
}

// collectionResult shapes a list/search response: one record per entry of
// the resolved collection, or a single debug record when nothing matched.
func (c *ICountIntegration) collectionResult(resp *transport.Response, envelope map[string]interface{}, emptyMsg string) *operation.Result {
	records := resolveCollection(envelope)
	if len(records) == 0 {
		return c.ToResult(resp, map[string]interface{}{
			"debug":    emptyMsg,
			"response": envelope,
		})
	}

	result := c.ToResult(resp, nil)
	result.Response = records
	return result
}
