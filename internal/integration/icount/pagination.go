package icount

import (
	"context"
	"fmt"

	op "github.com/tombee/icount-connector/internal/operation"
)

// ExecutePaginated implements paginated operations for the iCount connector.
// Supports the document_search and document_list operations.
//
// iCount has no pagination cursor or link header; pages are requested with
// an explicit page number and a fixed page size, and the last page is
// detected by a short (or empty) result.
func (c *ICountIntegration) ExecutePaginated(ctx context.Context, operation string, inputs map[string]interface{}) (<-chan *op.Result, error) {
	paginate, _ := inputs["paginate"].(bool)
	if !paginate {
		result, err := c.Execute(ctx, operation, inputs)
		if err != nil {
			return nil, err
		}

		ch := make(chan *op.Result, 1)
		ch <- result
		close(ch)
		return ch, nil
	}

	switch operation {
	case "document_search", "document_list":
	default:
		return nil, fmt.Errorf("operation %s does not support pagination", operation)
	}

	resultsChan := make(chan *op.Result)

	go func() {
		defer close(resultsChan)

		maxResults := 0
		if max, ok := inputs["max_results"].(int); ok {
			maxResults = max
		}

		pageSize := maxSearchLimit
		if perPage, ok := inputs["page_size"].(int); ok && perPage > 0 && perPage < maxSearchLimit {
			pageSize = perPage
		}

		// Paged calls always carry an explicit bound; return_all would
		// override it.
		pageInputs := make(map[string]interface{}, len(inputs)+2)
		for key, value := range inputs {
			pageInputs[key] = value
		}
		delete(pageInputs, "return_all")
		pageInputs["max_results"] = pageSize

		totalSent := 0
		page := 1

		for {
			if ctx.Err() != nil {
				return
			}

			pageInputs["page"] = page

			result, err := c.Execute(ctx, operation, pageInputs)
			if err != nil {
				resultsChan <- &op.Result{
					Metadata: map[string]interface{}{
						"error": err.Error(),
					},
				}
				return
			}

			records, ok := result.Response.([]map[string]interface{})
			if !ok {
				// Single debug record: nothing (more) matched.
				if page == 1 {
					resultsChan <- result
				}
				return
			}

			resultsChan <- result
			totalSent += len(records)

			if maxResults > 0 && totalSent >= maxResults {
				return
			}
			if len(records) < pageSize {
				return
			}

			page++
		}
	}()

	return resultsChan, nil
}
