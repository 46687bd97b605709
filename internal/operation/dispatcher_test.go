package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConnector returns canned results keyed by operation name.
type scriptedConnector struct {
	results map[string]*Result
	errs    map[string]error
	calls   []string
}

func (s *scriptedConnector) Name() string { return "scripted" }

func (s *scriptedConnector) Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error) {
	s.calls = append(s.calls, operation)
	if err, ok := s.errs[operation]; ok {
		return nil, err
	}
	if result, ok := s.results[operation]; ok {
		return result, nil
	}
	return &Result{Response: map[string]interface{}{"op": operation}}, nil
}

func TestDispatcherRunSingleResults(t *testing.T) {
	conn := &scriptedConnector{
		results: map[string]*Result{
			"customer_create": {Response: map[string]interface{}{"action": "created"}},
		},
	}
	d := NewDispatcher(conn)

	records, err := d.Run(context.Background(), []Item{
		{Resource: "customer", Operation: "create"},
		{Resource: "customer", Operation: "get"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, map[string]interface{}{"action": "created"}, records[0].Data)
	assert.Equal(t, 0, records[0].Item)
	assert.Equal(t, 1, records[1].Item)
	assert.NotEmpty(t, records[0].CorrelationID)
	assert.NotEqual(t, records[0].CorrelationID, records[1].CorrelationID)
	assert.Equal(t, []string{"customer_create", "customer_get"}, conn.calls)
}

func TestDispatcherRunSplicesSequences(t *testing.T) {
	conn := &scriptedConnector{
		results: map[string]*Result{
			"document_search": {Response: []map[string]interface{}{
				{"docnum": 1},
				{"docnum": 2},
			}},
		},
	}
	d := NewDispatcher(conn)

	records, err := d.Run(context.Background(), []Item{
		{Resource: "document", Operation: "search"},
		{Resource: "document", Operation: "get"},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Both spliced records point back at the same input item.
	assert.Equal(t, map[string]interface{}{"docnum": 1}, records[0].Data)
	assert.Equal(t, map[string]interface{}{"docnum": 2}, records[1].Data)
	assert.Equal(t, 0, records[0].Item)
	assert.Equal(t, 0, records[1].Item)
	assert.Equal(t, records[0].CorrelationID, records[1].CorrelationID)
	assert.Equal(t, 1, records[2].Item)
}

func TestDispatcherRunAbortsOnError(t *testing.T) {
	conn := &scriptedConnector{
		errs: map[string]error{
			"document_cancel": errors.New("boom"),
		},
	}
	d := NewDispatcher(conn)

	records, err := d.Run(context.Background(), []Item{
		{Resource: "customer", Operation: "create"},
		{Resource: "document", Operation: "cancel"},
		{Resource: "customer", Operation: "get"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1 (document_cancel)")
	assert.Contains(t, err.Error(), "boom")

	// The first item's record survives; the third item never ran.
	require.Len(t, records, 1)
	assert.Equal(t, []string{"customer_create", "document_cancel"}, conn.calls)
}

func TestDispatcherRunContinueOnFail(t *testing.T) {
	conn := &scriptedConnector{
		errs: map[string]error{
			"document_cancel": errors.New("boom"),
		},
	}
	d := NewDispatcher(conn, WithContinueOnFail(true))

	records, err := d.Run(context.Background(), []Item{
		{Resource: "document", Operation: "cancel"},
		{Resource: "customer", Operation: "get"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, map[string]interface{}{"error": "boom"}, records[0].Data)
	assert.Equal(t, 0, records[0].Item)
	assert.Equal(t, 1, records[1].Item)
}

func TestDispatcherRecordsMetrics(t *testing.T) {
	conn := &scriptedConnector{
		results: map[string]*Result{
			"customer_get": {Response: map[string]interface{}{}, StatusCode: 200},
		},
	}
	metrics := NewMetricsCollector()
	d := NewDispatcher(conn, WithMetrics(metrics))

	_, err := d.Run(context.Background(), []Item{
		{Resource: "customer", Operation: "get"},
		{Resource: "customer", Operation: "get"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.RequestCount("customer_get"))
	assert.Equal(t, int64(2), metrics.StatusCount("customer_get", 200))
}

func TestDispatcherScalarResponseWrapped(t *testing.T) {
	conn := &scriptedConnector{
		results: map[string]*Result{
			"document_get_url": {Response: "https://example.test/doc.pdf"},
		},
	}
	d := NewDispatcher(conn)

	records, err := d.Run(context.Background(), []Item{
		{Resource: "document", Operation: "get_url"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, map[string]interface{}{"value": "https://example.test/doc.pdf"}, records[0].Data)
}

func TestItemOperationName(t *testing.T) {
	item := Item{Resource: "customer", Operation: "create"}
	assert.Equal(t, "customer_create", item.OperationName())
}
