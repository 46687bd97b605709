package operation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/icount-connector/internal/log"
)

// Item is one unit of dispatcher input: a resource/operation selector plus
// the resolved parameter bag for that item.
type Item struct {
	// Resource selects the entity family (e.g., "document", "customer")
	Resource string `json:"resource" yaml:"resource"`

	// Operation selects the operation within the resource (e.g., "create")
	Operation string `json:"operation" yaml:"operation"`

	// Inputs is the resolved parameter bag
	Inputs map[string]interface{} `json:"inputs" yaml:"inputs"`
}

// OperationName returns the connector operation name for this item.
func (it *Item) OperationName() string {
	if it.Resource == "" {
		return it.Operation
	}
	return it.Resource + "_" + it.Operation
}

// Record is one dispatcher output record.
type Record struct {
	// Data holds the record payload
	Data map[string]interface{} `json:"data"`

	// Attachments holds named binary blobs produced by the operation
	Attachments map[string]*Attachment `json:"attachments,omitempty"`

	// Item is the index of the input item that produced this record
	Item int `json:"item"`

	// CorrelationID links the record to its execution logs
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Dispatcher routes input items to connector operations one at a time.
// Items execute sequentially; no item's failure affects another item's
// processing when ContinueOnFail is set.
type Dispatcher struct {
	connector      Connector
	logger         *slog.Logger
	metrics        *MetricsCollector
	continueOnFail bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithContinueOnFail converts a failing item into an error record instead of
// aborting the remaining items.
func WithContinueOnFail(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.continueOnFail = enabled
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = collector
	}
}

// NewDispatcher creates a dispatcher over the given connector.
func NewDispatcher(connector Connector, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		connector: connector,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes every item in order and returns the accumulated records.
//
// A single-result operation appends one record. A list/search operation whose
// response is a sequence splices one record per element. A failing item either
// aborts the run (default) or, with continue-on-fail, appends a synthetic
// {error, item} record and processing moves to the next item.
func (d *Dispatcher) Run(ctx context.Context, items []Item) ([]Record, error) {
	records := make([]Record, 0, len(items))

	for i := range items {
		item := &items[i]
		correlationID := uuid.NewString()
		opName := item.OperationName()

		logger := log.WithCorrelationID(d.logger, correlationID)
		logger.Debug("dispatching item",
			log.ResourceKey, item.Resource,
			log.OperationKey, item.Operation,
			log.ItemKey, i)

		start := time.Now()
		result, err := d.connector.Execute(ctx, opName, item.Inputs)
		elapsed := time.Since(start)

		if d.metrics != nil {
			status := 0
			if result != nil {
				status = result.StatusCode
			}
			d.metrics.RecordRequest(opName, status, elapsed)
		}

		if err != nil {
			logger.Error("item failed",
				log.OperationKey, opName,
				log.ItemKey, i,
				log.DurationKey, elapsed.Milliseconds(),
				"error", err)

			if !d.continueOnFail {
				return records, fmt.Errorf("item %d (%s): %w", i, opName, err)
			}

			records = append(records, Record{
				Data: map[string]interface{}{
					"error": err.Error(),
				},
				Item:          i,
				CorrelationID: correlationID,
			})
			continue
		}

		logger.Debug("item completed",
			log.OperationKey, opName,
			log.ItemKey, i,
			log.DurationKey, elapsed.Milliseconds(),
			log.StatusKey, result.StatusCode)

		// Sequence responses splice one record per element and skip the
		// generic single-result append.
		if seq, ok := asSequence(result.Response); ok {
			for _, el := range seq {
				records = append(records, Record{
					Data:          asRecordData(el),
					Item:          i,
					CorrelationID: correlationID,
				})
			}
			continue
		}

		records = append(records, Record{
			Data:          asRecordData(result.Response),
			Attachments:   result.Attachments,
			Item:          i,
			CorrelationID: correlationID,
		})
	}

	return records, nil
}

// asSequence reports whether a response is an ordered sequence of records.
func asSequence(response interface{}) ([]interface{}, bool) {
	switch v := response.(type) {
	case []interface{}:
		return v, true
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// asRecordData coerces a response value into a record payload map.
func asRecordData(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"value": v}
}
