// Package icount implements the Connector interface for the iCount
// accounting/billing REST API: billing documents, customers, and their
// contact sub-records.
package icount

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tombee/icount-connector/internal/log"
	"github.com/tombee/icount-connector/internal/operation"
	"github.com/tombee/icount-connector/internal/operation/api"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

// DefaultBaseURL is the production iCount API endpoint.
const DefaultBaseURL = "https://api.icount.co.il/api/v3.php"

// ICountIntegration implements the Connector interface for the iCount API.
type ICountIntegration struct {
	*api.BaseProvider
	transport transport.Transport
	logger    *slog.Logger
}

// NewICountIntegration creates a new iCount integration.
func NewICountIntegration(config *api.ProviderConfig) (operation.Connector, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("icount connector requires an API token")
	}
	if config.Transport == nil {
		return nil, fmt.Errorf("transport is required for iCount integration")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(baseURL, "/")

	// iCount throttles aggressively; keep well under its ceiling.
	config.Transport.SetRateLimiter(transport.NewTokenBucketLimiter(10, 10))

	return &ICountIntegration{
		BaseProvider: api.NewBaseProvider("icount", config),
		transport:    config.Transport,
		logger:       log.WithComponent(slog.Default(), "icount"),
	}, nil
}

// Execute runs a named operation with the given inputs.
func (c *ICountIntegration) Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*operation.Result, error) {
	switch operation {
	// Documents
	case "document_create":
		return c.createDocument(ctx, inputs)
	case "document_update":
		return c.updateDocument(ctx, inputs)
	case "document_cancel":
		return c.cancelDocument(ctx, inputs)
	case "document_close":
		return c.closeDocument(ctx, inputs)
	case "document_get":
		return c.getDocument(ctx, inputs)
	case "document_search":
		return c.searchDocuments(ctx, inputs)
	case "document_list":
		return c.listDocuments(ctx, inputs)
	case "document_convert":
		return c.convertDocument(ctx, inputs)
	case "document_get_url":
		return c.getDocumentURL(ctx, inputs)
	case "document_conversion_options":
		return c.getConversionOptions(ctx, inputs)
	case "document_update_income_type":
		return c.updateDocIncomeType(ctx, inputs)
	case "document_types":
		return c.docTypes(ctx, inputs)

	// Customers
	case "customer_create":
		return c.createCustomer(ctx, inputs)
	case "customer_update":
		return c.updateCustomer(ctx, inputs)
	case "customer_delete":
		return c.deleteCustomer(ctx, inputs)
	case "customer_get":
		return c.getCustomer(ctx, inputs)
	case "customer_search":
		return c.searchCustomers(ctx, inputs)
	case "customer_find":
		return c.findCustomer(ctx, inputs)
	case "customer_upsert":
		return c.upsertCustomer(ctx, inputs)
	case "customer_open_docs":
		return c.getOpenDocs(ctx, inputs)
	case "customer_types":
		return c.customerTypes(ctx, inputs)
	case "customer_contact_types":
		return c.contactTypeList(ctx, inputs)

	// Contacts
	case "contact_add":
		return c.addContact(ctx, inputs)
	case "contact_list":
		return c.listContacts(ctx, inputs)
	case "contact_update":
		return c.updateContact(ctx, inputs)
	case "contact_delete":
		return c.deleteContact(ctx, inputs)

	// Reference lists
	case "bank_list":
		return c.bankList(ctx, inputs)
	case "user_list":
		return c.userList(ctx, inputs)

	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

// defaultHeaders returns default headers for iCount API requests.
func (c *ICountIntegration) defaultHeaders() map[string]string {
	return map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
}

// post issues one POST call and decodes the response envelope.
// Transport failures are wrapped with clarifying auth/rate-limit messages;
// an envelope with status=false becomes an APIError.
func (c *ICountIntegration) post(ctx context.Context, endpoint string, body map[string]interface{}) (*transport.Response, map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.ExecuteRequest(ctx, "POST", c.BaseURL()+endpoint, c.defaultHeaders(), payload)
	if err != nil {
		return nil, nil, wrapTransportError(err)
	}

	envelope, err := decodeEnvelope(resp)
	if err != nil {
		return resp, nil, err
	}

	return resp, envelope, nil
}
