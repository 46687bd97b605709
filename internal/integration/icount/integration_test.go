package icount

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tombee/icount-connector/internal/operation/api"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

// mockTransport is a simple mock that records outgoing requests.
type mockTransport struct {
	responses []*transport.Response
	err       error
	requests  []*transport.Request
}

func (m *mockTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return jsonResponse(`{"status":true}`), nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockTransport) Name() string {
	return "mock"
}

func (m *mockTransport) SetRateLimiter(limiter transport.RateLimiter) {
	// no-op for mock
}

func jsonResponse(body string) *transport.Response {
	return &transport.Response{
		StatusCode: 200,
		Body:       []byte(body),
		Headers:    make(map[string][]string),
		Metadata:   make(map[string]interface{}),
	}
}

func newTestIntegration(t *testing.T, mock *mockTransport) *ICountIntegration {
	t.Helper()
	conn, err := NewICountIntegration(&api.ProviderConfig{
		Token:     "test-token",
		Transport: mock,
	})
	if err != nil {
		t.Fatalf("failed to create connector: %v", err)
	}
	ic, ok := conn.(*ICountIntegration)
	if !ok {
		t.Fatal("connector is not an ICountIntegration")
	}
	return ic
}

// requestBody decodes the JSON body of the nth recorded request.
func requestBody(t *testing.T, mock *mockTransport, n int) map[string]interface{} {
	t.Helper()
	if len(mock.requests) <= n {
		t.Fatalf("expected at least %d requests, got %d", n+1, len(mock.requests))
	}
	var body map[string]interface{}
	if err := json.Unmarshal(mock.requests[n].Body, &body); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	return body
}

func TestNewICountIntegration(t *testing.T) {
	tests := []struct {
		name        string
		config      *api.ProviderConfig
		expectError bool
	}{
		{
			name: "valid config",
			config: &api.ProviderConfig{
				Token:     "test-token",
				Transport: &mockTransport{},
			},
			expectError: false,
		},
		{
			name: "missing token",
			config: &api.ProviderConfig{
				Transport: &mockTransport{},
			},
			expectError: true,
		},
		{
			name: "missing transport",
			config: &api.ProviderConfig{
				Token: "test-token",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := NewICountIntegration(tt.config)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ic, ok := conn.(*ICountIntegration)
			if !ok {
				t.Fatal("connector is not an ICountIntegration")
			}
			if ic.Name() != "icount" {
				t.Errorf("expected name 'icount', got %s", ic.Name())
			}
			if ic.BaseURL() != DefaultBaseURL {
				t.Errorf("expected default base URL, got %s", ic.BaseURL())
			}
		})
	}
}

func TestOperationsHaveSchemas(t *testing.T) {
	ic := newTestIntegration(t, &mockTransport{})

	ops := ic.Operations()
	if len(ops) == 0 {
		t.Fatal("no operations")
	}

	ctx := context.Background()
	for _, op := range ops {
		if ic.OperationSchema(op.Name) == nil {
			t.Errorf("operation %s has no schema", op.Name)
		}
		// Every advertised operation must dispatch to something other than
		// the unknown-operation branch.
		_, err := ic.Execute(ctx, op.Name, map[string]interface{}{})
		if err != nil && strings.Contains(err.Error(), "unknown operation") {
			t.Errorf("operation %s is advertised but not dispatched", op.Name)
		}
	}

	if ic.OperationSchema("bogus") != nil {
		t.Error("expected nil schema for unknown operation")
	}
}

func TestUnknownOperation(t *testing.T) {
	ic := newTestIntegration(t, &mockTransport{})

	_, err := ic.Execute(context.Background(), "document_destroy", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Errorf("expected unknown operation error, got %v", err)
	}
}

func TestCustomerCreate(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"client_id":"uuid-123"}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "customer_create", map[string]interface{}{
		"name": "Test Company Ltd",
	})
	if err != nil {
		t.Fatalf("customer_create failed: %v", err)
	}

	response, ok := result.Response.(map[string]interface{})
	if !ok {
		t.Fatal("response is not a map")
	}
	if response["action"] != "created" {
		t.Errorf("expected action 'created', got %v", response["action"])
	}
	if response["customer_id"] != "uuid-123" {
		t.Errorf("expected customer_id 'uuid-123', got %v", response["customer_id"])
	}

	body := requestBody(t, mock, 0)
	if body["client_name"] != "Test Company Ltd" || body["name"] != "Test Company Ltd" {
		t.Errorf("name alias not applied: %v", body)
	}
	if !strings.HasSuffix(mock.requests[0].URL, "/client/create") {
		t.Errorf("unexpected URL: %s", mock.requests[0].URL)
	}
	if auth := mock.requests[0].Headers["Authorization"]; auth != "Bearer test-token" {
		t.Errorf("missing bearer token, got %q", auth)
	}
}

func TestCustomerCreateAPIError(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":false,"message":"Customer name already exists"}`),
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "customer_create", map[string]interface{}{
		"name": "Test Company Ltd",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "iCount API Error: Customer name already exists") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestCustomerCreateIDNumberAliases(t *testing.T) {
	tests := []struct {
		name      string
		inputs    map[string]interface{}
		wantHP    interface{}
		wantVatID interface{}
	}{
		{
			name:      "id_number fills both",
			inputs:    map[string]interface{}{"name": "A", "id_number": "512345678"},
			wantHP:    "512345678",
			wantVatID: "512345678",
		},
		{
			name:      "explicit vat_id wins",
			inputs:    map[string]interface{}{"name": "A", "id_number": "512345678", "vat_id": "999"},
			wantHP:    "512345678",
			wantVatID: "999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTransport{
				responses: []*transport.Response{
					jsonResponse(`{"status":true,"data":{"client_id":"1"}}`),
				},
			}
			ic := newTestIntegration(t, mock)

			if _, err := ic.Execute(context.Background(), "customer_create", tt.inputs); err != nil {
				t.Fatalf("customer_create failed: %v", err)
			}

			body := requestBody(t, mock, 0)
			if body["hp"] != tt.wantHP {
				t.Errorf("hp = %v, want %v", body["hp"], tt.wantHP)
			}
			if body["vat_id"] != tt.wantVatID {
				t.Errorf("vat_id = %v, want %v", body["vat_id"], tt.wantVatID)
			}
		})
	}
}

func TestCustomerCreateOmitsEmptyFields(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"client_id":"1"}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "customer_create", map[string]interface{}{
		"name":     "Test Company Ltd",
		"email":    "",
		"phone":    nil,
		"discount": 0,
	})
	if err != nil {
		t.Fatalf("customer_create failed: %v", err)
	}

	body := requestBody(t, mock, 0)
	if _, ok := body["email"]; ok {
		t.Error("blank email was sent")
	}
	if _, ok := body["client_email"]; ok {
		t.Error("blank email alias was sent")
	}
	if _, ok := body["phone"]; ok {
		t.Error("nil phone was sent")
	}
	// An explicit zero is a chosen value, not an absent one.
	if v, ok := body["discount"]; !ok || v != float64(0) {
		t.Errorf("explicit zero discount dropped: %v", body)
	}
}

func TestDocumentSearchReturnAll(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":[{"docnum":1}]}`),
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "document_search", map[string]interface{}{
		"return_all":  true,
		"max_results": 7,
	})
	if err != nil {
		t.Fatalf("document_search failed: %v", err)
	}

	body := requestBody(t, mock, 0)
	if body["max_results"] != float64(1000) {
		t.Errorf("return_all must force max_results 1000, got %v", body["max_results"])
	}
}

func TestDocumentSearchEmpty(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":[]}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_search", map[string]interface{}{})
	if err != nil {
		t.Fatalf("document_search failed: %v", err)
	}

	response, ok := result.Response.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a single debug record, got %T", result.Response)
	}
	if response["debug"] != "No documents found" {
		t.Errorf("expected debug record, got %v", response)
	}
	if _, ok := response["response"]; !ok {
		t.Error("debug record is missing the raw response")
	}
}

func TestDocumentSearchDataMapWithoutRecords(t *testing.T) {
	// A data object holding only scalar values still counts as the result
	// collection: the search must report no documents, not echo the object.
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"info":"none matched"}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_search", map[string]interface{}{})
	if err != nil {
		t.Fatalf("document_search failed: %v", err)
	}

	response, ok := result.Response.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a single debug record, got %T", result.Response)
	}
	if response["debug"] != "No documents found" {
		t.Errorf("expected debug record, got %v", response)
	}
}

func TestDocumentSearchSplicesRecords(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":[{"docnum":1},{"docnum":2}]}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_search", map[string]interface{}{
		"doctype": "invoice",
	})
	if err != nil {
		t.Fatalf("document_search failed: %v", err)
	}

	records, ok := result.Response.([]map[string]interface{})
	if !ok {
		t.Fatalf("expected record slice, got %T", result.Response)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["docnum"] != float64(1) || records[1]["docnum"] != float64(2) {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestDocumentCancelRefundCC(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"cancelled":true}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_cancel", map[string]interface{}{
		"doctype":   "invoice",
		"docnum":    42,
		"refund_cc": true,
	})
	if err != nil {
		t.Fatalf("document_cancel failed: %v", err)
	}

	body := requestBody(t, mock, 0)
	if body["refund_cc"] != float64(1) {
		t.Errorf("refund_cc must be sent as 1, got %v", body["refund_cc"])
	}

	response := result.Response.(map[string]interface{})
	if response["success"] != true {
		t.Errorf("expected success:true, got %v", response)
	}
	// The whole envelope rides along, status included.
	if response["cancelled"] != true {
		t.Errorf("envelope field dropped: %v", response)
	}
	if response["status"] != true {
		t.Errorf("envelope status dropped: %v", response)
	}
}

func TestDocumentCreateWithItemsAndPayments(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"doc_id":"d-1","docnum":17}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "document_create", map[string]interface{}{
		"doctype":   "invoice",
		"client_id": "c-9",
		"items": []interface{}{
			map[string]interface{}{
				"description": "Widget",
				"quantity":    2,
				"unit_price":  49.9,
				"vat_type":    "included",
			},
		},
		"payments": []interface{}{
			map[string]interface{}{"type": "cheque", "amount": "100.50", "bank": "11", "branch": "042", "account": "55", "cheque_number": "778"},
			map[string]interface{}{"type": "cheque", "amount": 49.5, "bank": "11", "branch": "042", "account": "55", "cheque_number": "779"},
		},
	})
	if err != nil {
		t.Fatalf("document_create failed: %v", err)
	}

	body := requestBody(t, mock, 0)

	items, ok := body["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", body["items"])
	}
	item := items[0].(map[string]interface{})
	if _, ok := item["unit_price"]; ok {
		t.Error("unit_price was not renamed to unitprice")
	}
	if item["unitprice"] != float64(49.9) {
		t.Errorf("unitprice = %v", item["unitprice"])
	}
	if item["vat_type"] != float64(1) {
		t.Errorf("vat_type 'included' must map to 1, got %v", item["vat_type"])
	}

	cheques, ok := body["cheques"].([]interface{})
	if !ok || len(cheques) != 2 {
		t.Fatalf("expected 2 cheques, got %v", body["cheques"])
	}
	first := cheques[0].(map[string]interface{})
	if first["sum"] != "100.5" {
		t.Errorf("cheque sum must be a decimal string, got %v", first["sum"])
	}
	if first["number"] != "778" {
		t.Errorf("cheque number = %v", first["number"])
	}
}

func TestDocumentCreateRequiresDoctype(t *testing.T) {
	ic := newTestIntegration(t, &mockTransport{})

	_, err := ic.Execute(context.Background(), "document_create", map[string]interface{}{})
	if err == nil || !strings.Contains(err.Error(), "doctype") {
		t.Errorf("expected missing doctype error, got %v", err)
	}
}

func TestCustomerUpsertUpdatesWhenFound(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"client_id":"c-42"}}`),
			jsonResponse(`{"status":true,"data":{"client_id":"c-42"}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "customer_upsert", map[string]interface{}{
		"name":      "Test Company Ltd",
		"id_number": "512345678",
	})
	if err != nil {
		t.Fatalf("customer_upsert failed: %v", err)
	}

	response := result.Response.(map[string]interface{})
	if response["action"] != "updated" {
		t.Errorf("expected action 'updated', got %v", response["action"])
	}
	if response["customer_id"] != "c-42" {
		t.Errorf("customer_id = %v", response["customer_id"])
	}

	if len(mock.requests) != 2 {
		t.Fatalf("expected find+update, got %d requests", len(mock.requests))
	}
	find := requestBody(t, mock, 0)
	if find["hp"] != "512345678" {
		t.Errorf("lookup should go by hp, got %v", find)
	}
	update := requestBody(t, mock, 1)
	if update["client_id"] != "c-42" {
		t.Errorf("update must carry the found client_id, got %v", update)
	}
	if !strings.HasSuffix(mock.requests[1].URL, "/client/update") {
		t.Errorf("second call should be update, got %s", mock.requests[1].URL)
	}
}

func TestCustomerUpsertCreatesWhenAbsent(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":false,"message":"Client not found"}`),
			jsonResponse(`{"status":true,"data":{"client_id":"c-new"}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "customer_upsert", map[string]interface{}{
		"name":  "Test Company Ltd",
		"email": "billing@test.example",
	})
	if err != nil {
		t.Fatalf("customer_upsert failed: %v", err)
	}

	response := result.Response.(map[string]interface{})
	if response["action"] != "created" {
		t.Errorf("expected action 'created', got %v", response["action"])
	}
	if response["customer_id"] != "c-new" {
		t.Errorf("customer_id = %v", response["customer_id"])
	}
	if !strings.HasSuffix(mock.requests[1].URL, "/client/create") {
		t.Errorf("second call should be create, got %s", mock.requests[1].URL)
	}
}

func TestCustomerUpsertSurfacesLookupFailure(t *testing.T) {
	mock := &mockTransport{
		err: &transport.TransportError{
			Type:    transport.ErrorTypeConnection,
			Message: "connection refused",
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "customer_upsert", map[string]interface{}{
		"name":  "Test Company Ltd",
		"email": "billing@test.example",
	})
	if err == nil {
		t.Fatal("expected lookup failure to surface")
	}
	if !strings.Contains(err.Error(), "customer lookup failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(mock.requests) != 1 {
		t.Errorf("no create should follow a failed lookup, got %d requests", len(mock.requests))
	}
}

func TestCustomerUpsertCreateOnLookupFailure(t *testing.T) {
	mock := &mockTransport{
		err: &transport.TransportError{
			Type:    transport.ErrorTypeConnection,
			Message: "connection refused",
		},
	}
	ic := newTestIntegration(t, mock)

	// The first call fails at the transport; with the opt-in flag the
	// upsert falls through to create, which also fails here. The point is
	// that the error comes from the create call, not the lookup.
	_, err := ic.Execute(context.Background(), "customer_upsert", map[string]interface{}{
		"name":                     "Test Company Ltd",
		"email":                    "billing@test.example",
		"create_on_lookup_failure": true,
	})
	if err == nil {
		t.Fatal("expected create failure")
	}
	if strings.Contains(err.Error(), "customer lookup failed") {
		t.Errorf("lookup failure should have been swallowed: %v", err)
	}
	if len(mock.requests) != 2 {
		t.Errorf("expected find then create, got %d requests", len(mock.requests))
	}
}

func TestGetDocumentUnwrapsData(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"doc_id":"d-1","docnum":17,"total":117.0}}`),
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_get", map[string]interface{}{
		"doc_id": "d-1",
	})
	if err != nil {
		t.Fatalf("document_get failed: %v", err)
	}

	response := result.Response.(map[string]interface{})
	if response["doc_id"] != "d-1" {
		t.Errorf("data was not unwrapped: %v", response)
	}
	if _, ok := response["status"]; ok {
		t.Error("envelope leaked through unwrap")
	}
}

func TestGetCustomerIdempotentResponse(t *testing.T) {
	const payload = `{"status":true,"data":{"client_id":"c-1","client_name":"Acme"}}`
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(payload),
			jsonResponse(payload),
		},
	}
	ic := newTestIntegration(t, mock)

	first, err := ic.Execute(context.Background(), "customer_get", map[string]interface{}{"client_id": "c-1"})
	if err != nil {
		t.Fatalf("customer_get failed: %v", err)
	}
	second, err := ic.Execute(context.Background(), "customer_get", map[string]interface{}{"client_id": "c-1"})
	if err != nil {
		t.Fatalf("customer_get failed: %v", err)
	}

	a, _ := json.Marshal(first.Response)
	b, _ := json.Marshal(second.Response)
	if string(a) != string(b) {
		t.Errorf("responses differ: %s vs %s", a, b)
	}
}

func TestDocumentGetURLAttachesPDF(t *testing.T) {
	mock := &mockTransport{
		responses: []*transport.Response{
			jsonResponse(`{"status":true,"data":{"doc_url":"https://example.test/doc.pdf"}}`),
			{StatusCode: 200, Body: []byte("%PDF-1.4 fake")},
		},
	}
	ic := newTestIntegration(t, mock)

	result, err := ic.Execute(context.Background(), "document_get_url", map[string]interface{}{
		"doc_id":     "d-1",
		"attach_pdf": true,
	})
	if err != nil {
		t.Fatalf("document_get_url failed: %v", err)
	}

	response := result.Response.(map[string]interface{})
	if response["doc_url"] != "https://example.test/doc.pdf" {
		t.Errorf("doc_url = %v", response["doc_url"])
	}

	attachment, ok := result.Attachments["document.pdf"]
	if !ok {
		t.Fatalf("missing attachment, got %v", result.Attachments)
	}
	if attachment.MimeType != "application/pdf" {
		t.Errorf("mime type = %s", attachment.MimeType)
	}
	// The signed link must be fetched without the bearer token.
	if auth := mock.requests[1].Headers["Authorization"]; auth != "" {
		t.Errorf("PDF fetch must not carry auth, got %q", auth)
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	mock := &mockTransport{
		err: &transport.TransportError{
			Type:       transport.ErrorTypeRateLimit,
			StatusCode: 429,
			Message:    "too many requests",
			Metadata: map[string]interface{}{
				transport.MetadataRetryAfter: "30",
			},
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "customer_get", map[string]interface{}{"client_id": "c-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "iCount rate limit exceeded") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthErrorMessage(t *testing.T) {
	mock := &mockTransport{
		err: &transport.TransportError{
			Type:       transport.ErrorTypeAuth,
			StatusCode: 401,
			Message:    "unauthorized",
		},
	}
	ic := newTestIntegration(t, mock)

	_, err := ic.Execute(context.Background(), "customer_get", map[string]interface{}{"client_id": "c-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "iCount authentication failed") {
		t.Errorf("unexpected error: %v", err)
	}
}
