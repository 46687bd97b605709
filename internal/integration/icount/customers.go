package icount

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tombee/icount-connector/internal/operation"
)

// customerFields are the plain customer attributes copied verbatim from
// inputs when present. Aliased fields (name, phone, ...) are handled by
// applyCustomerAliases instead.
var customerFields = []string{
	"first_name",
	"last_name",
	"bank",
	"branch",
	"account",
	"notes",
	"country_code",
	"home_address",
	"home_city",
	"home_zip",
	"employee_id",
	"client_type_id",
	"payment_terms",
	"discount",
}

// customerFilterFields are the criteria forwarded to client/search.
var customerFilterFields = []string{
	"client_name",
	"email",
	"phone",
	"hp",
	"vat_id",
	"client_type_id",
}

func customerBody(inputs map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{}
	applyCustomerAliases(inputs, body)
	copyPresent(inputs, body, customerFields...)
	return body
}

// createCustomer creates a new client via client/create.
func (c *ICountIntegration) createCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"name"}); err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/client/create", customerBody(inputs))
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"action":      "created",
		"customer_id": clientIDOf(envelope),
	}), nil
}

// updateCustomer updates an existing client via client/update.
func (c *ICountIntegration) updateCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id"}); err != nil {
		return nil, err
	}

	body := customerBody(inputs)
	body["client_id"] = inputs["client_id"]

	resp, envelope, err := c.post(ctx, "/client/update", body)
	if err != nil {
		return nil, err
	}

	customerID := clientIDOf(envelope)
	if customerID == "" {
		customerID = fmt.Sprintf("%v", inputs["client_id"])
	}

	return c.ToResult(resp, map[string]interface{}{
		"action":      "updated",
		"customer_id": customerID,
	}), nil
}

// deleteCustomer removes a client via client/delete.
func (c *ICountIntegration) deleteCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id"}); err != nil {
		return nil, err
	}

	resp, _, err := c.post(ctx, "/client/delete", map[string]interface{}{
		"client_id": inputs["client_id"],
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success":   true,
		"client_id": inputs["client_id"],
	}), nil
}

// getCustomer retrieves client details via client/info.
func (c *ICountIntegration) getCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id"}); err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/client/info", map[string]interface{}{
		"client_id": inputs["client_id"],
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, unwrapData(envelope)), nil
}

// searchCustomers queries clients via client/search.
func (c *ICountIntegration) searchCustomers(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body := map[string]interface{}{}
	copyPresent(inputs, body, customerFilterFields...)
	if limit, ok := presentValue(inputs, "max_results"); ok {
		body["max_results"] = limit
	}

	resp, envelope, err := c.post(ctx, "/client/search", body)
	if err != nil {
		return nil, err
	}

	return c.collectionResult(resp, envelope, "No customers found"), nil
}

// findCustomer looks a client up by an external key via client/find.
func (c *ICountIntegration) findCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	field, value, err := lookupKey(inputs)
	if err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/client/find", map[string]interface{}{
		field: value,
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, unwrapData(envelope)), nil
}

// upsertCustomer looks a client up by an external key and updates it when
// found, creating it otherwise. The reported action field names the branch
// that ran.
//
// A find call that fails at the transport layer is surfaced as the upsert's
// error: treating it like "not found" would turn a transient outage into a
// silent duplicate create. Callers that want the legacy behavior can opt
// back in with create_on_lookup_failure.
func (c *ICountIntegration) upsertCustomer(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"name"}); err != nil {
		return nil, err
	}

	clientID, err := c.lookupClientID(ctx, inputs)
	if err != nil {
		createAnyway, _ := inputs["create_on_lookup_failure"].(bool)
		if !createAnyway {
			return nil, fmt.Errorf("customer lookup failed: %w", err)
		}
		c.logger.Warn("customer lookup failed, creating anyway",
			"error", err)
		clientID = ""
	}

	if clientID == "" {
		return c.createCustomer(ctx, inputs)
	}

	updateInputs := make(map[string]interface{}, len(inputs)+1)
	for key, value := range inputs {
		updateInputs[key] = value
	}
	updateInputs["client_id"] = clientID
	return c.updateCustomer(ctx, updateInputs)
}

// lookupClientID resolves the upsert lookup key to an existing client ID.
// An API-level "not found" is absence and returns empty without error; any
// other failure is reported to the caller.
func (c *ICountIntegration) lookupClientID(ctx context.Context, inputs map[string]interface{}) (string, error) {
	field, value, err := lookupKey(inputs)
	if err != nil {
		return "", err
	}

	_, envelope, err := c.post(ctx, "/client/find", map[string]interface{}{
		field: value,
	})
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.IsNotFound() {
			return "", nil
		}
		return "", err
	}

	return clientIDOf(envelope), nil
}

// lookupKey picks the upsert/find lookup field and its value from the
// inputs: an explicit lookup_by wins, otherwise id_number implies HP and
// email is the fallback.
func lookupKey(inputs map[string]interface{}) (string, interface{}, error) {
	lookupBy, _ := inputs["lookup_by"].(string)
	if lookupBy == "" {
		if _, ok := presentValue(inputs, "id_number"); ok {
			lookupBy = LookupByHP
		} else {
			lookupBy = LookupByEmail
		}
	}

	switch lookupBy {
	case LookupByHP:
		if value, ok := presentValue(inputs, "id_number"); ok {
			return "hp", value, nil
		}
		if value, ok := presentValue(inputs, "hp"); ok {
			return "hp", value, nil
		}
		return "", nil, operation.NewValidationError("lookup by HP requires an id_number", nil)
	case LookupByEmail:
		if value, ok := presentValue(inputs, "email"); ok {
			return "email", value, nil
		}
		return "", nil, operation.NewValidationError("lookup by email requires an email", nil)
	default:
		return "", nil, operation.NewValidationError(
			fmt.Sprintf("unknown lookup_by value: %s", lookupBy), nil)
	}
}

// getOpenDocs lists a client's open documents via client/get_open_docs.
func (c *ICountIntegration) getOpenDocs(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id"}); err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/client/get_open_docs", map[string]interface{}{
		"client_id": inputs["client_id"],
	})
	if err != nil {
		return nil, err
	}

	return c.collectionResult(resp, envelope, "No open documents found"), nil
}

// customerTypes lists the configured client types via client/types.
func (c *ICountIntegration) customerTypes(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, envelope, err := c.post(ctx, "/client/types", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"types": resolveCollection(envelope),
	}), nil
}

// contactTypeList lists the contact roles via client/contact_types.
func (c *ICountIntegration) contactTypeList(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, envelope, err := c.post(ctx, "/client/contact_types", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"contact_types": resolveCollection(envelope),
	}), nil
}

// clientIDOf extracts the client identifier from a response envelope. The
// API returns it as either a string or a number depending on the endpoint.
func clientIDOf(envelope map[string]interface{}) string {
	data := unwrapData(envelope)
	switch id := data["client_id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
