package icount

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tombee/icount-connector/internal/operation"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

// documentFields are the scalar document attributes copied verbatim from
// inputs when present.
var documentFields = []string{
	"doc_date",
	"due_date",
	"currency_code",
	"lang",
	"notes",
	"income_type_id",
	"discount",
	"rounding",
}

// createDocument creates a new billing document via doc/create.
func (c *ICountIntegration) createDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"doctype"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"doctype": inputs["doctype"],
	}

	// Client reference: an existing client ID, or inline client fields.
	if clientID, ok := presentValue(inputs, "client_id"); ok {
		body["client_id"] = clientID
	} else {
		applyCustomerAliases(inputs, body)
	}

	copyPresent(inputs, body, documentFields...)

	if err := c.applyItems(inputs, body); err != nil {
		return nil, err
	}
	if err := applyPayments(inputs["payments"], body); err != nil {
		return nil, err
	}
	if basedOn, ok := inputs["based_on"]; ok {
		parsed, err := decodeObjectList(basedOn, "based_on")
		if err != nil {
			return nil, err
		}
		if len(parsed) > 0 {
			body["based_on"] = parsed
		}
	}

	resp, envelope, err := c.post(ctx, "/doc/create", body)
	if err != nil {
		return nil, err
	}

	data := unwrapData(envelope)
	result := map[string]interface{}{
		"doc_id":  data["doc_id"],
		"doctype": inputs["doctype"],
	}
	if docnum, ok := data["docnum"]; ok {
		result["docnum"] = docnum
	}

	return c.ToResult(resp, result), nil
}

// updateDocument mutates an existing document via doc/update.
func (c *ICountIntegration) updateDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}

	copyPresent(inputs, body, documentFields...)

	if err := c.applyItems(inputs, body); err != nil {
		return nil, err
	}
	if err := applyPayments(inputs["payments"], body); err != nil {
		return nil, err
	}

	resp, _, err := c.post(ctx, "/doc/update", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success": true,
		"doctype": body["doctype"],
		"docnum":  body["docnum"],
	}), nil
}

// cancelDocument cancels a document via doc/cancel. Cancellation is the only
// terminal transition; documents are never deleted.
func (c *ICountIntegration) cancelDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"doctype", "docnum"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"doctype": inputs["doctype"],
		"docnum":  inputs["docnum"],
	}
	if reason, ok := presentValue(inputs, "reason"); ok {
		body["reason"] = reason
	}

	// This endpoint takes refund_cc as a 1/0 integer, not a JSON boolean.
	if refund, ok := inputs["refund_cc"]; ok {
		n, err := boolToInt(refund)
		if err != nil {
			return nil, operation.NewValidationError("refund_cc must be a boolean", err)
		}
		body["refund_cc"] = n
	}

	resp, envelope, err := c.post(ctx, "/doc/cancel", body)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"success": true,
		"doctype": inputs["doctype"],
		"docnum":  inputs["docnum"],
	}
	for key, value := range envelope {
		if _, taken := result[key]; !taken {
			result[key] = value
		}
	}

	return c.ToResult(resp, result), nil
}

// closeDocument marks a document closed via doc/close.
func (c *ICountIntegration) closeDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}

	resp, _, err := c.post(ctx, "/doc/close", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success": true,
		"doctype": body["doctype"],
		"docnum":  body["docnum"],
	}), nil
}

// getDocument retrieves document details via doc/info.
func (c *ICountIntegration) getDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/doc/info", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, unwrapData(envelope)), nil
}

// convertDocument converts a document to another type via doc/convert
// (e.g. quote to invoice).
func (c *ICountIntegration) convertDocument(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"doctype", "docnum", "target_doctype"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"doctype":        inputs["doctype"],
		"docnum":         inputs["docnum"],
		"target_doctype": inputs["target_doctype"],
	}

	resp, envelope, err := c.post(ctx, "/doc/convert", body)
	if err != nil {
		return nil, err
	}

	data := unwrapData(envelope)
	result := map[string]interface{}{
		"success":        true,
		"target_doctype": inputs["target_doctype"],
	}
	if docID, ok := data["doc_id"]; ok {
		result["doc_id"] = docID
	}
	if docnum, ok := data["docnum"]; ok {
		result["docnum"] = docnum
	}

	return c.ToResult(resp, result), nil
}

// getConversionOptions lists the document types a document can convert to.
func (c *ICountIntegration) getConversionOptions(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/doc/get_doc_conversion_options", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"options": resolveCollection(envelope),
	}), nil
}

// updateDocIncomeType reassigns a document's income type via
// doc/update_doc_income_type.
func (c *ICountIntegration) updateDocIncomeType(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateRequired(inputs, []string{"income_type_id"}); err != nil {
		return nil, err
	}
	body["income_type_id"] = inputs["income_type_id"]

	resp, _, err := c.post(ctx, "/doc/update_doc_income_type", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success": true,
		"doctype": body["doctype"],
		"docnum":  body["docnum"],
	}), nil
}

// getDocumentURL fetches the signed link of a rendered document via
// doc/get_doc_url, optionally following it to attach the PDF bytes.
func (c *ICountIntegration) getDocumentURL(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body, err := documentRef(inputs)
	if err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/doc/get_doc_url", body)
	if err != nil {
		return nil, err
	}

	data := unwrapData(envelope)
	docURL, _ := data["doc_url"].(string)
	if docURL == "" {
		docURL, _ = data["link"].(string)
	}
	if docURL == "" {
		return nil, &APIError{Message: "document URL missing from response"}
	}

	result := c.ToResult(resp, map[string]interface{}{
		"doc_url": docURL,
	})

	attachPDF, _ := inputs["attach_pdf"].(bool)
	if attachPDF {
		attachment, err := c.fetchPDF(ctx, docURL, inputs)
		if err != nil {
			return nil, err
		}
		result.Attachments = map[string]*operation.Attachment{
			attachment.FileName: attachment,
		}
	}

	return result, nil
}

// fetchPDF downloads a signed document link and base64-encodes the bytes.
// The link is pre-signed, so the request deliberately carries no
// Authorization header.
func (c *ICountIntegration) fetchPDF(ctx context.Context, docURL string, inputs map[string]interface{}) (*operation.Attachment, error) {
	resp, err := c.transport.Execute(ctx, &transport.Request{
		Method: "GET",
		URL:    docURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document PDF: %w", wrapTransportError(err))
	}

	fileName, _ := presentValue(inputs, "attachment_name")
	name, _ := fileName.(string)
	if name == "" {
		name = "document.pdf"
	}

	return &operation.Attachment{
		FileName: name,
		MimeType: "application/pdf",
		Data:     base64.StdEncoding.EncodeToString(resp.Body),
	}, nil
}

// docTypes lists the available document types via doc/types.
func (c *ICountIntegration) docTypes(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, envelope, err := c.post(ctx, "/doc/types", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"types": resolveCollection(envelope),
	}), nil
}

// applyItems parses the items input (structured or free-text JSON),
// normalizes each line item to wire shape, and adds it to the body.
func (c *ICountIntegration) applyItems(inputs, body map[string]interface{}) error {
	raw, ok := inputs["items"]
	if !ok {
		return nil
	}

	items, err := decodeObjectList(raw, "items")
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	normalized := make([]map[string]interface{}, len(items))
	for i, item := range items {
		normalized[i] = normalizeItem(item)
	}
	body["items"] = normalized
	return nil
}

// documentRef builds the identifying fields of a document: doc_id when
// supplied, otherwise the (doctype, docnum) pair.
func documentRef(inputs map[string]interface{}) (map[string]interface{}, error) {
	if docID, ok := presentValue(inputs, "doc_id"); ok {
		return map[string]interface{}{"doc_id": docID}, nil
	}

	doctype, haveType := presentValue(inputs, "doctype")
	docnum, haveNum := presentValue(inputs, "docnum")
	if !haveType || !haveNum {
		return nil, fmt.Errorf("missing required parameter: doc_id or doctype+docnum")
	}

	return map[string]interface{}{
		"doctype": doctype,
		"docnum":  docnum,
	}, nil
}
