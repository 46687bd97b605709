package icount

import (
	"context"

	"github.com/tombee/icount-connector/internal/operation"
)

// contactFields are the contact attributes copied verbatim when present.
var contactFields = []string{
	"contact_type",
	"name",
	"first_name",
	"last_name",
	"email",
	"phone",
	"mobile",
	"fax",
	"notes",
}

// addContact attaches a contact sub-record to a client via
// client/add_contact.
func (c *ICountIntegration) addContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id", "name"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"client_id": inputs["client_id"],
	}
	copyPresent(inputs, body, contactFields...)

	resp, envelope, err := c.post(ctx, "/client/add_contact", body)
	if err != nil {
		return nil, err
	}

	data := unwrapData(envelope)
	return c.ToResult(resp, map[string]interface{}{
		"success":    true,
		"client_id":  inputs["client_id"],
		"contact_id": data["contact_id"],
	}), nil
}

// listContacts fetches a client's contact sub-records via
// client/get_contacts.
func (c *ICountIntegration) listContacts(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id"}); err != nil {
		return nil, err
	}

	resp, envelope, err := c.post(ctx, "/client/get_contacts", map[string]interface{}{
		"client_id": inputs["client_id"],
	})
	if err != nil {
		return nil, err
	}

	return c.collectionResult(resp, envelope, "No contacts found"), nil
}

// updateContact mutates one contact sub-record via client/update_contact.
func (c *ICountIntegration) updateContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id", "contact_id"}); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"client_id":  inputs["client_id"],
		"contact_id": inputs["contact_id"],
	}
	copyPresent(inputs, body, contactFields...)

	resp, _, err := c.post(ctx, "/client/update_contact", body)
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success":    true,
		"client_id":  inputs["client_id"],
		"contact_id": inputs["contact_id"],
	}), nil
}

// deleteContact removes one contact sub-record via client/delete_contact.
func (c *ICountIntegration) deleteContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := c.ValidateRequired(inputs, []string{"client_id", "contact_id"}); err != nil {
		return nil, err
	}

	resp, _, err := c.post(ctx, "/client/delete_contact", map[string]interface{}{
		"client_id":  inputs["client_id"],
		"contact_id": inputs["contact_id"],
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"success":    true,
		"client_id":  inputs["client_id"],
		"contact_id": inputs["contact_id"],
	}), nil
}
