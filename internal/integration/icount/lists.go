package icount

import (
	"context"

	"github.com/tombee/icount-connector/internal/operation"
)

// bankList fetches the Israeli bank registry via bank/get_list. Used to
// resolve bank codes on cheque and bank-transfer payments.
func (c *ICountIntegration) bankList(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, envelope, err := c.post(ctx, "/bank/get_list", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"banks": resolveCollection(envelope),
	}), nil
}

// userList fetches the account's users via user/get_list. Used to resolve
// employee assignment IDs on customers.
func (c *ICountIntegration) userList(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, envelope, err := c.post(ctx, "/user/get_list", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"users": resolveCollection(envelope),
	}), nil
}
