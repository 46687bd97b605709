package icount

import (
	"fmt"
)

// The remote API expects several input fields under duplicate or historic
// key names (e.g. a single phone input is sent as both phone and
// client_phone). These tables define that alias policy once per entity;
// every executor that touches the entity consults them instead of carrying
// its own copy.

// customerAliases maps a customer input field to every wire key it
// populates. Fields absent from this table are sent under their own name.
var customerAliases = map[string][]string{
	"name":    {"client_name", "name"},
	"phone":   {"phone", "client_phone"},
	"mobile":  {"mobile", "client_mobile"},
	"fax":     {"fax", "client_fax"},
	"email":   {"email", "client_email"},
	"address": {"address", "client_address"},
	"city":    {"city", "client_city"},
	"zip":     {"zip", "client_zip"},
}

// applyCustomerAliases copies a present customer field into the request body
// under every aliased wire key.
//
// id_number is special-cased: it populates both hp and vat_id unless an
// explicit vat_id input is supplied, in which case the explicit value wins
// for vat_id and id_number only fills hp.
func applyCustomerAliases(inputs, body map[string]interface{}) {
	for field, wireKeys := range customerAliases {
		value, ok := presentValue(inputs, field)
		if !ok {
			continue
		}
		for _, key := range wireKeys {
			body[key] = value
		}
	}

	if idNumber, ok := presentValue(inputs, "id_number"); ok {
		body["hp"] = idNumber
		if vatID, ok := presentValue(inputs, "vat_id"); ok {
			body["vat_id"] = vatID
		} else {
			body["vat_id"] = idNumber
		}
	} else if vatID, ok := presentValue(inputs, "vat_id"); ok {
		body["vat_id"] = vatID
	}
}

// itemFieldAliases normalizes line-item field spellings to the wire names
// the document endpoints expect.
var itemFieldAliases = map[string]string{
	"unit_price": "unitprice",
	"unitprice":  "unitprice",
}

// normalizeItem rewrites one line item to wire shape. Recognized alias
// spellings collapse onto their canonical key; everything else passes
// through unchanged.
func normalizeItem(item map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(item))
	for key, value := range item {
		if canonical, ok := itemFieldAliases[key]; ok {
			// An explicit canonical key wins over an alias spelling.
			if key != canonical {
				if _, exists := item[canonical]; exists {
					continue
				}
			}
			out[canonical] = value
			continue
		}
		if key == "vat_type" {
			out["vat_type"] = normalizeVATType(value)
			continue
		}
		out[key] = value
	}
	return out
}

// VAT treatment wire codes.
const (
	vatNotIncluded = 0
	vatIncluded    = 1
	vatExempt      = -1
)

// normalizeVATType converts the VAT treatment flag to its wire code.
// Numeric values pass through untouched.
func normalizeVATType(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case "not_included", "not-included":
		return vatNotIncluded
	case "included":
		return vatIncluded
	case "exempt":
		return vatExempt
	default:
		return v
	}
}

// presentValue reports whether an input field carries a value the wire body
// should include. Blank strings and nils are "absent": the remote API
// distinguishes an omitted key from an empty one, so optional fields the
// user left blank must not be sent at all. A zero number present in the
// inputs is a deliberately chosen value and is kept.
func presentValue(inputs map[string]interface{}, key string) (interface{}, bool) {
	value, ok := inputs[key]
	if !ok || value == nil {
		return nil, false
	}
	if s, ok := value.(string); ok && s == "" {
		return nil, false
	}
	return value, true
}

// copyPresent copies each listed field from inputs into body, applying the
// omit-when-empty rule.
func copyPresent(inputs, body map[string]interface{}, fields ...string) {
	for _, field := range fields {
		if value, ok := presentValue(inputs, field); ok {
			body[field] = value
		}
	}
}

// boolToInt converts a boolean input to the 1/0 integer some endpoints
// expect. Kept per-field at call sites; the remote API's expectations are
// not uniform across endpoints.
func boolToInt(v interface{}) (int, error) {
	switch b := v.(type) {
	case bool:
		if b {
			return 1, nil
		}
		return 0, nil
	case float64:
		return int(b), nil
	case int:
		return b, nil
	default:
		return 0, fmt.Errorf("expected boolean, got %T", v)
	}
}
