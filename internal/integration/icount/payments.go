package icount

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tombee/icount-connector/internal/operation"
)

// Payment kinds accepted in document payment unions.
const (
	PaymentCash         = "cash"
	PaymentCreditCard   = "credit_card"
	PaymentCheque       = "cheque"
	PaymentBankTransfer = "bank_transfer"
)

// Credit card field defaults applied when the user leaves an optional card
// field blank. The remote API requires every cc key to be present.
var creditCardDefaults = map[string]interface{}{
	"num_of_payments":   1,
	"first_payment":     0,
	"card_type":         "OTHER",
	"card_number":       "",
	"exp_year":          0,
	"exp_month":         0,
	"holder_id":         "",
	"holder_name":       "",
	"confirmation_code": "",
}

// applyPayments translates the payment union of a document-create input into
// the nested wire shapes the doc endpoints expect:
//
//	cash          -> body.cash = {sum}
//	credit card   -> body.cc = {sum, date, num_of_payments, ...} with defaults
//	cheque        -> appended to body.cheques (sum stringified)
//	bank transfer -> body.banktransfer = {sum, date, account}
//
// Multiple cheques accumulate in the same list. Cash, credit card, and bank
// transfer are last-write-wins; the API expects at most one of each per
// document.
func applyPayments(raw interface{}, body map[string]interface{}) error {
	payments, err := decodeObjectList(raw, "payments")
	if err != nil {
		return err
	}

	for i, payment := range payments {
		kind, _ := payment["type"].(string)
		switch kind {
		case PaymentCash:
			sum, err := paymentSum(payment)
			if err != nil {
				return fmt.Errorf("payment %d: %w", i, err)
			}
			body["cash"] = map[string]interface{}{
				"sum": sum.InexactFloat64(),
			}

		case PaymentCreditCard:
			sum, err := paymentSum(payment)
			if err != nil {
				return fmt.Errorf("payment %d: %w", i, err)
			}
			cc := map[string]interface{}{
				"sum": sum.InexactFloat64(),
			}
			if date, ok := presentValue(payment, "date"); ok {
				cc["date"] = date
			}
			for field, fallback := range creditCardDefaults {
				if value, ok := presentValue(payment, field); ok {
					cc[field] = value
				} else {
					cc[field] = fallback
				}
			}
			body["cc"] = cc

		case PaymentCheque:
			sum, err := paymentSum(payment)
			if err != nil {
				return fmt.Errorf("payment %d: %w", i, err)
			}
			cheque := map[string]interface{}{
				"sum": sum.String(),
			}
			copyPresent(payment, cheque, "bank", "branch", "account", "date")
			if number, ok := presentValue(payment, "cheque_number"); ok {
				cheque["number"] = number
			}
			cheques, _ := body["cheques"].([]map[string]interface{})
			body["cheques"] = append(cheques, cheque)

		case PaymentBankTransfer:
			sum, err := paymentSum(payment)
			if err != nil {
				return fmt.Errorf("payment %d: %w", i, err)
			}
			bt := map[string]interface{}{
				"sum": sum.InexactFloat64(),
			}
			copyPresent(payment, bt, "date", "account")
			body["banktransfer"] = bt

		default:
			return fmt.Errorf("payment %d: unknown payment type %q", i, kind)
		}
	}

	return nil
}

// paymentSum extracts the amount of one payment. Both amount and sum
// spellings are accepted; strings are parsed as decimals.
func paymentSum(payment map[string]interface{}) (decimal.Decimal, error) {
	raw, ok := presentValue(payment, "amount")
	if !ok {
		raw, ok = presentValue(payment, "sum")
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("missing payment amount")
	}

	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid payment amount %q", v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid payment amount type %T", raw)
	}
}

// decodeObjectList accepts a user-supplied collection that may arrive either
// as structured data or as free-text JSON. Malformed JSON fails locally,
// before any network call.
func decodeObjectList(raw interface{}, field string) ([]map[string]interface{}, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []map[string]interface{}:
		return v, nil
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for i, el := range v {
			m, ok := el.(map[string]interface{})
			if !ok {
				return nil, operation.NewValidationError(
					fmt.Sprintf("%s[%d] is not an object", field, i), nil)
			}
			out = append(out, m)
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var parsed []map[string]interface{}
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, operation.NewValidationError(
				fmt.Sprintf("%s is not valid JSON", field), err)
		}
		return parsed, nil
	default:
		return nil, operation.NewValidationError(
			fmt.Sprintf("%s must be a JSON array", field), nil)
	}
}
