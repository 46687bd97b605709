package icount

import (
	"fmt"

	"github.com/tombee/icount-connector/internal/operation/api"
)

// Operations returns the list of available operations.
func (c *ICountIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		// Documents
		{Name: "document_create", Description: "Create a billing document", Category: "documents", Tags: []string{"write"}},
		{Name: "document_update", Description: "Update an existing document", Category: "documents", Tags: []string{"write"}},
		{Name: "document_cancel", Description: "Cancel a document", Category: "documents", Tags: []string{"write", "destructive"}},
		{Name: "document_close", Description: "Mark a document closed", Category: "documents", Tags: []string{"write"}},
		{Name: "document_get", Description: "Get document details", Category: "documents", Tags: []string{"read"}},
		{Name: "document_search", Description: "Search documents by criteria", Category: "documents", Tags: []string{"read", "paginated"}},
		{Name: "document_list", Description: "List documents of one type", Category: "documents", Tags: []string{"read", "paginated"}},
		{Name: "document_convert", Description: "Convert a document to another type", Category: "documents", Tags: []string{"write"}},
		{Name: "document_get_url", Description: "Get a document's rendered PDF link", Category: "documents", Tags: []string{"read"}},
		{Name: "document_conversion_options", Description: "List conversion targets for a document", Category: "documents", Tags: []string{"read"}},
		{Name: "document_update_income_type", Description: "Change a document's income type", Category: "documents", Tags: []string{"write"}},
		{Name: "document_types", Description: "List available document types", Category: "documents", Tags: []string{"read"}},

		// Customers
		{Name: "customer_create", Description: "Create a customer", Category: "customers", Tags: []string{"write"}},
		{Name: "customer_update", Description: "Update a customer", Category: "customers", Tags: []string{"write"}},
		{Name: "customer_delete", Description: "Delete a customer", Category: "customers", Tags: []string{"write", "destructive"}},
		{Name: "customer_get", Description: "Get customer details", Category: "customers", Tags: []string{"read"}},
		{Name: "customer_search", Description: "Search customers by criteria", Category: "customers", Tags: []string{"read"}},
		{Name: "customer_find", Description: "Find a customer by HP number or email", Category: "customers", Tags: []string{"read"}},
		{Name: "customer_upsert", Description: "Create a customer, or update it when the lookup key matches", Category: "customers", Tags: []string{"write"}},
		{Name: "customer_open_docs", Description: "List a customer's open documents", Category: "customers", Tags: []string{"read"}},
		{Name: "customer_types", Description: "List configured client types", Category: "customers", Tags: []string{"read"}},
		{Name: "customer_contact_types", Description: "List contact role types", Category: "customers", Tags: []string{"read"}},

		// Contacts
		{Name: "contact_add", Description: "Add a contact to a customer", Category: "contacts", Tags: []string{"write"}},
		{Name: "contact_list", Description: "List a customer's contacts", Category: "contacts", Tags: []string{"read"}},
		{Name: "contact_update", Description: "Update a customer contact", Category: "contacts", Tags: []string{"write"}},
		{Name: "contact_delete", Description: "Delete a customer contact", Category: "contacts", Tags: []string{"write", "destructive"}},

		// Reference lists
		{Name: "bank_list", Description: "List Israeli bank codes", Category: "reference", Tags: []string{"read"}},
		{Name: "user_list", Description: "List account users", Category: "reference", Tags: []string{"read"}},
	}
}

// Shared parameter fragments. Most operations identify their subject the
// same way, so the schemas are assembled from these instead of repeating
// each field per operation.
var (
	docRefParams = []api.ParameterInfo{
		{Name: "doc_id", Type: "string", Description: "Opaque document UUID; takes precedence over doctype+docnum"},
		{Name: "doctype", Type: "string", Description: "Document type code", Options: docTypeOptions},
		{Name: "docnum", Type: "integer", Description: "Document number within its type"},
	}

	clientIDParam = api.ParameterInfo{
		Name: "client_id", Type: "string", Description: "Customer identifier", Required: true,
	}

	customerFieldParams = []api.ParameterInfo{
		{Name: "name", Type: "string", Description: "Customer name"},
		{Name: "id_number", Type: "string", Description: "HP/company registration number; also fills vat_id unless one is given"},
		{Name: "vat_id", Type: "string", Description: "VAT identifier; overrides the id_number-derived value"},
		{Name: "email", Type: "string", Description: "Email address"},
		{Name: "phone", Type: "string", Description: "Phone number"},
		{Name: "mobile", Type: "string", Description: "Mobile number"},
		{Name: "fax", Type: "string", Description: "Fax number"},
		{Name: "address", Type: "string", Description: "Business street address"},
		{Name: "city", Type: "string", Description: "Business city"},
		{Name: "zip", Type: "string", Description: "Business postal code"},
		{Name: "home_address", Type: "string", Description: "Home street address"},
		{Name: "home_city", Type: "string", Description: "Home city"},
		{Name: "home_zip", Type: "string", Description: "Home postal code"},
		{Name: "bank", Type: "string", Description: "Bank code"},
		{Name: "branch", Type: "string", Description: "Bank branch"},
		{Name: "account", Type: "string", Description: "Bank account number"},
		{Name: "notes", Type: "string", Description: "Free-text notes"},
		{Name: "employee_id", Type: "string", Description: "Assigned employee"},
		{Name: "client_type_id", Type: "string", Description: "Client type"},
		{Name: "payment_terms", Type: "integer", Description: "Payment terms in days"},
		{Name: "discount", Type: "number", Description: "Default discount percentage"},
	}

	documentBodyParams = []api.ParameterInfo{
		{Name: "doc_date", Type: "string", Description: "Issue date (YYYY-MM-DD)"},
		{Name: "due_date", Type: "string", Description: "Due date (YYYY-MM-DD)"},
		{Name: "currency_code", Type: "string", Description: "ISO currency code"},
		{Name: "lang", Type: "string", Description: "Document language", Options: []string{"he", "en"}},
		{Name: "notes", Type: "string", Description: "Free-text notes"},
		{Name: "income_type_id", Type: "string", Description: "Income type"},
		{Name: "discount", Type: "number", Description: "Document-level discount percentage"},
		{Name: "rounding", Type: "boolean", Description: "Round the document total"},
		{Name: "items", Type: "array", Description: "Line items (description, quantity, unit_price, vat_type, discount, sku, unit); also accepts a JSON string"},
		{Name: "payments", Type: "array", Description: "Payments (tagged by type: cash, credit_card, cheque, bank_transfer); also accepts a JSON string"},
	}

	contactFieldParams = []api.ParameterInfo{
		{Name: "contact_type", Type: "string", Description: "Contact role", Options: contactTypes},
		{Name: "name", Type: "string", Description: "Contact name"},
		{Name: "first_name", Type: "string", Description: "First name"},
		{Name: "last_name", Type: "string", Description: "Last name"},
		{Name: "email", Type: "string", Description: "Email address"},
		{Name: "phone", Type: "string", Description: "Phone number"},
		{Name: "mobile", Type: "string", Description: "Mobile number"},
		{Name: "fax", Type: "string", Description: "Fax number"},
		{Name: "notes", Type: "string", Description: "Free-text notes"},
	}

	searchFilterParams = []api.ParameterInfo{
		{Name: "doctype", Type: "string", Description: "Restrict to one document type", Options: docTypeOptions},
		{Name: "client_id", Type: "string", Description: "Restrict to one customer"},
		{Name: "client_name", Type: "string", Description: "Customer name filter"},
		{Name: "docnum", Type: "integer", Description: "Exact document number"},
		{Name: "from_date", Type: "string", Description: "Earliest issue date"},
		{Name: "to_date", Type: "string", Description: "Latest issue date"},
		{Name: "from_sum", Type: "number", Description: "Minimum total"},
		{Name: "to_sum", Type: "number", Description: "Maximum total"},
		{Name: "status", Type: "integer", Description: fmt.Sprintf("Document status (%d open, %d closed, %d partially closed)", DocStatusOpen, DocStatusClosed, DocStatusPartiallyClosed)},
		{Name: "income_type_id", Type: "string", Description: "Income type filter"},
		{Name: "currency_code", Type: "string", Description: "Currency filter"},
		{Name: "email", Type: "string", Description: "Customer email filter"},
	}
)

func requireFirst(params []api.ParameterInfo, names ...string) []api.ParameterInfo {
	required := make(map[string]bool, len(names))
	for _, name := range names {
		required[name] = true
	}
	out := make([]api.ParameterInfo, len(params))
	for i, p := range params {
		p.Required = required[p.Name]
		out[i] = p
	}
	return out
}

func join(groups ...[]api.ParameterInfo) []api.ParameterInfo {
	var out []api.ParameterInfo
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// OperationSchema returns the schema for an operation. Returns nil for
// unknown operation names.
func (c *ICountIntegration) OperationSchema(operation string) *api.OperationSchema {
	switch operation {
	case "document_create":
		return &api.OperationSchema{
			Description: "Create a billing document",
			Parameters: join(
				[]api.ParameterInfo{
					{Name: "doctype", Type: "string", Description: "Document type code", Required: true, Options: docTypeOptions},
					{Name: "client_id", Type: "string", Description: "Existing customer; inline customer fields are used when absent"},
				},
				customerFieldParams,
				documentBodyParams,
				[]api.ParameterInfo{
					{Name: "based_on", Type: "array", Description: "Source documents this one is based on"},
				},
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "doc_id", Type: "string", Description: "Created document UUID"},
				{Name: "doctype", Type: "string", Description: "Document type"},
				{Name: "docnum", Type: "integer", Description: "Assigned document number"},
			},
		}
	case "document_update":
		return &api.OperationSchema{
			Description: "Update an existing document",
			Parameters: join(
				requireFirst(docRefParams, "doctype", "docnum"),
				documentBodyParams,
			),
			ResponseFields: successResponse("doctype", "docnum"),
		}
	case "document_cancel":
		return &api.OperationSchema{
			Description: "Cancel a document",
			Parameters: []api.ParameterInfo{
				{Name: "doctype", Type: "string", Description: "Document type code", Required: true, Options: docTypeOptions},
				{Name: "docnum", Type: "integer", Description: "Document number", Required: true},
				{Name: "reason", Type: "string", Description: "Cancellation reason"},
				{Name: "refund_cc", Type: "boolean", Description: "Refund the credit card charge", Default: false},
			},
			ResponseFields: successResponse("doctype", "docnum"),
		}
	case "document_close":
		return &api.OperationSchema{
			Description:    "Mark a document closed",
			Parameters:     docRefParams,
			ResponseFields: successResponse("doctype", "docnum"),
		}
	case "document_get":
		return &api.OperationSchema{
			Description: "Get document details",
			Parameters:  docRefParams,
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "doc_id", Type: "string", Description: "Document UUID"},
				{Name: "status", Type: "integer", Description: "Document status"},
				{Name: "total", Type: "number", Description: "Total including VAT"},
			},
		}
	case "document_search":
		return &api.OperationSchema{
			Description: "Search documents by criteria",
			Parameters: join(
				searchFilterParams,
				[]api.ParameterInfo{
					{Name: "return_all", Type: "boolean", Description: "Fetch the maximum page size instead of max_results", Default: false},
					{Name: "max_results", Type: "integer", Description: "Result limit; ignored when return_all is set", Default: defaultSearchLimit},
				},
			),
		}
	case "document_list":
		return &api.OperationSchema{
			Description: "List documents of one type",
			Parameters: []api.ParameterInfo{
				{Name: "doctype", Type: "string", Description: "Document type code", Required: true, Options: docTypeOptions},
				{Name: "from_date", Type: "string", Description: "Earliest issue date"},
				{Name: "to_date", Type: "string", Description: "Latest issue date"},
				{Name: "detail_level", Type: "integer", Description: "Amount of detail per record"},
			},
		}
	case "document_convert":
		return &api.OperationSchema{
			Description: "Convert a document to another type",
			Parameters: join(
				requireFirst(docRefParams, "doctype", "docnum"),
				[]api.ParameterInfo{
					{Name: "target_doctype", Type: "string", Description: "Type to convert into", Required: true, Options: docTypeOptions},
				},
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "doc_id", Type: "string", Description: "New document UUID"},
				{Name: "doctype", Type: "string", Description: "New document type"},
				{Name: "docnum", Type: "integer", Description: "New document number"},
			},
		}
	case "document_get_url":
		return &api.OperationSchema{
			Description: "Get a document's rendered PDF link",
			Parameters: join(
				docRefParams,
				[]api.ParameterInfo{
					{Name: "attach_pdf", Type: "boolean", Description: "Download the PDF and attach it to the output record", Default: false},
					{Name: "attachment_name", Type: "string", Description: "Attachment file name", Default: "document.pdf"},
				},
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "doc_url", Type: "string", Description: "Signed document link"},
			},
		}
	case "document_conversion_options":
		return &api.OperationSchema{
			Description: "List conversion targets for a document",
			Parameters:  docRefParams,
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "options", Type: "array", Description: "Allowed target document types"},
			},
		}
	case "document_update_income_type":
		return &api.OperationSchema{
			Description: "Change a document's income type",
			Parameters: join(
				docRefParams,
				[]api.ParameterInfo{
					{Name: "income_type_id", Type: "string", Description: "New income type", Required: true},
				},
			),
			ResponseFields: successResponse("doctype", "docnum"),
		}
	case "document_types":
		return listSchema("List available document types", "types")

	case "customer_create":
		return &api.OperationSchema{
			Description: "Create a customer",
			Parameters:  requireFirst(customerFieldParams, "name"),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "action", Type: "string", Description: "Always \"created\""},
				{Name: "customer_id", Type: "string", Description: "New customer identifier"},
			},
		}
	case "customer_update":
		return &api.OperationSchema{
			Description: "Update a customer",
			Parameters: join(
				[]api.ParameterInfo{clientIDParam},
				customerFieldParams,
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "action", Type: "string", Description: "Always \"updated\""},
				{Name: "customer_id", Type: "string", Description: "Customer identifier"},
			},
		}
	case "customer_delete":
		return &api.OperationSchema{
			Description:    "Delete a customer",
			Parameters:     []api.ParameterInfo{clientIDParam},
			ResponseFields: successResponse("client_id"),
		}
	case "customer_get":
		return &api.OperationSchema{
			Description: "Get customer details",
			Parameters:  []api.ParameterInfo{clientIDParam},
		}
	case "customer_search":
		return &api.OperationSchema{
			Description: "Search customers by criteria",
			Parameters: []api.ParameterInfo{
				{Name: "client_name", Type: "string", Description: "Name filter"},
				{Name: "email", Type: "string", Description: "Email filter"},
				{Name: "phone", Type: "string", Description: "Phone filter"},
				{Name: "hp", Type: "string", Description: "HP number filter"},
				{Name: "vat_id", Type: "string", Description: "VAT identifier filter"},
				{Name: "client_type_id", Type: "string", Description: "Client type filter"},
				{Name: "max_results", Type: "integer", Description: "Result limit"},
			},
		}
	case "customer_find":
		return &api.OperationSchema{
			Description: "Find a customer by HP number or email",
			Parameters:  lookupParams(),
		}
	case "customer_upsert":
		return &api.OperationSchema{
			Description: "Create a customer, or update it when the lookup key matches",
			Parameters: join(
				lookupParams(),
				requireFirst(customerFieldParams, "name"),
				[]api.ParameterInfo{
					{Name: "create_on_lookup_failure", Type: "boolean", Description: "Treat a failed lookup call like a missing customer instead of an error", Default: false},
				},
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "action", Type: "string", Description: "\"created\" or \"updated\", naming the branch that ran"},
				{Name: "customer_id", Type: "string", Description: "Customer identifier"},
			},
		}
	case "customer_open_docs":
		return &api.OperationSchema{
			Description: "List a customer's open documents",
			Parameters:  []api.ParameterInfo{clientIDParam},
		}
	case "customer_types":
		return listSchema("List configured client types", "types")
	case "customer_contact_types":
		return listSchema("List contact role types", "contact_types")

	case "contact_add":
		return &api.OperationSchema{
			Description: "Add a contact to a customer",
			Parameters: join(
				[]api.ParameterInfo{clientIDParam},
				requireFirst(contactFieldParams, "name"),
			),
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "contact_id", Type: "string", Description: "New contact identifier"},
			},
		}
	case "contact_list":
		return &api.OperationSchema{
			Description: "List a customer's contacts",
			Parameters:  []api.ParameterInfo{clientIDParam},
		}
	case "contact_update":
		return &api.OperationSchema{
			Description: "Update a customer contact",
			Parameters: join(
				[]api.ParameterInfo{
					clientIDParam,
					{Name: "contact_id", Type: "string", Description: "Contact identifier", Required: true},
				},
				contactFieldParams,
			),
			ResponseFields: successResponse("client_id", "contact_id"),
		}
	case "contact_delete":
		return &api.OperationSchema{
			Description: "Delete a customer contact",
			Parameters: []api.ParameterInfo{
				clientIDParam,
				{Name: "contact_id", Type: "string", Description: "Contact identifier", Required: true},
			},
			ResponseFields: successResponse("client_id", "contact_id"),
		}

	case "bank_list":
		return listSchema("List Israeli bank codes", "banks")
	case "user_list":
		return listSchema("List account users", "users")

	default:
		return nil
	}
}

func lookupParams() []api.ParameterInfo {
	return []api.ParameterInfo{
		{Name: "lookup_by", Type: "string", Description: "Lookup key to match on", Options: []string{LookupByHP, LookupByEmail}},
		{Name: "id_number", Type: "string", Description: "HP number, when looking up by HP"},
		{Name: "email", Type: "string", Description: "Email address, when looking up by email"},
	}
}

func listSchema(description, field string) *api.OperationSchema {
	return &api.OperationSchema{
		Description: description,
		ResponseFields: []api.ResponseFieldInfo{
			{Name: field, Type: "array", Description: "Entries of the list"},
		},
	}
}

func successResponse(idFields ...string) []api.ResponseFieldInfo {
	fields := []api.ResponseFieldInfo{
		{Name: "success", Type: "boolean", Description: "True when the call succeeded"},
	}
	for _, name := range idFields {
		fields = append(fields, api.ResponseFieldInfo{
			Name: name, Type: "string", Description: "Identifier of the affected record",
		})
	}
	return fields
}
