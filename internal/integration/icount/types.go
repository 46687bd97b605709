package icount

// Document type codes accepted by the doc endpoints. A document is
// identified either by its (doctype, docnum) pair or by an opaque doc_id
// UUID assigned at creation.
const (
	DocTypeInvoice        = "invoice"
	DocTypeInvoiceReceipt = "invrec"
	DocTypeReceipt        = "receipt"
	DocTypeCreditNote     = "refund"
	DocTypeQuote          = "offer"
	DocTypeOrder          = "order"
	DocTypeDeliveryNote   = "delcer"
)

// docTypeOptions lists the document type codes in form-field order.
var docTypeOptions = []string{
	DocTypeInvoice,
	DocTypeInvoiceReceipt,
	DocTypeReceipt,
	DocTypeCreditNote,
	DocTypeQuote,
	DocTypeOrder,
	DocTypeDeliveryNote,
}

// Document status codes as reported by doc/info and doc/search.
const (
	DocStatusOpen            = 0
	DocStatusClosed          = 1
	DocStatusPartiallyClosed = 2
)

// Contact role types accepted by the client contact endpoints.
var contactTypes = []string{
	"primary",
	"billing",
	"shipping",
	"administrative",
	"technical",
	"employee",
	"accountant",
	"lawyer",
	"service_provider",
	"supplier",
}

// Customer lookup keys supported by the upsert flow.
const (
	LookupByHP    = "hp"
	LookupByEmail = "email"
)
