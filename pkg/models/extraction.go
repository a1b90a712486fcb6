package models

// ExtractedLineItem is one billed row from the document. The order of line
// items is presentation order only and carries no accounting meaning.
type ExtractedLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	NetAmount   float64 `json:"net_amount"`
	VATRate     float64 `json:"vat_rate,omitempty"`   // percent, e.g. 25 or 12
	VATAmount   float64 `json:"vat_amount,omitempty"`
}

// ExtractedData is the normalized second-stage result. All monetary values
// are major-unit floats in Currency; Currency is always a valid 3-letter
// ISO 4217 code, never a symbol.
type ExtractedData struct {
	// Supplier identity
	SupplierName    string `json:"supplier_name"`
	SupplierOrgNo   string `json:"supplier_org_no,omitempty"`
	SupplierCountry string `json:"supplier_country,omitempty"`
	SupplierVATID   string `json:"supplier_vat_id,omitempty"`

	// Document identity
	DocumentNumber string `json:"document_number,omitempty"`
	DocumentDate   string `json:"document_date,omitempty"` // YYYY-MM-DD
	Currency       string `json:"currency"`

	// Monetary totals
	TotalAmount float64 `json:"total_amount"`
	NetAmount   float64 `json:"net_amount,omitempty"`
	VATAmount   float64 `json:"vat_amount,omitempty"`

	// Payment metadata
	DueDate          string `json:"due_date,omitempty"` // YYYY-MM-DD
	PaymentReference string `json:"payment_reference,omitempty"`
	Bankgiro         string `json:"bankgiro,omitempty"`
	Plusgiro         string `json:"plusgiro,omitempty"`
	IBAN             string `json:"iban,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"` // CARD, CASH, ...

	LineItems []ExtractedLineItem `json:"line_items,omitempty"`

	// Metadata
	RawTextSummary       string  `json:"raw_text_summary,omitempty"`
	ExtractionConfidence float64 `json:"extraction_confidence"` // 0..1
}

// HasSupplier reports whether a usable supplier name was extracted.
// "unknown" is the documented placeholder for a failed extraction.
func (d *ExtractedData) HasSupplier() bool {
	return d.SupplierName != "" && d.SupplierName != "unknown"
}
