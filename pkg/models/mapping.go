package models

// VoucherType is the bookkeeping category a document maps to.
type VoucherType string

const (
	VoucherSupplierInvoice VoucherType = "SUPPLIER_INVOICE"
	VoucherReceipt         VoucherType = "RECEIPT"
	VoucherBank            VoucherType = "BANK"
	VoucherJournal         VoucherType = "JOURNAL"
)

// AccountSuggestion is one proposed ledger account for a line item or for
// the document as a whole.
type AccountSuggestion struct {
	Account     string  `json:"account"` // 4-digit BAS code
	AccountName string  `json:"account_name"`
	Confidence  float64 `json:"confidence"` // 0..1
	Reasoning   string  `json:"reasoning"`
}

// VoucherLine is one side of a double-entry posting. Exactly one of Debit
// and Credit is non-zero; the other is exactly 0.
type VoucherLine struct {
	Account     string  `json:"account"`
	AccountName string  `json:"account_name"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description"`
	CostCenter  string  `json:"cost_center,omitempty"`
}

// LineItemMapping ties an extracted line item to its chosen account, the
// alternatives a reviewer may swap in, and an optional cost center.
type LineItemMapping struct {
	LineItem     ExtractedLineItem   `json:"line_item"`
	Suggestion   AccountSuggestion   `json:"suggestion"`
	Alternatives []AccountSuggestion `json:"alternatives,omitempty"`
	CostCenter   string              `json:"cost_center,omitempty"`
}

// SupplierInvoice is the payable-ledger record emitted alongside the voucher
// for invoice-type documents.
type SupplierInvoice struct {
	SupplierName     string  `json:"supplier_name"`
	InvoiceNumber    string  `json:"invoice_number,omitempty"`
	InvoiceDate      string  `json:"invoice_date,omitempty"`
	DueDate          string  `json:"due_date,omitempty"`
	Total            float64 `json:"total"`
	Currency         string  `json:"currency"`
	PaymentReference string  `json:"payment_reference,omitempty"`
	Bankgiro         string  `json:"bankgiro,omitempty"`
}

// LedgerMapping is the pipeline's final output: a balanced (or flagged)
// voucher proposal plus everything a reviewer needs to accept or fix it.
type LedgerMapping struct {
	DocumentType      DocumentType      `json:"document_type"`
	VoucherType       VoucherType       `json:"voucher_type"`
	VoucherDate       string            `json:"voucher_date"` // YYYY-MM-DD
	VoucherText       string            `json:"voucher_text"`
	VoucherLines      []VoucherLine     `json:"voucher_lines"`
	SupplierInvoice   *SupplierInvoice  `json:"supplier_invoice,omitempty"`
	LineItemMappings  []LineItemMapping `json:"line_item_mappings,omitempty"`
	CostCenter        string            `json:"cost_center,omitempty"`
	OverallConfidence float64           `json:"overall_confidence"` // 0..1
	Warnings          []string          `json:"warnings,omitempty"`
	RequiresReview    bool              `json:"requires_review"`
}

// DebitTotal sums the debit side of the voucher.
func (m *LedgerMapping) DebitTotal() float64 {
	var sum float64
	for _, l := range m.VoucherLines {
		sum += l.Debit
	}
	return sum
}

// CreditTotal sums the credit side of the voucher.
func (m *LedgerMapping) CreditTotal() float64 {
	var sum float64
	for _, l := range m.VoucherLines {
		sum += l.Credit
	}
	return sum
}
