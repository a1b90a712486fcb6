package extract

import (
	"fmt"
	"strings"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/pkg/models"
)

// extractFieldSchema is the JSON shape every template requests. Money
// fields are requested as strings in the document's own formatting; the
// normalizers handle the locale, not the collaborator.
const extractFieldSchema = `{
  "supplier_name": "legal or trading name of the issuing party",
  "supplier_org_no": "Swedish organisationsnummer if visible",
  "supplier_country": "ISO country code if determinable",
  "supplier_vat_id": "VAT registration number if visible",
  "document_number": "invoice/receipt number exactly as printed, or omit",
  "document_date": "date as printed, any format",
  "currency": "currency code or word as printed",
  "detected_currency_symbol": "currency symbol seen next to amounts, e.g. kr, €, $",
  "total_amount": "grand total as printed, keep separators",
  "net_amount": "total excluding VAT as printed",
  "vat_amount": "total VAT as printed",
  "due_date": "payment due date as printed",
  "payment_reference": "OCR/KID payment reference",
  "bankgiro": "bankgiro number",
  "plusgiro": "plusgiro number",
  "iban": "IBAN",
  "payment_method": "CARD or CASH if determinable",
  "line_items": [
    {"description": "...", "quantity": "...", "unit_price": "...",
     "net_amount": "...", "vat_rate": "...", "vat_amount": "..."}
  ],
  "raw_text_summary": "2-3 sentences describing what was bought",
  "extraction_confidence": 0.0
}`

// typeGuidance holds the template variation per document type.
var typeGuidance = map[models.DocumentType]string{
	models.DocTypeInvoice: `This is a supplier INVOICE. Focus on the invoice number, due date,
bankgiro/plusgiro and OCR reference. Line items are the billed rows above the total.
"Att betala" is the total; moms is the VAT.`,
	models.DocTypeReceipt: `This is a RECEIPT (kvitto). There is usually no due date or payment
reference. Record the register rows as line items. Note whether payment was by card or
cash ("kort"/"kontant") in payment_method. VAT often appears as a moms split at the bottom.`,
	models.DocTypeCreditNote: `This is a CREDIT NOTE (kreditfaktura). Amounts may be printed as
negative; report them exactly as printed. Reference the original invoice number in
payment_reference if visible.`,
	models.DocTypeBankStatement: `This is a BANK STATEMENT (kontoutdrag). Use the account holder's
bank as supplier_name. Report each transaction row as a line item with its amount and
text. The closing balance is NOT a total; leave total_amount empty.`,
	models.DocTypeSalarySlip: `This is a SALARY SLIP (lönespecifikation). Use the employer as
supplier_name, gross salary as net_amount, tax deduction as vat_amount and net pay as
total_amount so the downstream journal can post them separately.`,
	models.DocTypeOther: `The document type is unknown. Extract whatever identity, date and
amount fields are recognizable; omit what is not there.`,
}

func buildExtractSystemPrompt(docType models.DocumentType, baseCurrency, companyName string, companyAliases []string) string {
	guidance, ok := typeGuidance[docType]
	if !ok {
		guidance = typeGuidance[models.DocTypeOther]
	}

	var b strings.Builder
	b.WriteString("You extract structured data from scanned financial documents for a Swedish bookkeeping pipeline.\n\n")
	b.WriteString(guidance)
	if companyName != "" {
		fmt.Fprintf(&b, "\n\nCompany context:\n- Our company: %s\n", companyName)
		if len(companyAliases) > 0 {
			fmt.Fprintf(&b, "- Our aliases: %s\n", strings.Join(companyAliases, ", "))
		}
		b.WriteString("- Documents are addressed TO this company. It is the buyer, never the supplier_name.\n")
	}
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Copy amounts EXACTLY as printed, including spaces, dots and commas. Do not reformat numbers.\n")
	b.WriteString("- Copy dates exactly as printed. Do not convert formats.\n")
	fmt.Fprintf(&b, "- If no currency is visible anywhere, leave currency empty (the pipeline assumes %s).\n", baseCurrency)
	b.WriteString("- Omit any field you cannot read. Never invent values, never output null.\n")
	b.WriteString("- extraction_confidence is your own 0-1 estimate of how reliably you read this document.\n")
	b.WriteString("\nReturn ONLY one JSON object with this shape:\n")
	b.WriteString(extractFieldSchema)
	return b.String()
}

func buildExtractUserPrompt(in classify.Input) string {
	var b strings.Builder
	if len(in.Document) > 0 {
		b.WriteString("Extract the fields from the attached document image.\n")
	}
	if text := strings.TrimSpace(in.Text); text != "" {
		b.WriteString("Document text:\n")
		if len(text) > 6000 {
			b.WriteString(text[:6000])
			b.WriteString("\n…(truncated)")
		} else {
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		b.WriteString("No document content was provided.")
	}
	return b.String()
}
