package mapping

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/svedin/kontera/internal/refdata"
	"github.com/svedin/kontera/pkg/models"
)

// balanceTolerance absorbs float rounding when comparing the two sides of
// a voucher.
const balanceTolerance = 0.01

// buildVoucherLines assembles the debit/credit lines for the mapping,
// branching on voucher type. Supplier invoices credit accounts payable;
// receipts credit the payment account; other types emit best-effort cost
// lines and are flagged, since balancing is undefined for them.
func (m *RuleMapper) buildVoucherLines(mapping *models.LedgerMapping, data *models.ExtractedData) {
	switch mapping.VoucherType {
	case models.VoucherSupplierInvoice:
		m.appendCostLines(mapping, data)
		m.appendCreditLine(mapping, data, refdata.AccountPayables)
		mapping.SupplierInvoice = &models.SupplierInvoice{
			SupplierName:     data.SupplierName,
			InvoiceNumber:    data.DocumentNumber,
			InvoiceDate:      data.DocumentDate,
			DueDate:          data.DueDate,
			Total:            round2(data.TotalAmount),
			Currency:         data.Currency,
			PaymentReference: data.PaymentReference,
			Bankgiro:         data.Bankgiro,
		}

	case models.VoucherReceipt:
		m.appendCostLines(mapping, data)
		m.appendCreditLine(mapping, data, paymentAccount(data))

	default:
		m.appendCostLines(mapping, data)
		mapping.Warnings = append(mapping.Warnings, fmt.Sprintf(
			"voucher balancing is not defined for document type %s; lines are best-effort",
			mapping.DocumentType))
	}
}

// appendCostLines emits one debit line per mapped line item plus the
// input-VAT debit when the document carries VAT.
func (m *RuleMapper) appendCostLines(mapping *models.LedgerMapping, data *models.ExtractedData) {
	for _, lm := range mapping.LineItemMappings {
		amount := round2(lm.LineItem.NetAmount)
		if amount <= 0 {
			continue
		}
		mapping.VoucherLines = append(mapping.VoucherLines, models.VoucherLine{
			Account:     lm.Suggestion.Account,
			AccountName: lm.Suggestion.AccountName,
			Debit:       amount,
			Description: lm.LineItem.Description,
			CostCenter:  lm.CostCenter,
		})
	}

	if vat := round2(data.VATAmount); vat > 0 {
		name := "Ingående moms"
		if account, ok := m.tables.Account(refdata.AccountInputVAT); ok {
			name = account.Name
		}
		mapping.VoucherLines = append(mapping.VoucherLines, models.VoucherLine{
			Account:     refdata.AccountInputVAT,
			AccountName: name,
			Debit:       vat,
			Description: "Moms " + mapping.VoucherText,
		})
	}
}

func (m *RuleMapper) appendCreditLine(mapping *models.LedgerMapping, data *models.ExtractedData, account string) {
	total := round2(data.TotalAmount)
	if total <= 0 {
		return
	}
	name := account
	if a, ok := m.tables.Account(account); ok {
		name = a.Name
	}
	mapping.VoucherLines = append(mapping.VoucherLines, models.VoucherLine{
		Account:     account,
		AccountName: name,
		Credit:      total,
		Description: mapping.VoucherText,
	})
}

// paymentAccount picks the receipt counter-account from the extracted
// payment method: cash to the cash account, everything else to the bank
// account the card settles against.
func paymentAccount(data *models.ExtractedData) string {
	if strings.EqualFold(strings.TrimSpace(data.PaymentMethod), "CASH") ||
		strings.EqualFold(strings.TrimSpace(data.PaymentMethod), "KONTANT") {
		return refdata.AccountCash
	}
	return refdata.AccountBank
}

// checkBalance verifies the double-entry invariant. A violation appends
// exactly one warning naming both sums; the mapping is still returned.
func (m *RuleMapper) checkBalance(mapping *models.LedgerMapping) {
	debits := mapping.DebitTotal()
	credits := mapping.CreditTotal()
	if math.Abs(debits-credits) <= balanceTolerance {
		return
	}
	warning := fmt.Sprintf("voucher does not balance: debits %.2f, credits %.2f", debits, credits)
	mapping.Warnings = append(mapping.Warnings, warning)
	m.log.Warn().
		Float64("debits", debits).
		Float64("credits", credits).
		Msg("Voucher balance invariant violated")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseToday() string {
	return time.Now().Format("2006-01-02")
}
