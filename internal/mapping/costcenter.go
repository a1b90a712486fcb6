package mapping

import (
	"strings"

	"github.com/svedin/kontera/pkg/models"
)

// Cost centers the inference chain can assign.
const (
	CostCenterRepresentation = "REP"
	CostCenterAdministration = "ADM"
)

// representationThreshold is how many distinct keyword categories (meal,
// beverage, venue) must appear before a receipt reads as representation.
const representationThreshold = 2

// inferCostCenter runs the document-level cost-center chain: known
// supplier hint, then the receipt keyword heuristic, then the type
// default. An empty result means the document needs human classification.
func (m *RuleMapper) inferCostCenter(docType models.DocumentType, data *models.ExtractedData) string {
	if supplier, ok := m.tables.LookupSupplier(data.SupplierName); ok && supplier.CostCenter != "" {
		return supplier.CostCenter
	}

	if docType == models.DocTypeReceipt {
		if hits := m.tables.KeywordCategoryHits(receiptText(data)); hits >= representationThreshold {
			m.log.Debug().
				Int("keyword_category_hits", hits).
				Msg("Receipt keyword heuristic assigned representation cost center")
			return CostCenterRepresentation
		}
	}

	switch docType {
	case models.DocTypeInvoice, models.DocTypeCreditNote:
		return CostCenterAdministration
	}

	return ""
}

// receiptText collects every text fragment the keyword heuristic scans:
// supplier name, line item descriptions, and the raw text summary.
func receiptText(data *models.ExtractedData) string {
	var b strings.Builder
	b.WriteString(data.SupplierName)
	for _, item := range data.LineItems {
		b.WriteString(" ")
		b.WriteString(item.Description)
	}
	b.WriteString(" ")
	b.WriteString(data.RawTextSummary)
	return b.String()
}
