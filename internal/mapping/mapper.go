// Package mapping implements the third pipeline stage: resolving extracted
// document data to ledger accounts and assembling a balanced voucher
// proposal.
//
// Account resolution is a deterministic priority chain (known supplier,
// then chart keywords, then a constrained collaborator fallback), not a
// weighted vote. Everything downstream of a resolution failure degrades:
// the mapper always returns a fully-formed LedgerMapping, flagged for
// review when anything went sideways.
package mapping

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/internal/refdata"
	"github.com/svedin/kontera/pkg/models"
)

// Mapper turns normalized extracted data into a ledger mapping proposal.
type Mapper interface {
	Map(ctx context.Context, docType models.DocumentType, data *models.ExtractedData) (*models.LedgerMapping, error)
}

// RuleMapper implements Mapper over the static reference tables, with the
// collaborator as the account-suggestion fallback of last resort.
type RuleMapper struct {
	tables *refdata.Tables
	client llm.Client // nil disables the collaborator fallback
	log    zerolog.Logger
}

// NewRuleMapper creates a mapper over the given tables. client may be nil,
// in which case the suggestion chain ends at the static default account.
func NewRuleMapper(tables *refdata.Tables, client llm.Client) *RuleMapper {
	return &RuleMapper{
		tables: tables,
		client: client,
		log:    logger.WithComponent("mapper"),
	}
}

// Map runs the full mapping sequence: voucher type derivation, cost-center
// inference, per-line account suggestion, voucher construction, balance
// check, and confidence aggregation. It never fails outright; data-quality
// problems surface as warnings and the review flag.
func (m *RuleMapper) Map(ctx context.Context, docType models.DocumentType, data *models.ExtractedData) (*models.LedgerMapping, error) {
	voucherType := DeriveVoucherType(docType)
	costCenter := m.inferCostCenter(docType, data)
	supplier, supplierKnown := m.tables.LookupSupplier(data.SupplierName)

	lineMappings, synthetic := m.suggestLineAccounts(ctx, docType, data, supplier, costCenter)

	mapping := &models.LedgerMapping{
		DocumentType:     docType,
		VoucherType:      voucherType,
		VoucherDate:      voucherDate(data),
		VoucherText:      voucherText(data),
		LineItemMappings: lineMappings,
		CostCenter:       costCenter,
	}

	m.buildVoucherLines(mapping, data)
	m.checkBalance(mapping)

	mapping.OverallConfidence = m.overallConfidence(data, lineMappings, synthetic, supplierKnown)
	mapping.RequiresReview = requiresReview(data, lineMappings, mapping.Warnings)

	m.log.Info().
		Str("document_type", string(docType)).
		Str("voucher_type", string(voucherType)).
		Str("cost_center", costCenter).
		Int("voucher_lines", len(mapping.VoucherLines)).
		Float64("confidence", mapping.OverallConfidence).
		Bool("requires_review", mapping.RequiresReview).
		Strs("warnings", mapping.Warnings).
		Msg("Ledger mapping assembled")

	return mapping, nil
}

// DeriveVoucherType maps a document type to its bookkeeping category.
func DeriveVoucherType(docType models.DocumentType) models.VoucherType {
	switch docType {
	case models.DocTypeInvoice, models.DocTypeCreditNote:
		return models.VoucherSupplierInvoice
	case models.DocTypeReceipt:
		return models.VoucherReceipt
	case models.DocTypeBankStatement:
		return models.VoucherBank
	default:
		return models.VoucherJournal
	}
}

func voucherDate(data *models.ExtractedData) string {
	if data.DocumentDate != "" {
		return data.DocumentDate
	}
	// ParseDate's total fallback is today; an empty extracted date gets
	// the same treatment so the voucher always carries a date.
	return parseToday()
}

func voucherText(data *models.ExtractedData) string {
	text := data.SupplierName
	if data.DocumentNumber != "" {
		text += " " + data.DocumentNumber
	}
	return text
}
