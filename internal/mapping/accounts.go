package mapping

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/refdata"
	"github.com/svedin/kontera/pkg/models"
)

// Confidence tiers of the suggestion chain. The chain stops at the first
// hit; these are fixed per tier, not blended.
const (
	confKnownSupplier = 0.9
	confKeywordMatch  = 0.8
	confLLMFallback   = 0.75
	confStaticDefault = 0.6
	confAlternative   = 0.5
)

const maxAlternatives = 3

// suggestLineAccounts resolves an account suggestion for every line item.
// When the document has no line items but carries a positive total, one
// synthetic document-level line is created so the voucher still has a cost
// side; synthetic=true reports that case.
//
// Items resolve concurrently: each suggestion is a pure function of the
// line item plus static tables, and only the collaborator fallback does
// I/O. Results land in an indexed slice, so no locking is needed.
func (m *RuleMapper) suggestLineAccounts(
	ctx context.Context,
	docType models.DocumentType,
	data *models.ExtractedData,
	supplier *refdata.Supplier,
	costCenter string,
) ([]models.LineItemMapping, bool) {
	items := data.LineItems
	synthetic := false
	if len(items) == 0 && data.TotalAmount > 0 {
		synthetic = true
		items = []models.ExtractedLineItem{{
			Description: documentLevelDescription(data),
			NetAmount:   round2(data.TotalAmount - data.VATAmount),
			VATAmount:   data.VATAmount,
		}}
	}
	if len(items) == 0 {
		return nil, false
	}

	mappings := make([]models.LineItemMapping, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			suggestion := m.suggestAccount(ctx, docType, data.SupplierName, supplier, items[i])
			mappings[i] = models.LineItemMapping{
				LineItem:     items[i],
				Suggestion:   suggestion,
				Alternatives: m.alternatives(suggestion.Account),
				CostCenter:   costCenter,
			}
		}(i)
	}
	wg.Wait()

	return mappings, synthetic
}

// suggestAccount is the per-line priority chain, evaluated top-down with
// early return: known supplier, chart keyword match, collaborator
// fallback, static default.
func (m *RuleMapper) suggestAccount(
	ctx context.Context,
	docType models.DocumentType,
	supplierName string,
	supplier *refdata.Supplier,
	item models.ExtractedLineItem,
) models.AccountSuggestion {
	if supplier != nil {
		return models.AccountSuggestion{
			Account:     supplier.Account,
			AccountName: supplier.AccountName,
			Confidence:  confKnownSupplier,
			Reasoning:   fmt.Sprintf("known supplier %q", supplier.Name),
		}
	}

	if account, ok := m.tables.MatchAccountByKeywords(item.Description); ok {
		return models.AccountSuggestion{
			Account:     account.Number,
			AccountName: account.Name,
			Confidence:  confKeywordMatch,
			Reasoning:   fmt.Sprintf("chart keyword match on %q", item.Description),
		}
	}

	return m.fallbackSuggestion(ctx, docType, supplierName, item)
}

// llmSuggestion is the shape the fallback collaborator call must return.
type llmSuggestion struct {
	Account   string `json:"account"`
	Reasoning string `json:"reasoning"`
}

// fallbackSuggestion delegates to the collaborator, constrained to the
// chart's expense accounts. Any failure resolves to the static default
// account at the lowest chain confidence.
func (m *RuleMapper) fallbackSuggestion(
	ctx context.Context,
	docType models.DocumentType,
	supplierName string,
	item models.ExtractedLineItem,
) models.AccountSuggestion {
	if m.client != nil {
		response, err := m.client.Complete(ctx, llm.Request{
			System: m.buildFallbackSystemPrompt(),
			User:   buildFallbackUserPrompt(docType, supplierName, item),
		})
		if err == nil {
			var raw llmSuggestion
			if llm.DecodeJSONBlock(response, &raw) {
				if account, ok := m.tables.Account(strings.TrimSpace(raw.Account)); ok {
					return models.AccountSuggestion{
						Account:     account.Number,
						AccountName: account.Name,
						Confidence:  confLLMFallback,
						Reasoning:   raw.Reasoning,
					}
				}
				m.log.Warn().
					Str("account", raw.Account).
					Msg("Collaborator suggested an account outside the chart, using default")
			} else {
				m.log.Warn().Msg("No parseable JSON in account suggestion response, using default")
			}
		} else {
			m.log.Warn().Err(err).Msg("Account suggestion call failed, using default")
		}
	}

	account, _ := m.tables.Account(refdata.DefaultExpenseAccount)
	return models.AccountSuggestion{
		Account:     account.Number,
		AccountName: account.Name,
		Confidence:  confStaticDefault,
		Reasoning:   "no rule matched; default expense account",
	}
}

func (m *RuleMapper) alternatives(chosen string) []models.AccountSuggestion {
	accounts := m.tables.Alternatives(chosen, maxAlternatives)
	if len(accounts) == 0 {
		return nil
	}
	out := make([]models.AccountSuggestion, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, models.AccountSuggestion{
			Account:     a.Number,
			AccountName: a.Name,
			Confidence:  confAlternative,
			Reasoning:   fmt.Sprintf("same category (%s) as the chosen account", a.Category),
		})
	}
	return out
}

func (m *RuleMapper) buildFallbackSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You assign Swedish BAS expense accounts for a bookkeeping pipeline.\n")
	b.WriteString("Choose EXACTLY ONE account from this list:\n")
	for _, a := range m.tables.ExpenseAccounts() {
		fmt.Fprintf(&b, "- %s %s\n", a.Number, a.Name)
	}
	b.WriteString("\nReturn ONLY one JSON object: {\"account\": \"NNNN\", \"reasoning\": \"one sentence\"}\n")
	b.WriteString("If nothing fits, use " + refdata.DefaultExpenseAccount + ".")
	return b.String()
}

func buildFallbackUserPrompt(docType models.DocumentType, supplierName string, item models.ExtractedLineItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n", docType)
	if supplierName != "" {
		fmt.Fprintf(&b, "Supplier: %s\n", supplierName)
	}
	fmt.Fprintf(&b, "Line item: %s\n", item.Description)
	if item.NetAmount > 0 {
		fmt.Fprintf(&b, "Net amount: %.2f\n", item.NetAmount)
	}
	return b.String()
}

// documentLevelDescription labels the synthetic line used when a document
// has totals but no itemization.
func documentLevelDescription(data *models.ExtractedData) string {
	if data.RawTextSummary != "" {
		return data.RawTextSummary
	}
	return voucherText(data)
}
