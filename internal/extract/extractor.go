// Package extract implements the second pipeline stage: asking the
// collaborator for field-level structured data and normalizing the answer
// into typed, locale-independent values.
//
// This is the most failure-prone stage of the pipeline. The collaborator
// returns free text with (hopefully) one JSON object in it, and the raw
// fields inside mix Swedish and European number formats, three date
// shapes, and currency symbols. Everything funnels through the total
// normalizers in normalize.go; a completely garbled response degrades to
// a minimal low-confidence result instead of an error.
package extract

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

const (
	// defaultConfidence is assumed when the collaborator omits a score.
	defaultConfidence = 0.7
	// fallbackConfidence marks a response that could not be parsed at all.
	fallbackConfidence = 0.5
)

// Extractor produces normalized structured data for a classified document.
type Extractor interface {
	Extract(ctx context.Context, in classify.Input, docType models.DocumentType) (*models.ExtractedData, error)
}

// LLMExtractor implements Extractor via the collaborator.
type LLMExtractor struct {
	client         llm.Client
	baseCurrency   string
	companyName    string
	companyAliases []string
	log            zerolog.Logger
}

// NewLLMExtractor creates an extractor backed by the given collaborator.
// baseCurrency is the ISO code assumed when the document names none.
func NewLLMExtractor(client llm.Client, baseCurrency string) *LLMExtractor {
	return &LLMExtractor{
		client:       client,
		baseCurrency: baseCurrency,
		log:          logger.WithComponent("extractor"),
	}
}

// WithCompany records the bookkeeping company's own identity. Invoices are
// addressed to this company, so the prompt needs it to keep the recipient
// out of supplier_name.
func (e *LLMExtractor) WithCompany(name string, aliases []string) *LLMExtractor {
	e.companyName = name
	e.companyAliases = aliases
	return e
}

// flexString accepts both JSON strings and JSON numbers, preserving the
// literal text. Collaborators flip between `"total": "1 234,56"` and
// `"total": 1234.56` unpredictably; both must survive to ParseNumber.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	// Unexpected shape (object, array, bool) reads as absent.
	*f = ""
	return nil
}

type rawLineItem struct {
	Description string     `json:"description"`
	Quantity    flexString `json:"quantity"`
	UnitPrice   flexString `json:"unit_price"`
	Amount      flexString `json:"amount"`
	NetAmount   flexString `json:"net_amount"`
	VATRate     flexString `json:"vat_rate"`
	VATAmount   flexString `json:"vat_amount"`
}

// rawExtraction is the pre-normalization shape requested from the
// collaborator. Every field is optional.
type rawExtraction struct {
	SupplierName    string `json:"supplier_name"`
	SupplierOrgNo   string `json:"supplier_org_no"`
	SupplierCountry string `json:"supplier_country"`
	SupplierVATID   string `json:"supplier_vat_id"`

	DocumentNumber         string `json:"document_number"`
	DocumentDate           string `json:"document_date"`
	Currency               string `json:"currency"`
	DetectedCurrencySymbol string `json:"detected_currency_symbol"`

	TotalAmount flexString `json:"total_amount"`
	NetAmount   flexString `json:"net_amount"`
	VATAmount   flexString `json:"vat_amount"`

	DueDate          string `json:"due_date"`
	PaymentReference string `json:"payment_reference"`
	Bankgiro         string `json:"bankgiro"`
	Plusgiro         string `json:"plusgiro"`
	IBAN             string `json:"iban"`
	PaymentMethod    string `json:"payment_method"`

	LineItems []rawLineItem `json:"line_items"`

	RawTextSummary       string   `json:"raw_text_summary"`
	ExtractionConfidence *float64 `json:"extraction_confidence"`
}

// Extract requests field extraction using the template for docType and
// normalizes the response. A malformed or failed collaborator response
// yields the minimal fallback extraction, never an error.
func (e *LLMExtractor) Extract(ctx context.Context, in classify.Input, docType models.DocumentType) (*models.ExtractedData, error) {
	response, err := e.client.Complete(ctx, llm.Request{
		System:    buildExtractSystemPrompt(docType, e.baseCurrency, e.companyName, e.companyAliases),
		User:      buildExtractUserPrompt(in),
		Document:  in.Document,
		MediaType: in.MediaType,
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("document_type", string(docType)).
			Msg("Extraction call failed, using minimal extraction")
		return e.minimalExtraction(), nil
	}

	var raw rawExtraction
	if !llm.DecodeJSONBlock(response, &raw) {
		e.log.Warn().
			Str("document_type", string(docType)).
			Int("response_length", len(response)).
			Msg("No parseable JSON in extraction response, using minimal extraction")
		return e.minimalExtraction(), nil
	}

	data := e.normalize(raw)
	e.log.Info().
		Str("supplier", data.SupplierName).
		Str("document_number", data.DocumentNumber).
		Str("currency", data.Currency).
		Float64("total", data.TotalAmount).
		Int("line_items", len(data.LineItems)).
		Float64("confidence", data.ExtractionConfidence).
		Msg("Document extracted")
	return data, nil
}

// minimalExtraction is the documented fallback for an unusable response:
// an empty but well-typed record at fixed low confidence.
func (e *LLMExtractor) minimalExtraction() *models.ExtractedData {
	return &models.ExtractedData{
		SupplierName:         "unknown",
		Currency:             NormalizeCurrency("", "", e.baseCurrency),
		ExtractionConfidence: fallbackConfidence,
	}
}

func (e *LLMExtractor) normalize(raw rawExtraction) *models.ExtractedData {
	data := &models.ExtractedData{
		SupplierName:     raw.SupplierName,
		SupplierOrgNo:    raw.SupplierOrgNo,
		SupplierCountry:  raw.SupplierCountry,
		SupplierVATID:    raw.SupplierVATID,
		DocumentNumber:   raw.DocumentNumber,
		Currency:         NormalizeCurrency(raw.DetectedCurrencySymbol, raw.Currency, e.baseCurrency),
		TotalAmount:      ParseNumber(string(raw.TotalAmount)),
		NetAmount:        ParseNumber(string(raw.NetAmount)),
		VATAmount:        ParseNumber(string(raw.VATAmount)),
		PaymentReference: raw.PaymentReference,
		Bankgiro:         raw.Bankgiro,
		Plusgiro:         raw.Plusgiro,
		IBAN:             raw.IBAN,
		PaymentMethod:    raw.PaymentMethod,
		RawTextSummary:   raw.RawTextSummary,
	}

	if data.SupplierName == "" {
		data.SupplierName = "unknown"
	}
	if raw.DocumentDate != "" {
		data.DocumentDate = ParseDate(raw.DocumentDate)
	}
	if raw.DueDate != "" {
		data.DueDate = ParseDate(raw.DueDate)
	}
	// Credit notes print negative amounts; the magnitude is what gets
	// posted, the direction comes from the document type.
	data.TotalAmount = magnitude(data.TotalAmount)
	data.NetAmount = magnitude(data.NetAmount)
	data.VATAmount = magnitude(data.VATAmount)

	for _, item := range raw.LineItems {
		data.LineItems = append(data.LineItems, models.ExtractedLineItem{
			Description: item.Description,
			Quantity:    ParseNumber(string(item.Quantity)),
			UnitPrice:   magnitude(ParseNumber(string(item.UnitPrice))),
			NetAmount:   magnitude(lineItemNet(item)),
			VATRate:     ParseNumber(string(item.VATRate)),
			VATAmount:   magnitude(ParseNumber(string(item.VATAmount))),
		})
	}

	// Documented fallback: a zero total with priced line items is
	// recomputed as their sum rather than silently kept at 0.
	if data.TotalAmount == 0 && len(data.LineItems) > 0 {
		var sum float64
		for _, item := range data.LineItems {
			sum += item.NetAmount
		}
		if sum > 0 {
			data.TotalAmount = sum
			e.log.Debug().
				Float64("recomputed_total", sum).
				Msg("Total recomputed from line items")
		}
	}

	confidence := defaultConfidence
	if raw.ExtractionConfidence != nil {
		confidence = clamp01(*raw.ExtractionConfidence)
	}
	data.ExtractionConfidence = confidence

	return data
}

// lineItemNet resolves a line's net amount from the first populated field
// in the chain net_amount, amount, unit_price.
func lineItemNet(item rawLineItem) float64 {
	if v := ParseNumber(string(item.NetAmount)); v != 0 {
		return v
	}
	if v := ParseNumber(string(item.Amount)); v != 0 {
		return v
	}
	return ParseNumber(string(item.UnitPrice))
}

func magnitude(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
