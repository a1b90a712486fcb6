package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/pkg/models"
)

type stubClient struct {
	response string
	err      error
	lastReq  llm.Request
}

func (s *stubClient) Complete(_ context.Context, req llm.Request) (string, error) {
	s.lastReq = req
	return s.response, s.err
}

func TestExtractNormalizesFields(t *testing.T) {
	stub := &stubClient{response: `{
		"supplier_name": "Kontorsgrossisten AB",
		"supplier_org_no": "556677-8899",
		"document_number": "F-2024-1187",
		"document_date": "23.03.2024",
		"currency": "",
		"detected_currency_symbol": "kr",
		"total_amount": "1 234,56",
		"net_amount": "987,65",
		"vat_amount": "246,91",
		"due_date": "2024-04-22",
		"bankgiro": "5555-1234",
		"line_items": [
			{"description": "Kopieringspapper A4", "quantity": "10", "net_amount": "500,00", "vat_rate": "25"},
			{"description": "Toner", "quantity": "1", "net_amount": "487,65", "vat_rate": "25"}
		],
		"extraction_confidence": 0.88
	}`}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "FAKTURA ..."}, models.DocTypeInvoice)
	require.NoError(t, err)

	assert.Equal(t, "Kontorsgrossisten AB", data.SupplierName)
	assert.Equal(t, "2024-03-23", data.DocumentDate)
	assert.Equal(t, "2024-04-22", data.DueDate)
	assert.Equal(t, "SEK", data.Currency, "kr symbol with no code resolves to base currency")
	assert.InDelta(t, 1234.56, data.TotalAmount, 1e-9)
	assert.InDelta(t, 246.91, data.VATAmount, 1e-9)
	require.Len(t, data.LineItems, 2)
	assert.InDelta(t, 500.00, data.LineItems[0].NetAmount, 1e-9)
	assert.InDelta(t, 25, data.LineItems[0].VATRate, 1e-9)
	assert.InDelta(t, 0.88, data.ExtractionConfidence, 1e-9)
}

func TestExtractRecomputesZeroTotalFromLineItems(t *testing.T) {
	stub := &stubClient{response: `{
		"supplier_name": "Testbolaget AB",
		"total_amount": "0",
		"line_items": [
			{"description": "Rad 1", "net_amount": "100"},
			{"description": "Rad 2", "amount": "50"}
		]
	}`}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeInvoice)
	require.NoError(t, err)
	assert.InDelta(t, 150, data.TotalAmount, 1e-9, "zero total recomputed as line item sum")
}

func TestExtractLineItemNetFallbackChain(t *testing.T) {
	stub := &stubClient{response: `{
		"supplier_name": "X",
		"line_items": [
			{"description": "has net", "net_amount": "10", "amount": "99", "unit_price": "50"},
			{"description": "has amount", "amount": "20", "unit_price": "50"},
			{"description": "only unit price", "unit_price": "30"},
			{"description": "nothing"}
		]
	}`}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeReceipt)
	require.NoError(t, err)
	require.Len(t, data.LineItems, 4)
	assert.InDelta(t, 10, data.LineItems[0].NetAmount, 1e-9)
	assert.InDelta(t, 20, data.LineItems[1].NetAmount, 1e-9)
	assert.InDelta(t, 30, data.LineItems[2].NetAmount, 1e-9)
	assert.InDelta(t, 0, data.LineItems[3].NetAmount, 1e-9)
	assert.InDelta(t, 60, data.TotalAmount, 1e-9)
}

func TestExtractMalformedResponseYieldsMinimalExtraction(t *testing.T) {
	stub := &stubClient{response: "The image was too blurry for me to read anything useful."}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeReceipt)
	require.NoError(t, err, "garbled collaborator output must not fail the pipeline")
	assert.Equal(t, "unknown", data.SupplierName)
	assert.Equal(t, "SEK", data.Currency)
	assert.Equal(t, 0.5, data.ExtractionConfidence)
	assert.Empty(t, data.LineItems)
}

func TestExtractCollaboratorErrorYieldsMinimalExtraction(t *testing.T) {
	stub := &stubClient{err: errors.New("connection reset")}
	e := NewLLMExtractor(stub, "EUR")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, "unknown", data.SupplierName)
	assert.Equal(t, "EUR", data.Currency)
	assert.Equal(t, 0.5, data.ExtractionConfidence)
}

func TestExtractNumericMoneyFieldsAccepted(t *testing.T) {
	// Collaborators flip between string and number money fields.
	stub := &stubClient{response: `{
		"supplier_name": "Espresso House",
		"total_amount": 184.0,
		"vat_amount": 19.71,
		"extraction_confidence": 0.9
	}`}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeReceipt)
	require.NoError(t, err)
	assert.InDelta(t, 184.0, data.TotalAmount, 1e-9)
	assert.InDelta(t, 19.71, data.VATAmount, 1e-9)
}

func TestExtractNegativeAmountsFlipToMagnitude(t *testing.T) {
	// Credit notes print every amount as negative. All of them must come
	// out as magnitudes, not just the total, or downstream vouchers end
	// up with zero cost lines against a full counter line.
	stub := &stubClient{response: `{
		"supplier_name": "Leverantören AB",
		"total_amount": "-1 250,00",
		"net_amount": "-1000,00",
		"vat_amount": "-250,00",
		"line_items": [
			{"description": "Returnerade varor", "quantity": "2", "unit_price": "-500,00", "net_amount": "-1000,00", "vat_rate": "25", "vat_amount": "-250,00"}
		]
	}`}
	e := NewLLMExtractor(stub, "SEK")

	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeCreditNote)
	require.NoError(t, err)
	assert.InDelta(t, 1250, data.TotalAmount, 1e-9)
	assert.InDelta(t, 1000, data.NetAmount, 1e-9)
	assert.InDelta(t, 250, data.VATAmount, 1e-9)
	require.Len(t, data.LineItems, 1)
	assert.InDelta(t, 1000, data.LineItems[0].NetAmount, 1e-9)
	assert.InDelta(t, 500, data.LineItems[0].UnitPrice, 1e-9)
	assert.InDelta(t, 250, data.LineItems[0].VATAmount, 1e-9)
}

func TestExtractCompanyContextInPrompt(t *testing.T) {
	stub := &stubClient{response: `{"supplier_name": "X"}`}
	e := NewLLMExtractor(stub, "SEK").WithCompany("Svedin Konsult AB", []string{"Svedin", "SKAB"})

	_, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeInvoice)
	require.NoError(t, err)
	assert.Contains(t, stub.lastReq.System, "Svedin Konsult AB")
	assert.Contains(t, stub.lastReq.System, "Svedin, SKAB")
	assert.Contains(t, stub.lastReq.System, "never the supplier_name")

	stub = &stubClient{response: `{"supplier_name": "X"}`}
	e = NewLLMExtractor(stub, "SEK")
	_, err = e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeInvoice)
	require.NoError(t, err)
	assert.NotContains(t, stub.lastReq.System, "Company context")
}

func TestExtractConfidenceClampAndDefault(t *testing.T) {
	e := NewLLMExtractor(&stubClient{response: `{"supplier_name": "X", "extraction_confidence": 1.4}`}, "SEK")
	data, err := e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeOther)
	require.NoError(t, err)
	assert.Equal(t, 1.0, data.ExtractionConfidence)

	e = NewLLMExtractor(&stubClient{response: `{"supplier_name": "X"}`}, "SEK")
	data, err = e.Extract(context.Background(), classify.Input{Text: "x"}, models.DocTypeOther)
	require.NoError(t, err)
	assert.Equal(t, 0.7, data.ExtractionConfidence, "absent confidence defaults to 0.7")
}
