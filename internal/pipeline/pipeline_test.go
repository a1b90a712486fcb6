package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/extract"
	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/mapping"
	"github.com/svedin/kontera/internal/refdata"
	"github.com/svedin/kontera/pkg/models"
)

// scriptedClient replays one canned response per call, in order.
type scriptedClient struct {
	responses []string
	calls     int
}

func (s *scriptedClient) Complete(_ context.Context, _ llm.Request) (string, error) {
	if s.calls >= len(s.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func newTestPipeline(t *testing.T, client llm.Client, opts ...Option) *Pipeline {
	t.Helper()
	tables, err := refdata.Load("", "", "")
	require.NoError(t, err)
	return New(
		classify.NewLLMClassifier(client),
		extract.NewLLMExtractor(client, "SEK"),
		mapping.NewRuleMapper(tables, nil),
		opts...,
	)
}

func TestProcessReceiptEndToEnd(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"document_type": "RECEIPT", "confidence": 0.92, "reasoning": "kvitto layout", "language": "sv"}`,
		`Here is the extraction:
		{"supplier_name": "Espresso House", "document_date": "23 mar 2024",
		 "currency": "SEK", "total_amount": "184,00", "vat_amount": "19,71",
		 "payment_method": "CARD", "extraction_confidence": 0.9}`,
	}}
	p := newTestPipeline(t, client)

	result, err := p.Process(context.Background(), classify.Input{Text: "ESPRESSO HOUSE\nTotalt 184,00 kr"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, models.DocTypeReceipt, result.Classification.DocumentType)
	assert.Equal(t, "Espresso House", result.Extraction.SupplierName)
	assert.Equal(t, "2024-03-23", result.Extraction.DocumentDate)
	assert.InDelta(t, 184.00, result.Extraction.TotalAmount, 1e-9)

	m := result.Mapping
	require.NotNil(t, m)
	assert.Equal(t, models.VoucherReceipt, m.VoucherType)
	require.Len(t, m.VoucherLines, 3)
	assert.Equal(t, "6071", m.VoucherLines[0].Account)
	assert.Equal(t, "1930", m.VoucherLines[2].Account)
	assert.InDelta(t, m.DebitTotal(), m.CreditTotal(), 0.01)
	assert.False(t, m.RequiresReview)
}

func TestProcessCreditNoteBalances(t *testing.T) {
	// Credit notes print every amount as negative. The voucher posts the
	// magnitudes; direction is carried by the voucher type.
	client := &scriptedClient{responses: []string{
		`{"document_type": "CREDIT_NOTE", "confidence": 0.9, "language": "sv"}`,
		`{"supplier_name": "Leverantören AB", "document_number": "KN-2024-17",
		  "currency": "SEK", "total_amount": "-1 250,00", "vat_amount": "-250,00",
		  "line_items": [
		    {"description": "Returnerade varor", "net_amount": "-1000,00", "vat_rate": "25"}
		  ],
		  "extraction_confidence": 0.85}`,
	}}
	p := newTestPipeline(t, client)

	result, err := p.Process(context.Background(), classify.Input{Text: "KREDITFAKTURA\nAtt återfå 1 250,00 kr"})
	require.NoError(t, err)

	m := result.Mapping
	require.NotNil(t, m)
	assert.Equal(t, models.VoucherSupplierInvoice, m.VoucherType)
	require.Len(t, m.VoucherLines, 3)
	assert.InDelta(t, 1000.00, m.VoucherLines[0].Debit, 1e-9)
	assert.Equal(t, "2640", m.VoucherLines[1].Account)
	assert.InDelta(t, 250.00, m.VoucherLines[1].Debit, 1e-9)
	assert.Equal(t, "2440", m.VoucherLines[2].Account)
	assert.InDelta(t, 1250.00, m.VoucherLines[2].Credit, 1e-9)
	assert.InDelta(t, m.DebitTotal(), m.CreditTotal(), 0.01)
	for _, w := range m.Warnings {
		assert.NotContains(t, w, "does not balance")
	}
}

func TestProcessGarbledResponsesDegradeGracefully(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`I am not sure what this document is.`,
		`Sorry, I cannot read this image at all.`,
	}}
	p := newTestPipeline(t, client)

	result, err := p.Process(context.Background(), classify.Input{Text: "???"})
	require.NoError(t, err, "garbled collaborator output must not fail the run")

	assert.Equal(t, models.DocTypeOther, result.Classification.DocumentType)
	assert.InDelta(t, 0.3, result.Classification.Confidence, 1e-9)
	assert.Equal(t, "unknown", result.Extraction.SupplierName)
	assert.InDelta(t, 0.5, result.Extraction.ExtractionConfidence, 1e-9)

	require.NotNil(t, result.Mapping)
	assert.Equal(t, models.VoucherJournal, result.Mapping.VoucherType)
	assert.True(t, result.Mapping.RequiresReview)
}

type stubCrossCheck struct {
	warnings []string
	called   bool
}

func (s *stubCrossCheck) Check(_ context.Context, _ []byte, _ string, _ *models.ExtractedData) []string {
	s.called = true
	return s.warnings
}

func TestProcessCrossCheckWarningsForceReview(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"document_type": "RECEIPT", "confidence": 0.95}`,
		`{"supplier_name": "Espresso House", "total_amount": 184, "vat_amount": 19.71,
		  "payment_method": "CARD", "extraction_confidence": 0.9}`,
	}}
	check := &stubCrossCheck{warnings: []string{"total amount discrepancy: extraction 184.00, cross-check 240.00 (23.3% difference)"}}
	p := newTestPipeline(t, client, WithCrossCheck(check))

	result, err := p.Process(context.Background(), classify.Input{Document: []byte("fake-scan"), MediaType: "image/jpeg"})
	require.NoError(t, err)

	assert.True(t, check.called)
	assert.Contains(t, result.Mapping.Warnings, check.warnings[0])
	assert.True(t, result.Mapping.RequiresReview, "cross-check discrepancies force review")
}

type stubSink struct {
	published *models.LedgerMapping
	err       error
}

func (s *stubSink) Publish(_ context.Context, m *models.LedgerMapping) error {
	s.published = m
	return s.err
}

func TestProcessPublishesToSink(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"document_type": "RECEIPT", "confidence": 0.95}`,
		`{"supplier_name": "Espresso House", "total_amount": 100, "extraction_confidence": 0.9}`,
	}}
	sink := &stubSink{}
	p := newTestPipeline(t, client, WithSink(sink))

	result, err := p.Process(context.Background(), classify.Input{Text: "kvitto"})
	require.NoError(t, err)
	require.NotNil(t, sink.published)
	assert.Equal(t, result.Mapping, sink.published)
}

func TestProcessSinkErrorDoesNotFailRun(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"document_type": "RECEIPT", "confidence": 0.95}`,
		`{"supplier_name": "Espresso House", "total_amount": 100, "extraction_confidence": 0.9}`,
	}}
	sink := &stubSink{err: errors.New("spreadsheet unavailable")}
	p := newTestPipeline(t, client, WithSink(sink))

	result, err := p.Process(context.Background(), classify.Input{Text: "kvitto"})
	require.NoError(t, err)
	require.NotNil(t, result.Mapping)
}
