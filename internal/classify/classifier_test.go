package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/pkg/models"
)

// stubClient returns a canned collaborator response, or an error.
type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Complete(_ context.Context, _ llm.Request) (string, error) {
	return s.response, s.err
}

func TestClassifyParsesEmbeddedJSON(t *testing.T) {
	c := NewLLMClassifier(&stubClient{response: `Here you go:
{"document_type": "RECEIPT", "confidence": 0.92, "reasoning": "kvitto header and VAT split",
 "language": "sv", "image_quality": "good", "document_count": 1, "key_signals": ["kvitto", "moms"]}`})

	got, err := c.Classify(context.Background(), Input{Text: "KVITTO Espresso House ..."})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeReceipt, got.DocumentType)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.Equal(t, "sv", got.Language)
	assert.Equal(t, models.QualityGood, got.ImageQuality)
	assert.Equal(t, 1, got.DocumentCount)
}

func TestClassifyDefaultsOnProseResponse(t *testing.T) {
	c := NewLLMClassifier(&stubClient{response: "I think this might be some kind of receipt but I am not sure."})

	got, err := c.Classify(context.Background(), Input{Text: "blurry scan"})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeOther, got.DocumentType)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Equal(t, "could not classify", got.Reasoning)
	assert.False(t, got.HasHandwriting)
	assert.False(t, got.MultipleDocuments)
	assert.Equal(t, 1, got.DocumentCount)
}

func TestClassifyDefaultsOnCollaboratorError(t *testing.T) {
	c := NewLLMClassifier(&stubClient{err: errors.New("rate limited")})

	got, err := c.Classify(context.Background(), Input{Text: "anything"})
	require.NoError(t, err, "collaborator failure is absorbed, not propagated")
	assert.Equal(t, models.DocTypeOther, got.DocumentType)
	assert.Equal(t, 0.3, got.Confidence)
}

func TestClassifyCoercesUnknownTypeAndClampsConfidence(t *testing.T) {
	c := NewLLMClassifier(&stubClient{response: `{"document_type": "PURCHASE_ORDER", "confidence": 1.7}`})

	got, err := c.Classify(context.Background(), Input{Text: "PO-1234"})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeOther, got.DocumentType)
	assert.Equal(t, 1.0, got.Confidence)

	c = NewLLMClassifier(&stubClient{response: `{"document_type": "INVOICE", "confidence": -0.2}`})
	got, err = c.Classify(context.Background(), Input{Text: "Faktura"})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeInvoice, got.DocumentType)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestClassifyMissingConfidenceDefaults(t *testing.T) {
	c := NewLLMClassifier(&stubClient{response: `{"document_type": "BANK_STATEMENT"}`})

	got, err := c.Classify(context.Background(), Input{Text: "Kontoutdrag 2024-01"})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeBankStatement, got.DocumentType)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Equal(t, "no reasoning provided", got.Reasoning)
}
