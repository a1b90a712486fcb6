// Package classify implements the first pipeline stage: identifying the
// document type plus auxiliary scan-quality signals.
//
// The stage is a thin pass-through to the collaborator. It owns no business
// logic beyond response validation and defaulting: whatever comes back, the
// caller always receives a well-typed DocumentClassification.
package classify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

// Input is the document handed to the classifier: either raw bytes with a
// media type, or pre-extracted text.
type Input struct {
	Document  []byte
	MediaType string
	Text      string
}

// Classifier identifies the document type of one source document.
type Classifier interface {
	Classify(ctx context.Context, in Input) (*models.DocumentClassification, error)
}

// LLMClassifier implements Classifier via the collaborator.
type LLMClassifier struct {
	client llm.Client
	log    zerolog.Logger
}

// NewLLMClassifier creates a classifier backed by the given collaborator.
func NewLLMClassifier(client llm.Client) *LLMClassifier {
	return &LLMClassifier{
		client: client,
		log:    logger.WithComponent("classifier"),
	}
}

// rawClassification is the shape we ask the collaborator to produce. All
// fields are optional; missing ones fall back in toClassification.
type rawClassification struct {
	DocumentType      string   `json:"document_type"`
	Confidence        *float64 `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	Language          string   `json:"language"`
	HasHandwriting    bool     `json:"has_handwriting"`
	ImageQuality      string   `json:"image_quality"`
	MultipleDocuments bool     `json:"multiple_documents"`
	DocumentCount     int      `json:"document_count"`
	KeySignals        []string `json:"key_signals"`
}

// Classify asks the collaborator for a document type. The collaborator's
// free-text answer is parsed leniently; when no JSON object can be
// recovered the documented default classification is returned instead of
// an error.
func (c *LLMClassifier) Classify(ctx context.Context, in Input) (*models.DocumentClassification, error) {
	response, err := c.client.Complete(ctx, llm.Request{
		System:    classifySystemPrompt,
		User:      buildClassifyUserPrompt(in),
		Document:  in.Document,
		MediaType: in.MediaType,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Classification call failed, using default classification")
		return DefaultClassification(), nil
	}

	var raw rawClassification
	if !llm.DecodeJSONBlock(response, &raw) {
		c.log.Warn().
			Int("response_length", len(response)).
			Msg("No parseable JSON in classification response, using default classification")
		return DefaultClassification(), nil
	}

	result := c.toClassification(raw)
	c.log.Info().
		Str("document_type", string(result.DocumentType)).
		Float64("confidence", result.Confidence).
		Str("language", result.Language).
		Bool("multiple_documents", result.MultipleDocuments).
		Msg("Document classified")
	return result, nil
}

// DefaultClassification is the value every malformed or failed
// classification resolves to.
func DefaultClassification() *models.DocumentClassification {
	return &models.DocumentClassification{
		DocumentType:  models.DocTypeOther,
		Confidence:    0.3,
		Reasoning:     "could not classify",
		DocumentCount: 1,
	}
}

func (c *LLMClassifier) toClassification(raw rawClassification) *models.DocumentClassification {
	docType := models.ParseDocumentType(raw.DocumentType)
	if docType == models.DocTypeOther && raw.DocumentType != string(models.DocTypeOther) {
		c.log.Debug().
			Str("raw_type", raw.DocumentType).
			Msg("Unknown document type coerced to OTHER")
	}

	confidence := 0.3
	if raw.Confidence != nil {
		confidence = clamp01(*raw.Confidence)
	}

	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	count := raw.DocumentCount
	if count < 1 {
		count = 1
	}

	return &models.DocumentClassification{
		DocumentType:      docType,
		Confidence:        confidence,
		Reasoning:         reasoning,
		Language:          raw.Language,
		HasHandwriting:    raw.HasHandwriting,
		ImageQuality:      parseQuality(raw.ImageQuality),
		MultipleDocuments: raw.MultipleDocuments,
		DocumentCount:     count,
		KeySignals:        raw.KeySignals,
	}
}

func parseQuality(raw string) models.ImageQuality {
	switch models.ImageQuality(raw) {
	case models.QualityGood, models.QualityMedium, models.QualityPoor:
		return models.ImageQuality(raw)
	}
	return models.QualityMedium
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
