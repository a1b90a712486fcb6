// Package pipeline wires the three processing stages together: a document
// goes in, gets classified, has its fields extracted and normalized, and
// comes out as a ledger mapping proposal.
//
// The stages are deliberately total: each one degrades to a conservative
// default instead of failing, so a run only errors when a collaborator
// call breaks in a way the stage cannot absorb. Optional adapters (the
// Document AI cross-check, the spreadsheet sink) bolt on without the core
// stages knowing about them.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/extract"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/internal/mapping"
	"github.com/svedin/kontera/pkg/models"
)

// CrossChecker verifies an extraction against an independent source,
// optionally filling gaps in data and returning discrepancy warnings.
type CrossChecker interface {
	Check(ctx context.Context, document []byte, mediaType string, data *models.ExtractedData) []string
}

// Sink receives finished mappings, e.g. a spreadsheet for review.
type Sink interface {
	Publish(ctx context.Context, mapping *models.LedgerMapping) error
}

// Result carries everything the three stages produced for one document.
type Result struct {
	RunID          string                          `json:"run_id"`
	Classification *models.DocumentClassification `json:"classification"`
	Extraction     *models.ExtractedData          `json:"extraction"`
	Mapping        *models.LedgerMapping          `json:"mapping"`
	Duration       time.Duration                  `json:"duration"`
}

// Pipeline runs documents through classification, extraction and mapping.
type Pipeline struct {
	classifier classify.Classifier
	extractor  extract.Extractor
	mapper     mapping.Mapper
	crossCheck CrossChecker
	sink       Sink
	log        zerolog.Logger
}

// Option configures optional pipeline adapters.
type Option func(*Pipeline)

// WithCrossCheck enables an independent extraction cross-check between
// the extract and map stages.
func WithCrossCheck(c CrossChecker) Option {
	return func(p *Pipeline) { p.crossCheck = c }
}

// WithSink publishes every finished mapping to the given sink.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// New creates a pipeline from its three stages.
func New(classifier classify.Classifier, extractor extract.Extractor, mapper mapping.Mapper, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		extractor:  extractor,
		mapper:     mapper,
		log:        logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one document through all stages. The returned Result is
// complete whenever err is nil; stage-level data problems surface inside
// the mapping (warnings, review flag) rather than as errors.
func (p *Pipeline) Process(ctx context.Context, in classify.Input) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := p.log.With().Str("run_id", runID).Logger()

	log.Info().
		Int("document_bytes", len(in.Document)).
		Str("media_type", in.MediaType).
		Int("text_len", len(in.Text)).
		Msg("Pipeline run started")

	classification, err := p.classifier.Classify(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("document_type", string(classification.DocumentType)).
		Float64("confidence", classification.Confidence).
		Msg("Document classified")

	data, err := p.extractor.Extract(ctx, in, classification.DocumentType)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("supplier", data.SupplierName).
		Float64("total", data.TotalAmount).
		Int("line_items", len(data.LineItems)).
		Msg("Data extracted")

	var crossWarnings []string
	if p.crossCheck != nil {
		crossWarnings = p.crossCheck.Check(ctx, in.Document, in.MediaType, data)
	}

	ledgerMapping, err := p.mapper.Map(ctx, classification.DocumentType, data)
	if err != nil {
		return nil, err
	}
	if len(crossWarnings) > 0 {
		ledgerMapping.Warnings = append(ledgerMapping.Warnings, crossWarnings...)
		ledgerMapping.RequiresReview = true
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, ledgerMapping); err != nil {
			// The mapping is already computed; losing the publish is
			// recoverable by re-running, so it does not fail the run.
			log.Warn().Err(err).Msg("Failed to publish mapping to sink")
		}
	}

	result := &Result{
		RunID:          runID,
		Classification: classification,
		Extraction:     data,
		Mapping:        ledgerMapping,
		Duration:       time.Since(start),
	}

	log.Info().
		Str("voucher_type", string(ledgerMapping.VoucherType)).
		Float64("confidence", ledgerMapping.OverallConfidence).
		Bool("requires_review", ledgerMapping.RequiresReview).
		Dur("duration", result.Duration).
		Msg("Pipeline run completed")

	return result, nil
}
