package docai

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

// CrossCheck bundles the processor and reconciler into the single call
// the pipeline wants: run the document past Document AI and fold the
// outcome into the extraction. A failing cross-check never fails the
// document; it just contributes nothing.
type CrossCheck struct {
	processor  *Processor
	reconciler *Reconciler
	log        zerolog.Logger
}

func NewCrossCheck(processor *Processor) *CrossCheck {
	return &CrossCheck{
		processor:  processor,
		reconciler: NewReconciler(),
		log:        logger.WithComponent("docai-crosscheck"),
	}
}

// Check processes the document and reconciles the result into data,
// returning any discrepancy warnings.
func (c *CrossCheck) Check(ctx context.Context, document []byte, mediaType string, data *models.ExtractedData) []string {
	if len(document) == 0 {
		return nil
	}
	fields, err := c.processor.Process(ctx, document, mediaType)
	if err != nil {
		c.log.Warn().Err(err).Msg("Document AI cross-check failed, continuing without it")
		return nil
	}
	return c.reconciler.Reconcile(fields, data)
}
