package docai

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

// discrepancyTolerancePct is how far the two extraction sources may
// disagree, in percent of the larger amount, before a warning is raised.
const discrepancyTolerancePct = 5.0

// Reconciler merges a Document AI cross-check into a primary extraction.
type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler() *Reconciler {
	return &Reconciler{log: logger.WithComponent("docai-reconcile")}
}

// Reconcile compares the cross-check fields against the primary extraction
// and mutates data in place: gaps in the primary result are filled from the
// cross-check, and material disagreements come back as warnings. The
// primary value always wins when both sources have one.
func (r *Reconciler) Reconcile(fields *Fields, data *models.ExtractedData) []string {
	if fields == nil || data == nil {
		return nil
	}

	var warnings []string
	warnings = append(warnings, r.reconcileAmount("total", fields.TotalAmount, &data.TotalAmount)...)
	warnings = append(warnings, r.reconcileAmount("VAT", fields.VATAmount, &data.VATAmount)...)

	if !data.HasSupplier() && fields.SupplierName != "" {
		data.SupplierName = fields.SupplierName
		r.log.Debug().Str("supplier", fields.SupplierName).Msg("Supplier name filled from cross-check")
	}
	if data.DocumentNumber == "" && fields.DocumentNumber != "" {
		data.DocumentNumber = fields.DocumentNumber
	}
	if data.DocumentDate == "" && fields.DocumentDate != "" {
		data.DocumentDate = fields.DocumentDate
	}
	if data.DueDate == "" && fields.DueDate != "" {
		data.DueDate = fields.DueDate
	}

	if data.Currency != "" && fields.Currency != "" && data.Currency != fields.Currency {
		warnings = append(warnings, fmt.Sprintf(
			"currency disagreement: extraction says %s, cross-check says %s",
			data.Currency, fields.Currency))
	}

	if len(warnings) > 0 {
		r.log.Warn().Strs("warnings", warnings).Msg("Cross-check reconciliation raised warnings")
	}
	return warnings
}

// reconcileAmount fills *primary from the cross-check when missing, and
// warns when both sources disagree beyond tolerance. The primary value is
// kept on disagreement; the warning is the reviewer's cue to look.
func (r *Reconciler) reconcileAmount(name string, crossCheck float64, primary *float64) []string {
	if crossCheck <= 0 {
		return nil
	}
	if *primary <= 0 {
		*primary = crossCheck
		r.log.Debug().
			Str("amount", name).
			Float64("value", crossCheck).
			Msg("Amount filled from cross-check")
		return nil
	}

	pct := discrepancyPct(*primary, crossCheck)
	if pct <= discrepancyTolerancePct {
		return nil
	}
	return []string{fmt.Sprintf(
		"%s amount discrepancy: extraction %.2f, cross-check %.2f (%.1f%% difference)",
		name, *primary, crossCheck, pct)}
}

// discrepancyPct is the difference between two positive amounts as a
// percentage of the larger one.
func discrepancyPct(a, b float64) float64 {
	larger := math.Max(a, b)
	smaller := math.Min(a, b)
	if larger == 0 {
		return 0
	}
	return (larger - smaller) / larger * 100
}
