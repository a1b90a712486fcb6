package mapping

import (
	"strings"

	"github.com/svedin/kontera/pkg/models"
)

const (
	// confidenceBase is the starting point of the data-quality score.
	confidenceBase = 0.5
	// signalIncrement is added per successfully extracted strong signal.
	signalIncrement = 0.10
	// noLineItemConfidence stands in for the per-line mean when the
	// document had no real line items.
	noLineItemConfidence = 0.7

	// Confidence floors: a known supplier with a positive total can
	// never report below floorKnownSupplier; anything else never below
	// floorDefault.
	floorKnownSupplier = 0.55
	floorDefault       = 0.4

	// reviewThreshold triggers the review flag on extraction or per-line
	// mapping confidence.
	reviewThreshold = 0.7
)

// overallConfidence blends data quality, raw extraction confidence and the
// mean per-line mapping confidence into one score.
func (m *RuleMapper) overallConfidence(
	data *models.ExtractedData,
	lineMappings []models.LineItemMapping,
	synthetic bool,
	supplierKnown bool,
) float64 {
	score := confidenceBase
	if supplierKnown {
		score += signalIncrement
	}
	if data.TotalAmount > 0 {
		score += signalIncrement
	}
	if data.DocumentDate != "" {
		score += signalIncrement
	}
	if realDocumentNumber(data.DocumentNumber) {
		score += signalIncrement
	}
	if data.VATAmount > 0 {
		score += signalIncrement
	}
	if score > 1 {
		score = 1
	}

	if data.ExtractionConfidence > score {
		score = data.ExtractionConfidence
	}

	lineAvg := noLineItemConfidence
	if len(lineMappings) > 0 && !synthetic {
		var sum float64
		for _, lm := range lineMappings {
			sum += lm.Suggestion.Confidence
		}
		lineAvg = sum / float64(len(lineMappings))
	}

	overall := (score + lineAvg) / 2

	floor := floorDefault
	if supplierKnown && data.TotalAmount > 0 {
		floor = floorKnownSupplier
	}
	if overall < floor {
		overall = floor
	}
	if overall > 1 {
		overall = 1
	}
	return overall
}

// realDocumentNumber reports whether the extracted document number looks
// like one printed on the document rather than a generated placeholder.
func realDocumentNumber(number string) bool {
	number = strings.TrimSpace(number)
	return number != "" && !strings.HasPrefix(strings.ToUpper(number), "AUTO-")
}

// requiresReview flags the mapping for a human when extraction was shaky,
// any line resolved below the threshold, or any warning was raised.
func requiresReview(data *models.ExtractedData, lineMappings []models.LineItemMapping, warnings []string) bool {
	if data.ExtractionConfidence < reviewThreshold {
		return true
	}
	for _, lm := range lineMappings {
		if lm.Suggestion.Confidence < reviewThreshold {
			return true
		}
	}
	return len(warnings) > 0
}
