package models

// DocumentType is the fixed taxonomy of source documents the pipeline accepts.
type DocumentType string

const (
	DocTypeInvoice       DocumentType = "INVOICE"
	DocTypeReceipt       DocumentType = "RECEIPT"
	DocTypeCreditNote    DocumentType = "CREDIT_NOTE"
	DocTypeBankStatement DocumentType = "BANK_STATEMENT"
	DocTypeSalarySlip    DocumentType = "SALARY_SLIP"
	DocTypeOther         DocumentType = "OTHER"
)

// AllDocumentTypes lists every valid document type, in taxonomy order.
var AllDocumentTypes = []DocumentType{
	DocTypeInvoice,
	DocTypeReceipt,
	DocTypeCreditNote,
	DocTypeBankStatement,
	DocTypeSalarySlip,
	DocTypeOther,
}

// ParseDocumentType coerces a raw string to a valid DocumentType.
// Unknown values map to DocTypeOther.
func ParseDocumentType(raw string) DocumentType {
	for _, t := range AllDocumentTypes {
		if string(t) == raw {
			return t
		}
	}
	return DocTypeOther
}

// ImageQuality describes how legible the source scan/photo is.
type ImageQuality string

const (
	QualityGood   ImageQuality = "good"
	QualityMedium ImageQuality = "medium"
	QualityPoor   ImageQuality = "poor"
)

// DocumentClassification is the first-stage result: what kind of document
// this is, plus auxiliary signals about the scan itself. Produced once per
// document and never mutated afterwards.
type DocumentClassification struct {
	DocumentType      DocumentType `json:"document_type"`
	Confidence        float64      `json:"confidence"` // 0..1
	Reasoning         string       `json:"reasoning"`
	Language          string       `json:"language,omitempty"`
	HasHandwriting    bool         `json:"has_handwriting"`
	ImageQuality      ImageQuality `json:"image_quality,omitempty"`
	MultipleDocuments bool         `json:"multiple_documents"`
	DocumentCount     int          `json:"document_count"`
	KeySignals        []string     `json:"key_signals,omitempty"`
}
