// Package docai provides an optional second opinion on extraction: raw
// documents are run through a Google Document AI invoice processor, and
// the entity values it returns are reconciled against the primary
// extraction. The package never replaces the primary result wholesale; it
// fills gaps and raises warnings on disagreement.
package docai

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/svedin/kontera/internal/extract"
	"github.com/svedin/kontera/internal/logger"
)

// MaxDocumentSizeBytes is the largest document the processor accepts (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

const defaultTimeout = 60 * time.Second

// Config identifies the Document AI invoice processor to call.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// Fields is the flat set of invoice-level values Document AI returned,
// with per-entity confidences. Zero values mean the entity was absent.
type Fields struct {
	SupplierName   string
	DocumentNumber string
	DocumentDate   string // YYYY-MM-DD
	DueDate        string // YYYY-MM-DD
	Currency       string
	NetAmount      float64
	VATAmount      float64
	TotalAmount    float64
	Confidence     map[string]float32
}

// Processor runs documents through a Document AI invoice processor.
type Processor struct {
	client *documentai.DocumentProcessorClient
	config Config
	log    zerolog.Logger
}

// NewProcessor creates a processor for the given project and location.
// Credentials come from the ambient Google Cloud environment
// (GOOGLE_APPLICATION_CREDENTIALS or metadata server).
func NewProcessor(ctx context.Context, config Config) (*Processor, error) {
	const op = "NewProcessor"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapProcessingError(op, ErrInvalidConfiguration, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "eu"
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	var opts []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, WrapProcessingError(op, err, fmt.Sprintf("failed to create Document AI client for location %s", config.Location))
	}

	return &Processor{
		client: client,
		config: config,
		log:    logger.WithComponent("docai"),
	}, nil
}

// NewProcessorWithClient creates a processor over an existing client.
func NewProcessorWithClient(config Config, client *documentai.DocumentProcessorClient) *Processor {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Processor{
		client: client,
		config: config,
		log:    logger.WithComponent("docai"),
	}
}

// Process sends the document through the invoice processor and maps the
// returned entities onto Fields.
func (p *Processor) Process(ctx context.Context, document []byte, mediaType string) (*Fields, error) {
	const op = "Process"

	if len(document) == 0 {
		return nil, WrapProcessingError(op, ErrInvalidDocument, "empty document")
	}
	if len(document) > MaxDocumentSizeBytes {
		return nil, WrapProcessingError(op, ErrDocumentTooLarge, fmt.Sprintf("document size: %d bytes", len(document)))
	}
	if mediaType == "" {
		mediaType = "application/pdf"
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  document,
				MimeType: mediaType,
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapProcessingError(op, ErrProcessingFailed, "no document in response")
	}

	fields := p.extractFields(resp.Document)

	p.log.Info().
		Str("supplier", fields.SupplierName).
		Str("document_number", fields.DocumentNumber).
		Float64("total", fields.TotalAmount).
		Float64("vat", fields.VATAmount).
		Str("currency", fields.Currency).
		Msg("Document AI processing completed")

	return fields, nil
}

func (p *Processor) processorName() string {
	if p.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			p.config.ProjectID, p.config.Location, p.config.ProcessorID, p.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
}

func (p *Processor) handleProcessingError(op string, err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapProcessingError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return WrapProcessingError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapProcessingError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapProcessingError(op, ErrInvalidDocument, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "DeadlineExceeded"):
		return WrapProcessingError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapProcessingError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// extractFields maps the invoice processor's entity types onto Fields.
// Values are best-effort; anything unparseable is skipped rather than
// failing the whole cross-check.
func (p *Processor) extractFields(doc *documentaipb.Document) *Fields {
	fields := &Fields{Confidence: make(map[string]float32)}

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		fields.Confidence[entity.Type] = entity.Confidence

		switch entity.Type {
		case "supplier_name", "vendor_name":
			fields.SupplierName = value
		case "invoice_id", "invoice_number":
			fields.DocumentNumber = value
		case "invoice_date":
			fields.DocumentDate = entityDate(entity)
		case "due_date":
			fields.DueDate = entityDate(entity)
		case "currency":
			fields.Currency = extract.NormalizeCurrency(value, value, "SEK")
		case "net_amount", "subtotal_amount":
			fields.NetAmount = entityAmount(entity)
		case "total_tax_amount", "vat_amount":
			fields.VATAmount = entityAmount(entity)
		case "total_amount", "gross_amount":
			fields.TotalAmount = entityAmount(entity)
		}
	}

	// Fill whichever of net/VAT/total is derivable from the other two.
	if fields.TotalAmount == 0 && fields.NetAmount > 0 && fields.VATAmount > 0 {
		fields.TotalAmount = fields.NetAmount + fields.VATAmount
	}
	if fields.NetAmount == 0 && fields.TotalAmount > 0 && fields.VATAmount > 0 {
		fields.NetAmount = fields.TotalAmount - fields.VATAmount
	}
	if fields.VATAmount == 0 && fields.TotalAmount > 0 && fields.NetAmount > 0 {
		fields.VATAmount = fields.TotalAmount - fields.NetAmount
	}

	return fields
}

// entityDate prefers the API's normalized date value over the raw mention
// text, which goes through the shared lenient parser.
func entityDate(entity *documentaipb.Document_Entity) string {
	if nv := entity.NormalizedValue; nv != nil {
		if d := nv.GetDateValue(); d != nil && d.Year > 0 {
			return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
		}
	}
	text := strings.TrimSpace(entity.MentionText)
	if text == "" {
		return ""
	}
	return extract.ParseDate(text)
}

// entityAmount prefers the API's normalized money value over re-parsing
// the mention text.
func entityAmount(entity *documentaipb.Document_Entity) float64 {
	if nv := entity.NormalizedValue; nv != nil {
		if m := nv.GetMoneyValue(); m != nil {
			return float64(m.Units) + float64(m.Nanos)/1e9
		}
	}
	return extract.ParseNumber(strings.TrimSpace(entity.MentionText))
}

// Close closes the underlying Document AI client.
func (p *Processor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
