// Package ocr turns scanned documents into plain text via the Google
// Cloud Vision API, so the classifier and extractor can work from text
// even when the collaborator gets no image attachment.
//
// PDFs go through synchronous file annotation, which the API caps at
// 20MB and 5 pages per request. Images (JPEG, PNG, TIFF) go through
// document text detection directly.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/svedin/kontera/internal/logger"
)

const (
	// MaxDocumentSizeBytes is the synchronous processing size limit.
	MaxDocumentSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the synchronous per-request page limit for PDFs.
	MaxPagesSync = 5
)

// Result is the text recognized in a document, with detection metadata.
type Result struct {
	Text          string        `json:"text"`
	PageCount     int           `json:"page_count"`
	Confidence    float32       `json:"confidence"` // mean over detections, 0..1
	LanguageCodes []string      `json:"language_codes,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Recognizer extracts text from document bytes.
type Recognizer interface {
	Recognize(ctx context.Context, document []byte, mediaType string) (*Result, error)
}

// VisionRecognizer implements Recognizer over the Cloud Vision API.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionRecognizer creates a recognizer using ambient Google Cloud
// credentials (GOOGLE_APPLICATION_CREDENTIALS, GOOGLE_CREDENTIALS, or the
// metadata server).
func NewVisionRecognizer(ctx context.Context) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapRecognitionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapRecognitionError(op, err, "failed to create Vision client")
	}

	return &VisionRecognizer{
		client: client,
		log:    logger.WithComponent("ocr"),
	}, nil
}

// NewVisionRecognizerWithClient creates a recognizer over an existing client.
func NewVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *VisionRecognizer {
	return &VisionRecognizer{
		client: client,
		log:    logger.WithComponent("ocr"),
	}
}

// Recognize extracts text from the document, routing PDFs to file
// annotation and everything else to image text detection.
func (r *VisionRecognizer) Recognize(ctx context.Context, document []byte, mediaType string) (*Result, error) {
	const op = "Recognize"

	if len(document) == 0 {
		return nil, WrapRecognitionError(op, ErrInvalidDocument, "empty document")
	}
	if len(document) > MaxDocumentSizeBytes {
		return nil, WrapRecognitionError(op, ErrDocumentTooLarge, fmt.Sprintf("document size: %d bytes", len(document)))
	}

	start := time.Now()
	var result *Result
	var err error
	if isPDF(document, mediaType) {
		result, err = r.recognizePDF(ctx, document)
	} else {
		result, err = r.recognizeImage(ctx, document)
	}
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)

	r.log.Debug().
		Int("pages", result.PageCount).
		Int("text_len", len(result.Text)).
		Float32("confidence", result.Confidence).
		Dur("duration", result.Duration).
		Msg("Text recognition completed")

	return result, nil
}

func (r *VisionRecognizer) recognizePDF(ctx context.Context, document []byte) (*Result, error) {
	const op = "recognizePDF"

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{
				Content:  document,
				MimeType: "application/pdf",
			},
			Features: []*visionpb.Feature{{
				Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
			}},
		}},
	}

	resp, err := r.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, "no response from Vision API")
	}
	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	return collectPages(fileResp)
}

func (r *VisionRecognizer) recognizeImage(ctx context.Context, document []byte) (*Result, error) {
	const op = "recognizeImage"

	resp, err := r.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: document},
			Features: []*visionpb.Feature{{
				Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
			}},
		}},
	})
	if err != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, "no response from Vision API")
	}
	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}
	annotation := imageResp.FullTextAnnotation
	if annotation == nil || strings.TrimSpace(annotation.Text) == "" {
		return nil, WrapRecognitionError(op, ErrEmptyDocument, "")
	}

	result := &Result{
		Text:      annotation.Text,
		PageCount: 1,
	}
	var confSum float32
	var confCount int
	for _, page := range annotation.Pages {
		if page.Confidence > 0 {
			confSum += page.Confidence
			confCount++
		}
	}
	if confCount > 0 {
		result.Confidence = confSum / float32(confCount)
	}
	result.LanguageCodes = pageLanguages(annotation.Pages)

	return result, nil
}

// collectPages concatenates per-page text in reading order and averages
// the detection confidences.
func collectPages(fileResp *visionpb.AnnotateFileResponse) (*Result, error) {
	const op = "collectPages"

	if len(fileResp.Responses) == 0 {
		return nil, WrapRecognitionError(op, ErrEmptyDocument, "")
	}
	if len(fileResp.Responses) > MaxPagesSync {
		return nil, WrapRecognitionError(op, ErrTooManyPages, fmt.Sprintf("document has %d pages", len(fileResp.Responses)))
	}

	var text strings.Builder
	var confSum float32
	var confCount int
	languageSet := make(map[string]bool)

	for idx, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("page %d: %s", idx+1, page.Error.Message))
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if idx > 0 {
			fmt.Fprintf(&text, "\n\n--- Page %d ---\n\n", idx+1)
		}
		text.WriteString(page.FullTextAnnotation.Text)

		for _, annotation := range page.TextAnnotations {
			if annotation.Confidence > 0 {
				confSum += annotation.Confidence
				confCount++
			}
		}
		for _, lang := range pageLanguages(page.FullTextAnnotation.Pages) {
			languageSet[lang] = true
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, WrapRecognitionError(op, ErrEmptyDocument, "")
	}

	result := &Result{
		Text:      text.String(),
		PageCount: len(fileResp.Responses),
	}
	if confCount > 0 {
		result.Confidence = confSum / float32(confCount)
	}
	for lang := range languageSet {
		result.LanguageCodes = append(result.LanguageCodes, lang)
	}

	return result, nil
}

// pageLanguages collects the distinct language codes detected on pages.
func pageLanguages(pages []*visionpb.Page) []string {
	seen := make(map[string]bool)
	var out []string
	for _, page := range pages {
		if page.Property == nil {
			continue
		}
		for _, lang := range page.Property.DetectedLanguages {
			if lang.LanguageCode != "" && !seen[lang.LanguageCode] {
				seen[lang.LanguageCode] = true
				out = append(out, lang.LanguageCode)
			}
		}
	}
	return out
}

func isPDF(document []byte, mediaType string) bool {
	if mediaType == "application/pdf" {
		return true
	}
	return bytes.HasPrefix(document, []byte("%PDF"))
}

// Close closes the underlying Vision client.
func (r *VisionRecognizer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
