package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentTooLarge is returned when the document exceeds the 20MB
	// synchronous processing limit of the Vision API.
	ErrDocumentTooLarge = errors.New("document exceeds the maximum size limit (20MB)")

	// ErrInvalidDocument is returned when the bytes are not a readable
	// PDF or image.
	ErrInvalidDocument = errors.New("invalid or corrupted document")

	// ErrRecognitionFailed is returned when the Vision API fails to
	// process the document.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrMissingCredentials is returned when no Google Cloud credentials
	// are available in the environment.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")

	// ErrTooManyPages is returned when a PDF exceeds the synchronous
	// per-request page limit.
	ErrTooManyPages = errors.New("document has too many pages (maximum 5 for synchronous processing)")

	// ErrEmptyDocument is returned when no readable text was found.
	ErrEmptyDocument = errors.New("document contains no readable text")
)

// RecognitionError wraps OCR failures with operation context.
type RecognitionError struct {
	Op      string
	Err     error
	Details string
}

func (e *RecognitionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

func (e *RecognitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRecognitionError wraps err as a RecognitionError unless it already is one.
func WrapRecognitionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var rerr *RecognitionError
	if errors.As(err, &rerr) {
		return err
	}
	return &RecognitionError{Op: op, Err: err, Details: details}
}
