package docai

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is returned when the document bytes cannot be
	// processed by Document AI.
	ErrInvalidDocument = errors.New("invalid or corrupted document")

	// ErrProcessingFailed is returned when Document AI processing fails.
	ErrProcessingFailed = errors.New("document AI processing failed")

	// ErrInvalidCredentials is returned when Google Cloud credentials are
	// invalid or lack the necessary permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when no Google Cloud credentials
	// are configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the processor configuration
	// is incomplete.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the configured processor does
	// not exist or is not accessible.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when the API quota is exhausted.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")

	// ErrDocumentTooLarge is returned when the document exceeds the
	// processing size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")
)

// ProcessingError wraps Document AI failures with operation context.
type ProcessingError struct {
	Op      string
	Err     error
	Details string
}

func (e *ProcessingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("docai: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("docai: %s failed: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func (e *ProcessingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapProcessingError wraps err as a ProcessingError unless it already is one.
func WrapProcessingError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return err
	}
	return &ProcessingError{Op: op, Err: err, Details: details}
}
