package tutor

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a question or session operation failed validation.
	ErrValidation = errors.New("validation error")

	// ErrDocumentNotFound indicates the referenced uploaded document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrBackend indicates the study backend rejected a request.
	ErrBackend = errors.New("backend error")
)
