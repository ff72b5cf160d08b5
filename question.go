package tutor

import "fmt"

// Question is a single ask sent to the backend.
type Question struct {
	Text       string
	Department string
	Documents  []UploadedDocument
	History    []ChatEntry
}

// Validate checks universal constraints on Question.
// Backends may apply additional backend-specific validation.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question must not be empty: %w", ErrValidation)
	}
	if len(q.Text) > MaxQuestionLength {
		return fmt.Errorf("question is %d bytes, limit is %d: %w", len(q.Text), MaxQuestionLength, ErrValidation)
	}
	for i, d := range q.Documents {
		if d.ID == "" {
			return fmt.Errorf("document %d has no ID: %w", i, ErrValidation)
		}
	}
	return nil
}
