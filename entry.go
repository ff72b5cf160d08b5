package tutor

import "time"

// ChatEntry is one turn in the transcript.
type ChatEntry struct {
	Role Role
	Text string
	// Interrupted is set on assistant entries whose stream ended with a
	// read error or cancellation. Text then ends with the annotation.
	Interrupted bool
	Timestamp   time.Time
}

// UploadedDocument is a file the backend has accepted for questioning.
type UploadedDocument struct {
	ID         string
	Name       string
	URI        string // backend-specific locator; empty for the study API
	MIMEType   string
	Size       int64
	UploadedAt time.Time
}
