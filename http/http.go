// Package http implements tutor.Backend against the study-assistant HTTP API.
//
// Streaming endpoints answer with a chunked text/plain body carrying raw
// incremental Markdown. The body is handed to the caller unread.
package http

const (
	askPath       = "/api/ask"
	summarizePath = "/api/summarize"
	uploadPath    = "/api/upload"

	// DefaultBaseURL is the backend the web client talks to in development.
	DefaultBaseURL = "http://localhost:8000"

	// uploadField is the multipart form field carrying the file.
	uploadField = "file"
)

// askRequest is the JSON body of POST /api/ask.
type askRequest struct {
	Question    string         `json:"question"`
	Department  string         `json:"department,omitempty"`
	DocumentIDs []string       `json:"document_ids,omitempty"`
	History     []historyEntry `json:"history,omitempty"`
}

type historyEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// summarizeRequest is the JSON body of POST /api/summarize.
type summarizeRequest struct {
	DocumentID string `json:"document_id"`
}

// uploadResponse is the JSON body returned by POST /api/upload.
type uploadResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
