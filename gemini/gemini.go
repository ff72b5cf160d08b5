// Package gemini implements [tutor.Backend] directly against the Google
// Gemini API.
//
// It wraps the google.golang.org/genai SDK. Streaming answers are pulled
// from the SDK's iter.Seq2 iterator and their text parts written into an
// io.Pipe, so callers consume them exactly like an HTTP response body.
// Uploads go through the Files API.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192

	summarizePrompt = "Summarize this document for a student. Use headings and bullet points, and keep code examples in fenced code blocks."
)
