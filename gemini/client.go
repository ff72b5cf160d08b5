package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/tutor"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ tutor.Backend = (*Client)(nil)

// Client implements [tutor.Backend] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger for request records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Ask streams the model's answer to q.
func (c *Client) Ask(ctx context.Context, q tutor.Question) (io.ReadCloser, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	contents := ConvertQuestion(q)
	c.logger.DebugContext(ctx, "ask",
		slog.String("model", c.model),
		slog.Int("contents", len(contents)),
		slog.Int("documents", len(q.Documents)),
	)
	return c.stream(ctx, contents, BuildConfig(q.Department)), nil
}

// Summarize streams a summary of a document previously uploaded through
// the Files API.
func (c *Client) Summarize(ctx context.Context, doc tutor.UploadedDocument) (io.ReadCloser, error) {
	if doc.URI == "" {
		return nil, fmt.Errorf("gemini: document %q has no file URI: %w", doc.Name, tutor.ErrValidation)
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			fileDataPart(doc),
			{Text: summarizePrompt},
		},
	}}
	return c.stream(ctx, contents, BuildConfig("")), nil
}

// Upload sends r to the Files API. The MIME type is derived from the
// extension of name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (tutor.UploadedDocument, error) {
	f, err := c.client.Files.Upload(ctx, r, &genai.UploadFileConfig{
		MIMEType:    MIMEType(name),
		DisplayName: filepath.Base(name),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "upload failed", slog.String("name", name), slog.Any("error", err))
		return tutor.UploadedDocument{}, fmt.Errorf("gemini: upload %s: %w", name, err)
	}
	doc := tutor.UploadedDocument{
		ID:         f.Name,
		Name:       f.DisplayName,
		URI:        f.URI,
		MIMEType:   f.MIMEType,
		UploadedAt: time.Now(),
	}
	if f.SizeBytes != nil {
		doc.Size = *f.SizeBytes
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(name)
	}
	c.logger.InfoContext(ctx, "document uploaded", slog.String("id", doc.ID), slog.String("uri", doc.URI))
	return doc, nil
}

func (c *Client) stream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	seq := c.client.Models.GenerateContentStream(ctx, c.model, contents, config)
	return newBody(ctx, cancel, seq)
}

// BuildConfig returns the generation config for a question in department.
// Exported for testing.
func BuildConfig(department string) *genai.GenerateContentConfig {
	var sb strings.Builder
	sb.WriteString("You are a patient study assistant. Answer in Markdown. ")
	sb.WriteString("Put code in fenced code blocks tagged with their language. ")
	sb.WriteString("Ground answers in the attached documents when there are any.")
	if department != "" {
		sb.WriteString("\nThe student is studying in the ")
		sb.WriteString(department)
		sb.WriteString(" department; prefer its terminology and examples.")
	}
	return &genai.GenerateContentConfig{
		MaxOutputTokens: defaultMaxTokens,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: sb.String()}},
		},
	}
}

// ConvertQuestion converts a Question into genai Contents: the history
// followed by one user turn carrying the attached files and the question.
// Exported for testing.
func ConvertQuestion(q tutor.Question) []*genai.Content {
	contents := ConvertHistory(q.History)
	var parts []*genai.Part
	for _, d := range q.Documents {
		if d.URI == "" {
			continue
		}
		parts = append(parts, fileDataPart(d))
	}
	parts = append(parts, &genai.Part{Text: q.Text})
	return append(contents, &genai.Content{Role: "user", Parts: parts})
}

// ConvertHistory converts transcript entries to genai Contents. Entries
// with empty text are skipped.
// Exported for testing.
func ConvertHistory(entries []tutor.ChatEntry) []*genai.Content {
	var result []*genai.Content
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		role := "user"
		if e.Role == tutor.RoleAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: e.Text}},
		})
	}
	return result
}

// MIMEType returns the media type for name's extension, without
// parameters. Unknown extensions are sent as plain text.
func MIMEType(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		return "text/plain"
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func fileDataPart(d tutor.UploadedDocument) *genai.Part {
	return &genai.Part{FileData: &genai.FileData{FileURI: d.URI, MIMEType: d.MIMEType}}
}
