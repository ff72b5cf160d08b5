package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/tutor"
)

// Interface compliance check.
var _ tutor.Backend = (*Client)(nil)

// Client implements [tutor.Backend] for the study-assistant HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client must not set a
// Timeout shorter than the longest expected answer: the body is read
// after Do returns.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for request records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new [Client] for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ask posts the question and returns the streaming answer body.
func (c *Client) Ask(ctx context.Context, q tutor.Question) (io.ReadCloser, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	req := askRequest{
		Question:   q.Text,
		Department: q.Department,
		History:    convertHistory(q.History),
	}
	for _, d := range q.Documents {
		req.DocumentIDs = append(req.DocumentIDs, d.ID)
	}
	return c.stream(ctx, askPath, req)
}

// Summarize requests a streaming summary of an uploaded document.
func (c *Client) Summarize(ctx context.Context, doc tutor.UploadedDocument) (io.ReadCloser, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("http: document has no ID: %w", tutor.ErrValidation)
	}
	return c.stream(ctx, summarizePath, summarizeRequest{DocumentID: doc.ID})
}

// Upload sends r as a multipart file named name. The backend decides how
// to extract text from it.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (tutor.UploadedDocument, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(uploadField, filepath.Base(name))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		pr.Close()
		return tutor.UploadedDocument{}, fmt.Errorf("http: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		pr.Close()
		c.logger.ErrorContext(ctx, "upload failed", slog.String("name", name), slog.Any("error", err))
		return tutor.UploadedDocument{}, fmt.Errorf("http: upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return tutor.UploadedDocument{}, parseHTTPError(resp)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return tutor.UploadedDocument{}, fmt.Errorf("http: decode upload response: %w", err)
	}
	if out.ID == "" {
		return tutor.UploadedDocument{}, fmt.Errorf("http: upload response has no id: %w", tutor.ErrBackend)
	}
	if out.Name == "" {
		out.Name = filepath.Base(name)
	}
	c.logger.InfoContext(ctx, "document uploaded",
		slog.String("id", out.ID),
		slog.String("name", out.Name),
		slog.Duration("elapsed", c.now().Sub(start)),
	)
	return tutor.UploadedDocument{
		ID:         out.ID,
		Name:       out.Name,
		MIMEType:   out.MIMEType,
		Size:       out.Size,
		UploadedAt: c.now(),
	}, nil
}

func (c *Client) stream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.ErrorContext(ctx, "request failed", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("http: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.logger.ErrorContext(ctx, "request rejected",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Any("error", err),
		)
		return nil, err
	}
	c.logger.DebugContext(ctx, "stream opened", slog.String("path", path))
	return resp.Body, nil
}

func convertHistory(entries []tutor.ChatEntry) []historyEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]historyEntry, len(entries))
	for i, e := range entries {
		out[i] = historyEntry{Role: string(e.Role), Text: e.Text}
	}
	return out
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("http: HTTP %d (failed to read body: %w): %w", resp.StatusCode, err, tutor.ErrBackend)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || (apiErr.Error == "" && apiErr.Detail == "") {
		return fmt.Errorf("http: HTTP %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), tutor.ErrBackend)
	}
	msg := apiErr.Error
	if msg == "" {
		msg = apiErr.Detail
	}
	return fmt.Errorf("http: HTTP %d: %s: %w", resp.StatusCode, msg, tutor.ErrBackend)
}
