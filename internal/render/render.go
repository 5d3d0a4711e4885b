package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/caselane/docforge/internal/models"
)

// RenderError marks a failed attempt against the render engine. The
// engine's own message is preserved verbatim for diagnostics.
type RenderError struct {
	Reason string
	Cause  error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return "render failed: " + e.Reason + ": " + e.Cause.Error()
	}
	return "render failed: " + e.Reason
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Client invokes the external render engine over HTTP. Render calls can
// run for minutes; the configured timeout is the only bound on them, so
// callers must keep this off any interactive request path.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	timeout    time.Duration
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{},
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

type renderRequest struct {
	Template string                     `json:"template"`
	Document *models.StructuredDocument `json:"document"`
}

// Render posts the structured document to the engine under the template
// selected for docType and returns the raw document bytes plus the
// engine's content type. Unknown document types deliberately fall back
// to the default template instead of erroring.
func (c *Client) Render(ctx context.Context, doc *models.StructuredDocument, docType string) ([]byte, string, error) {
	dt := models.LookupDocumentType(docType)
	if dt.Tag != docType {
		log.Printf("render: unknown document type %q, using default template %s", docType, dt.TemplateID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(renderRequest{Template: dt.TemplateID, Document: doc})
	if err != nil {
		return nil, "", &RenderError{Reason: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, "", &RenderError{Reason: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, "", &RenderError{Reason: fmt.Sprintf("engine timed out after %s", c.timeout)}
		}
		return nil, "", &RenderError{Reason: "engine unreachable", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RenderError{Reason: "read engine response", Cause: err}
	}

	if resp.StatusCode/100 != 2 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return nil, "", &RenderError{Reason: fmt.Sprintf("engine returned %d: %s", resp.StatusCode, snippet)}
	}
	if len(data) == 0 {
		return nil, "", &RenderError{Reason: "engine returned an empty document"}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	log.Printf("render: template %s produced %d bytes in %s", dt.TemplateID, len(data), time.Since(start).Round(time.Millisecond))
	return data, contentType, nil
}
