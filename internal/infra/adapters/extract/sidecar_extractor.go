package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"document-chat-assistant/internal/domain/ports/adapter"
)

var _ adapter.DocumentExtractor = (*SidecarExtractor)(nil)

// SidecarExtractor implements the extraction port. Plain-text types are
// decoded locally; PDFs are sent to an extraction sidecar that answers
// {text, pages, error} JSON.
type SidecarExtractor struct {
	baseURL string
	client  *http.Client
}

func NewSidecarExtractor(baseURL string, timeout time.Duration) *SidecarExtractor {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SidecarExtractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// extractResponse is the sidecar response format.
type extractResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

func (e *SidecarExtractor) Supports(mimeType string) bool {
	switch normalizeMIME(mimeType) {
	case "application/pdf", "text/plain", "text/markdown":
		return true
	}
	return false
}

func (e *SidecarExtractor) Extract(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	switch normalizeMIME(mimeType) {
	case "text/plain", "text/markdown":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: not valid UTF-8", filename)
		}
		return string(data), nil
	case "application/pdf":
		return e.extractPDF(ctx, data)
	}
	return "", fmt.Errorf("unrecognized mime type %q", mimeType)
}

func (e *SidecarExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("extraction service: %s", result.Error)
	}
	return result.Text, nil
}

// Healthy checks if the extraction sidecar is reachable.
func (e *SidecarExtractor) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// normalizeMIME strips parameters like "; charset=utf-8" and lowercases.
func normalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
