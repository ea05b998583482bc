// Package analysis talks to the external document-structuring and LLM analysis
// service and shapes its output for API responses.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ideahub/mentorship-api/internal/config"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/metrics"
)

// Service names used in logs and metrics.
const (
	ServiceDocument = "document-service"
	ServiceAnalysis = "analysis-service"
	ServiceFeedback = "feedback-service"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 2048

// DocumentResult is what the document-structuring service derives from an uploaded file.
type DocumentResult struct {
	Transcript []domain.Document
	Structured domain.Document
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client calls the analysis service over HTTP with JSON bodies.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	documentPath string
	analysisPath string
	feedbackPath string
}

// NewClient builds a client from cfg. A zero timeout means no client-side limit.
func NewClient(cfg config.AnalysisConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

func NewClientWithHTTP(cfg config.AnalysisConfig, httpClient *http.Client) *Client {
	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		documentPath: cfg.ProcessDocumentPath,
		analysisPath: cfg.AnalysisPath,
		feedbackPath: cfg.FeedbackPath,
	}
}

type processDocumentRequest struct {
	PDFLink string `json:"pdf_link"`
}

type processDocumentResponse struct {
	Transcribe     json.RawMessage `json:"transcribe"`
	StructuredData domain.Document `json:"structured_data"`
}

type jsonDataRequest struct {
	JSONData any `json:"json_data"`
}

// ProcessDocument submits the URL of an uploaded file and returns its transcript
// and structured representation.
func (c *Client) ProcessDocument(ctx context.Context, fileURL string) (*DocumentResult, error) {
	var resp processDocumentResponse
	if err := c.post(ctx, ServiceDocument, c.documentPath, processDocumentRequest{PDFLink: fileURL}, &resp); err != nil {
		return nil, err
	}

	transcript, err := decodeTranscript(resp.Transcribe)
	if err != nil {
		return nil, fmt.Errorf("%s: decode transcript: %w", ServiceDocument, err)
	}
	structured := resp.StructuredData
	if structured == nil {
		structured = domain.Document{}
	}
	return &DocumentResult{Transcript: transcript, Structured: structured}, nil
}

// Analyze sends one transcript record and returns the analysis document as-is.
func (c *Client) Analyze(ctx context.Context, record domain.Document) (domain.Document, error) {
	var doc domain.Document
	if err := c.post(ctx, ServiceAnalysis, c.analysisPath, jsonDataRequest{JSONData: record}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = domain.Document{}
	}
	return doc, nil
}

// Feedback sends the full transcript and returns the feedback document as-is.
func (c *Client) Feedback(ctx context.Context, transcript []domain.Document) (domain.Document, error) {
	var doc domain.Document
	if err := c.post(ctx, ServiceFeedback, c.feedbackPath, jsonDataRequest{JSONData: transcript}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = domain.Document{}
	}
	return doc, nil
}

func (c *Client) post(ctx context.Context, service, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveExternalCall(service, start, err)
		if err != nil {
			log.Error().Err(err).Str("service", service).Dur("elapsed", time.Since(start)).Msg("external call failed")
		}
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

// decodeTranscript accepts a list of records, a single record, or nothing.
func decodeTranscript(raw json.RawMessage) ([]domain.Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.Document{}, nil
	}
	if trimmed[0] == '{' {
		var single domain.Document
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []domain.Document{single}, nil
	}
	var list []domain.Document
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Document{}
	}
	return list, nil
}
