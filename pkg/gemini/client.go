// Package gemini performs generateContent calls against the Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/flipscout/flipscout/internal/resilience"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-flash-preview"

	// analysisAttempts bounds the analysis transport's retry budget.
	analysisAttempts = 6
)

// Client performs content generation against the Gemini API.
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (*GenerateResponse, error)
}

// GenerateResponse is the generateContent payload: candidates holding
// content parts.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a single generation candidate.
type Candidate struct {
	Content Content `json:"content"`
}

// Content holds the candidate's content parts.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a single text part.
type Part struct {
	Text string `json:"text"`
}

// Text reduces the response to a single text blob: the first candidate's
// parts joined by newlines. Empty when there are no candidates.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Candidates[0].Content.Parts))
	for _, p := range r.Candidates[0].Content.Parts {
		parts = append(parts, p.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	model     string
	http      *http.Client
	transport *resilience.Transport
}

// NewClient creates a Gemini API client with a retrying transport.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.transport = resilience.NewTransport("gemini", c.http, resilience.RetryConfig{
		MaxAttempts:    analysisAttempts,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     2 * time.Minute,
		Multiplier:     2.0,
	})
	return c
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []Part `json:"parts"`
}

func (c *httpClient) GenerateContent(ctx context.Context, prompt string) (*GenerateResponse, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []Part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent?key=" + url.QueryEscape(c.apiKey)
	respBody, err := c.transport.Send(ctx, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "gemini: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: send request")
	}

	var result GenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "gemini: unmarshal response")
	}
	return &result, nil
}
