// Package openai performs Responses API calls against the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/flipscout/flipscout/internal/resilience"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4.1-mini"

	// analysisAttempts bounds the analysis transport's retry budget.
	analysisAttempts = 6
)

// Client performs response generation against the OpenAI API.
type Client interface {
	CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error)
}

// ResponseRequest is the request body for POST /responses.
type ResponseRequest struct {
	Model string         `json:"model"`
	Input []InputMessage `json:"input"`
}

// InputMessage is a single input message with typed content parts.
type InputMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is a typed input part: input_text or input_image.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// TextPart builds an input_text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "input_text", Text: text}
}

// ImagePart builds an input_image content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "input_image", ImageURL: url}
}

// Response is the response from POST /responses: output blocks holding typed
// content parts, plus an optional flattened output_text.
type Response struct {
	Output     []OutputBlock `json:"output"`
	OutputText string        `json:"output_text,omitempty"`
}

// OutputBlock is one output entry.
type OutputBlock struct {
	Content []OutputContent `json:"content"`
}

// OutputContent is a typed output content part.
type OutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text reduces the response to a single text blob: every output_text/text
// part joined by newlines, falling back to the flattened output_text field.
func (r *Response) Text() string {
	var collected []string
	for _, block := range r.Output {
		for _, content := range block.Content {
			if (content.Type == "output_text" || content.Type == "text") && content.Text != "" {
				collected = append(collected, content.Text)
			}
		}
	}
	if len(collected) == 0 && r.OutputText != "" {
		collected = append(collected, r.OutputText)
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
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

// NewClient creates an OpenAI API client with a retrying transport.
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
	c.transport = resilience.NewTransport("openai", c.http, resilience.RetryConfig{
		MaxAttempts:    analysisAttempts,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     2 * time.Minute,
		Multiplier:     2.0,
	})
	return c
}

func (c *httpClient) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "openai: marshal request")
	}

	respBody, err := c.transport.Send(ctx, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "openai: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		return httpReq, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "openai: send request")
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "openai: unmarshal response")
	}
	return &result, nil
}
