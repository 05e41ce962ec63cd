package enrich

import (
	"context"

	"github.com/flipscout/flipscout/pkg/anthropic"
	"github.com/flipscout/flipscout/pkg/gemini"
	"github.com/flipscout/flipscout/pkg/openai"
)

// TextExtractor sends an analysis prompt to one provider and reduces the
// provider-shaped response to a single raw text blob for the normalizer.
// One implementation per provider, selected at construction time.
type TextExtractor interface {
	Provider() string
	Model() string
	Extract(ctx context.Context, prompt string, imageURLs []string) (string, error)
}

// openaiExtractor drives the Responses API, attaching listing images as
// inline input_image parts.
type openaiExtractor struct {
	client openai.Client
	model  string
}

func (e *openaiExtractor) Provider() string { return "openai" }
func (e *openaiExtractor) Model() string    { return e.model }

func (e *openaiExtractor) Extract(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	content := []openai.ContentPart{openai.TextPart(prompt)}
	for _, u := range imageURLs {
		content = append(content, openai.ImagePart(u))
	}

	resp, err := e.client.CreateResponse(ctx, openai.ResponseRequest{
		Model: e.model,
		Input: []openai.InputMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// geminiExtractor drives generateContent. Image URLs travel inside the
// prompt's listing JSON rather than as separate parts.
type geminiExtractor struct {
	client gemini.Client
	model  string
}

func (e *geminiExtractor) Provider() string { return "gemini" }
func (e *geminiExtractor) Model() string    { return e.model }

func (e *geminiExtractor) Extract(ctx context.Context, prompt string, _ []string) (string, error) {
	resp, err := e.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// anthropicExtractor drives the Messages API with inline image blocks.
type anthropicExtractor struct {
	client anthropic.Client
	model  string
}

func (e *anthropicExtractor) Provider() string { return "anthropic" }
func (e *anthropicExtractor) Model() string    { return e.model }

func (e *anthropicExtractor) Extract(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 1024,
		Messages: []anthropic.Message{{
			Role:      "user",
			Content:   prompt,
			ImageURLs: imageURLs,
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
