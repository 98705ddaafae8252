package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using the OpenAI chat API or any
// compatible endpoint
type OpenAIProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI chat provider. baseURL may be empty.
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	if model == "" {
		model = "gpt-4o-mini"
	}

	return newChatProvider("openai", cfg, model), nil
}

func newChatProvider(name string, cfg openai.ClientConfig, model string) *OpenAIProvider {
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

// Generate implements Provider
func (p *OpenAIProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", &UpstreamError{Provider: p.Name(), StatusCode: openAIStatus(err), Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Provider: p.Name(), Err: errors.New("no completion choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
