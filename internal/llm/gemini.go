package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider using Google's Gemini API
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a new Gemini chat provider
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiProvider{client: client, model: model, timeout: timeout}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate implements Provider
func (p *GeminiProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	system, conversation := splitSystem(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = genai.Ptr(int32(req.MaxTokens))
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", &UpstreamError{Provider: p.Name(), StatusCode: geminiStatus(err), Err: err}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", &UpstreamError{Provider: p.Name(), Err: errors.New("no content generated")}
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", &UpstreamError{Provider: p.Name(), Err: errors.New("no content generated")}
	}
	return sb.String(), nil
}

func geminiStatus(err error) int {
	var clientErr genai.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Code
	}
	var serverErr genai.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Code
	}
	return 0
}
