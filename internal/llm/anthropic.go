package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens is used when the request does not set a limit;
// the Messages API requires one.
const defaultAnthropicMaxTokens = 4096

// AnthropicProvider implements Provider using the Anthropic Messages API
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic chat provider
func NewAnthropicProvider(apiKey, model string, timeout time.Duration) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	)
	return &AnthropicProvider{client: client, model: model}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Generate implements Provider
func (p *AnthropicProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	system, conversation := splitSystem(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, m := range conversation {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	params.Temperature = anthropic.Float(float64(req.Temperature))
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", &UpstreamError{Provider: p.Name(), StatusCode: status, Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &UpstreamError{Provider: p.Name(), Err: errors.New("response contained no text")}
	}
	return sb.String(), nil
}
