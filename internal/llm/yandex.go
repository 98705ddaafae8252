package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultYandexBaseURL   = "https://llm.api.cloud.yandex.net/v1"
	defaultYandexMaxTokens = 2000
)

// YandexProvider implements Provider using the OpenAI compatible chat API of
// Yandex Foundation Models. Models are addressed as gpt://<folder>/<model>.
type YandexProvider struct {
	chat *OpenAIProvider
}

// NewYandexProvider creates a Yandex GPT provider. baseURL may be empty.
func NewYandexProvider(apiKey, folderID, model, baseURL string, timeout time.Duration) (*YandexProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Yandex API key is required")
	}
	if folderID == "" {
		return nil, fmt.Errorf("Yandex folder ID is required")
	}
	if model == "" {
		model = "yandexgpt-lite"
	}
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = folderClient{client: &http.Client{Timeout: timeout}, folderID: folderID}

	return &YandexProvider{
		chat: newChatProvider("yandex", cfg, fmt.Sprintf("gpt://%s/%s", folderID, model)),
	}, nil
}

func (p *YandexProvider) Name() string { return p.chat.Name() }

// Generate implements Provider
func (p *YandexProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultYandexMaxTokens
	}
	return p.chat.Generate(ctx, req)
}

// folderClient bills every request to the configured cloud folder
type folderClient struct {
	client   *http.Client
	folderID string
}

func (c folderClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("x-folder-id", c.folderID)
	return c.client.Do(req)
}
