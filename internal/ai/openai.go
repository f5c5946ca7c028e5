package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI itself, OpenRouter).
type OpenAIProvider struct {
	client *resty.Client
	apiKey string
	model  string
	name   string
}

func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return newOpenAICompatible("openai", baseURL, apiKey, model, timeout)
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = "openrouter/auto"
	}
	p := newOpenAICompatible("openrouter", baseURL, apiKey, model, timeout)
	if siteURL != "" {
		p.client.SetHeader("HTTP-Referer", siteURL)
	}
	if appName != "" {
		p.client.SetHeader("X-Title", appName)
	}
	return p
}

func newOpenAICompatible(name, baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		apiKey: apiKey,
		model:  model,
		name:   name,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return "", ErrNoCredential
	}

	reqBody := openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
		Messages: func() []openai.ChatCompletionMessage {
			out := make([]openai.ChatCompletionMessage, 0, len(messages))
			for _, m := range messages {
				out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	var decoded openai.ChatCompletionResponse
	var apiErr openai.ErrorResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(reqBody).
		SetResult(&decoded).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}

	if resp.IsError() {
		if apiErr.Error != nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%s: status %d: %s", p.name, resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("%s: status %d", p.name, resp.StatusCode())
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode())
	}

	if len(decoded.Choices) == 0 {
		return "", errors.Join(ErrEmptyCompletion, fmt.Errorf("%s: no choices", p.name))
	}
	content := decoded.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
