package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RelayRequest is the body of POST /chat.
type RelayRequest struct {
	Message string `json:"message"`
	APIKey  string `json:"apiKey,omitempty"`
}

type RelayResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RelayClient forwards messages to a relay process instead of calling the
// provider itself.
type RelayClient struct {
	client *resty.Client
}

func NewRelayClient(baseURL string, timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RelayClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

func (c *RelayClient) Complete(ctx context.Context, message, credential string) (string, error) {
	var out RelayResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(RelayRequest{Message: message, APIKey: credential}).
		SetResult(&out).
		SetError(&out).
		Post("/chat")
	if err != nil {
		return "", fmt.Errorf("relay: %w", err)
	}
	if resp.IsError() {
		if out.Error != "" {
			return "", fmt.Errorf("relay: status %d: %s", resp.StatusCode(), out.Error)
		}
		return "", fmt.Errorf("relay: status %d", resp.StatusCode())
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Response, nil
}

// Health calls GET /health.
func (c *RelayClient) Health(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("relay: status %d", resp.StatusCode())
	}
	return nil
}
