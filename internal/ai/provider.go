package ai

import (
	"context"
	"errors"
)

const (
	// SystemPrompt is sent ahead of every user message.
	SystemPrompt = "You are a helpful assistant. Provide clear, concise, and helpful responses."

	MaxTokens   = 500
	Temperature = 0.7
)

var (
	ErrNoCredential    = errors.New("ai: credential is required")
	ErrEmptyCompletion = errors.New("ai: empty completion")
)

type Message struct {
	Role    string
	Content string
}

// Provider runs one chat completion.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Completer answers a single user message with the fixed prompt template.
type Completer interface {
	Complete(ctx context.Context, message, credential string) (string, error)
}

// Prompt builds the fixed request for message.
func Prompt(message string) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: message},
	}
}
