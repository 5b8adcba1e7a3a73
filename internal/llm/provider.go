// Package llm talks to the chat completion backends.
package llm

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrMissingAPIKey is returned when a keyed provider has no key configured
	ErrMissingAPIKey = errors.New("llm api key not configured")
	// ErrUnexpectedEnvelope is returned when no known response shape carries text
	ErrUnexpectedEnvelope = errors.New("unexpected api response format")
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the sampling parameters sent with every request
type Params struct {
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	TopP         float64 `json:"top_p"`
	ResultFormat string  `json:"result_format"`
}

// DefaultParams are the parameters the assistant is tuned for
func DefaultParams() Params {
	return Params{
		Temperature:  0.7,
		MaxTokens:    200,
		TopP:         0.8,
		ResultFormat: "message",
	}
}

// Completer produces the assistant reply for a conversation
type Completer interface {
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
}

// StatusError is a non-2xx answer from the model API
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qwen api error (%d): %s", e.Code, e.Message)
}
