package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient calls any OpenAI-compatible endpoint through langchaingo
type LangChainClient struct {
	client *openai.LLM
	model  string
}

// NewLangChainClient creates the client. An empty key yields a client whose
// calls fail with ErrMissingAPIKey.
func NewLangChainClient(apiKey, baseURL, model string) (*LangChainClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &LangChainClient{model: model}, nil
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create openai-compatible client")
	}
	return &LangChainClient{client: client, model: model}, nil
}

func (c *LangChainClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.client == nil {
		return "", ErrMissingAPIKey
	}

	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		content[i] = llms.TextParts(msgType, msg.Content)
	}

	resp, err := c.client.GenerateContent(ctx, content,
		llms.WithModel(c.model),
		llms.WithTemperature(params.Temperature),
		llms.WithMaxTokens(params.MaxTokens),
		llms.WithTopP(params.TopP),
	)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrUnexpectedEnvelope
	}
	return resp.Choices[0].Content, nil
}
