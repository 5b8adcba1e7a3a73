package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Response paths tried in order when extracting the reply text
var envelopePaths = []string{
	"output.choices.0.message.content",
	"output.text",
	"text",
	"output",
}

// DashScopeClient calls the DashScope text generation API, either directly
// or through a proxy that holds the key
type DashScopeClient struct {
	endpoint   string
	apiKey     string
	model      string
	requireKey bool
	client     *http.Client
}

// NewDashScopeClient creates a client that sends apiKey as a bearer token
func NewDashScopeClient(endpoint, apiKey, model string, timeout time.Duration) *DashScopeClient {
	return &DashScopeClient{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		requireKey: true,
		client:     &http.Client{Timeout: timeout},
	}
}

// NewProxyClient creates a client for a proxy endpoint; no key leaves this process
func NewProxyClient(endpoint, model string, timeout time.Duration) *DashScopeClient {
	return &DashScopeClient{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []Message `json:"messages"`
	} `json:"input"`
	Parameters Params `json:"parameters"`
}

func (c *DashScopeClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.requireKey && c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var body generationRequest
	body.Model = c.model
	body.Input.Messages = messages
	body.Parameters = params

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "encode generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build generation request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-DashScope-SSE", "disable")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "call generation api")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read generation response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	return ExtractText(raw)
}

func errorMessage(raw []byte, code int) string {
	if m := gjson.GetBytes(raw, "message"); m.String() != "" {
		return m.String()
	}
	if m := gjson.GetBytes(raw, "error.message"); m.String() != "" {
		return m.String()
	}
	return http.StatusText(code)
}

// ExtractText pulls the reply out of any of the known response envelopes
func ExtractText(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.Wrap(ErrUnexpectedEnvelope, "invalid json")
	}
	for _, path := range envelopePaths {
		r := gjson.GetBytes(raw, path)
		if r.Exists() && r.Type != gjson.Null && r.String() != "" {
			return r.String(), nil
		}
	}
	return "", ErrUnexpectedEnvelope
}
