package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"contractlens/internal/config"
	"contractlens/internal/llm"
	"contractlens/internal/port"
)

const (
	apiURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel = "meta-llama/llama-3.3-70b-instruct:free"
	providerName = "openrouter"
)

// Client implements port.TextGenerator using the OpenRouter Chat Completions API.
type Client struct {
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	temp      float64
	client    *http.Client
}

// NewClient creates an OpenRouter client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  endpoint,
		maxTokens: cfg.MaxOutputTokens,
		temp:      cfg.Temperature,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatResponse models the subset of the completion envelope that is read.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateOutput, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.maxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.temp
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, llm.StatusError(providerName, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, c.model)
}

func parseResponse(body []byte, model string) (*port.GenerateOutput, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.ShapeError("unmarshaling %s response: %v", providerName, err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.ShapeError("%s response has no choices", providerName)
	}
	choice := resp.Choices[0]
	if choice.Message == nil || choice.Message.Content == nil {
		return nil, llm.ShapeError("%s response has no message content", providerName)
	}

	text := *choice.Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, llm.EmptyError(providerName)
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &port.GenerateOutput{
		Text:         text,
		Model:        model,
		FinishReason: choice.FinishReason,
	}, nil
}

func init() {
	llm.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.TextGenerator, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", providerName)
		}
		return NewClient(cfg), nil
	})
}
