package claude

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
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
	providerName = "claude"

	// The Messages API requires max_tokens.
	defaultMaxTokens = 4000
)

// Client implements port.TextGenerator using the Anthropic Messages API.
type Client struct {
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	temp      float64
	client    *http.Client
}

// NewClient creates a Claude client from a provider config.
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
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  endpoint,
		maxTokens: maxTokens,
		temp:      cfg.Temperature,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Client) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateOutput, error) {
	body := messagesRequest{
		Model:       c.model,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
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
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.StatusError(providerName, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, c.model)
}

func parseResponse(body []byte, model string) (*port.GenerateOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.ShapeError("unmarshaling %s response: %v", providerName, err)
	}

	var sb strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return nil, llm.ShapeError("%s response has no text content", providerName)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, llm.EmptyError(providerName)
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &port.GenerateOutput{
		Text:         text,
		Model:        model,
		FinishReason: resp.StopReason,
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
