package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"contractlens/internal/config"
	"contractlens/internal/llm"
	"contractlens/internal/port"
)

const (
	defaultModel = "gemini-2.0-flash"
	providerName = "gemini"
)

// Client implements port.TextGenerator using the Gemini API through the genai SDK.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int
	temp      float64
}

// NewClient creates a Gemini client from a provider config. A non-empty
// Endpoint overrides the SDK base URL.
func NewClient(ctx context.Context, cfg *config.ProviderConfig) (*Client, error) {
	return NewClientWithEndpoint(ctx, cfg, cfg.Endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API base URL (for testing).
func NewClientWithEndpoint(ctx context.Context, cfg *config.ProviderConfig, endpoint string) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", providerName)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Client{
		client:    client,
		model:     model,
		maxTokens: cfg.MaxOutputTokens,
		temp:      cfg.Temperature,
	}, nil
}

func (c *Client) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateOutput, error) {
	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	temp := req.Temperature
	if temp == 0 {
		temp = c.temp
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), gc)
	if err != nil {
		return nil, classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, llm.ShapeError("%s response has no candidates", providerName)
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return nil, llm.ShapeError("%s response has no content parts", providerName)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, llm.EmptyError(providerName)
	}

	model := c.model
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}
	return &port.GenerateOutput{
		Text:         text,
		Model:        model,
		FinishReason: string(cand.FinishReason),
	}, nil
}

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.StatusError(providerName, apiErr.Code, []byte(apiErr.Message), retryDelay(apiErr.Details))
	}
	return llm.TransportError(providerName, err)
}

// retryDelay reads google.rpc.RetryInfo from the error details and returns
// it as whole seconds in Retry-After form, or "" when absent.
func retryDelay(details []map[string]any) string {
	for _, d := range details {
		if t, _ := d["@type"].(string); t != retryInfoType {
			continue
		}
		raw, _ := d["retryDelay"].(string)
		delay, err := time.ParseDuration(raw)
		if err != nil || delay <= 0 {
			return ""
		}
		return strconv.Itoa(int(math.Ceil(delay.Seconds())))
	}
	return ""
}

func init() {
	llm.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.TextGenerator, error) {
		return NewClient(context.Background(), cfg)
	})
}
