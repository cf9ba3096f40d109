package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/llm"
	"contractlens/internal/llm/claude"
	"contractlens/internal/port"
)

func newTestClient(serverURL string) *claude.Client {
	cfg := &config.ProviderConfig{
		Provider:    "claude",
		APIKey:      "test-anthropic-key",
		Model:       "claude-sonnet-4-20250514",
		TimeoutSecs: 30,
	}
	return claude.NewClientWithEndpoint(cfg, serverURL)
}

func TestClient_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-anthropic-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(4000), reqBody["max_tokens"])

		_, _ = w.Write([]byte(`{
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"analysis\": "}, {"type": "text", "text": "[]}"}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "Analyze."})

	require.NoError(t, err)
	assert.Equal(t, `{"analysis": []}`, out.Text)
	assert.Equal(t, "end_turn", out.FinishReason)
}

func TestClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "p"})

	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "claude", rlErr.Provider)
}

func TestClient_Generate_NoTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [{"type": "tool_use"}], "stop_reason": "tool_use"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "p"})

	assert.Equal(t, domain.KindInvalidResponseShape, domain.ChunkErrorKindOf(err))
}

func TestClient_Generate_BlankText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": ""}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "p"})

	assert.Equal(t, domain.KindEmptyResponse, domain.ChunkErrorKindOf(err))
}
