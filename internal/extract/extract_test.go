package extract_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractlens/internal/domain"
	"contractlens/internal/extract"
)

const analysisJSON = `{"analysis": [{"clause_text": "The landlord may enter at any time.", "risk_score": 9, "explanation": "No notice.", "recommendation": "Require 24 hours notice."}]}`

func TestExtract_PlainJSON(t *testing.T) {
	obj, err := extract.Extract(analysisJSON, "analysis")

	require.NoError(t, err)
	assert.Contains(t, obj, "analysis")
}

func TestExtract_ProseAndFences(t *testing.T) {
	raw := "Here is my analysis of the contract:\n\n```json\n" + analysisJSON + "\n```\n\nLet me know if you need anything else."

	obj, err := extract.Extract(raw, "analysis")

	require.NoError(t, err)
	var want map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(analysisJSON), &want))
	assert.JSONEq(t, string(want["analysis"]), string(obj["analysis"]))
}

func TestExtract_FenceOnlyFallback(t *testing.T) {
	raw := "```json\n{\"summary\": \"ok\"}\n```"

	obj, err := extract.Extract(raw, "summary")

	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(obj["summary"]))
}

func TestExtract_NestedBracesInsideStrings(t *testing.T) {
	raw := `Result: {"humanized_text": "You pay {monthly} rent.", "key_points": ["a"]} done`

	var s domain.Simplification
	err := extract.Into(raw, "humanized_text", &s)

	require.NoError(t, err)
	assert.Equal(t, "You pay {monthly} rent.", s.HumanizedText)
	assert.Equal(t, []string{"a"}, s.KeyPoints)
}

func TestExtract_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json at all", "I could not find any risky clauses in this text."},
		{"truncated object", `{"analysis": [{"clause_text": "The tenant shall`},
		{"empty", ""},
		{"fenced garbage", "```json\nnot json\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := extract.Extract(tt.raw, "analysis")

			assert.Nil(t, obj)
			var exErr *extract.Error
			require.True(t, errors.As(err, &exErr))
			assert.Equal(t, domain.KindMalformedJSON, exErr.Kind)
		})
	}
}

func TestExtract_MalformedKeepsRawPreview(t *testing.T) {
	raw := strings.Repeat("z", 900)

	_, err := extract.Extract(raw, "analysis")

	var exErr *extract.Error
	require.True(t, errors.As(err, &exErr))
	assert.Len(t, exErr.Raw, 503)
	assert.True(t, strings.HasSuffix(exErr.Raw, "..."))
}

func TestExtract_RawPreviewKeepsRunesWhole(t *testing.T) {
	raw := "a" + strings.Repeat("§", 700)

	_, err := extract.Extract(raw, "analysis")

	var exErr *extract.Error
	require.True(t, errors.As(err, &exErr))
	assert.True(t, utf8.ValidString(exErr.Raw))
	assert.Equal(t, 503, utf8.RuneCountInString(exErr.Raw))
	assert.Equal(t, "a"+strings.Repeat("§", 499)+"...", exErr.Raw)
}

func TestExtract_MissingField(t *testing.T) {
	obj, err := extract.Extract(`{"findings": []}`, "analysis")

	assert.Nil(t, obj)
	var exErr *extract.Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, domain.KindMissingField, exErr.Kind)
	assert.Contains(t, err.Error(), `"analysis"`)
}

func TestExtract_NonObjectJSON(t *testing.T) {
	_, err := extract.Extract(`["analysis"]`, "analysis")

	var exErr *extract.Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, domain.KindMalformedJSON, exErr.Kind)
}

func TestInto_TypedDecode(t *testing.T) {
	var out struct {
		Analysis []domain.Finding `json:"analysis"`
	}

	err := extract.Into("Sure!\n"+analysisJSON, "analysis", &out)

	require.NoError(t, err)
	require.Len(t, out.Analysis, 1)
	assert.Equal(t, 9, out.Analysis[0].RiskScore)
	assert.Equal(t, "Require 24 hours notice.", out.Analysis[0].Recommendation)
}

func TestInto_WrongFieldType(t *testing.T) {
	var out struct {
		Analysis []domain.Finding `json:"analysis"`
	}

	err := extract.Into(`{"analysis": "none"}`, "analysis", &out)

	var exErr *extract.Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, domain.KindMalformedJSON, exErr.Kind)
}
