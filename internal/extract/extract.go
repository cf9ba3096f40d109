// Package extract locates and decodes the JSON object embedded in free-form
// model output.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"contractlens/internal/domain"
)

const rawPreviewLen = 500

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// Error reports why a model response could not be turned into the expected
// object. Raw holds the start of the offending text for diagnostics.
type Error struct {
	Kind domain.ChunkErrorKind
	Key  string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case domain.KindMissingField:
		return fmt.Sprintf("response JSON has no %q field", e.Key)
	default:
		return fmt.Sprintf("response was not valid JSON: %v (raw: %s)", e.Err, e.Raw)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extract finds the JSON object carrying requiredKey inside raw and decodes
// its top level. Leading or trailing prose and code fences are tolerated.
func Extract(raw, requiredKey string) (map[string]json.RawMessage, error) {
	body := locate(raw, requiredKey)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, &Error{Kind: domain.KindMalformedJSON, Key: requiredKey, Raw: truncate(raw, rawPreviewLen), Err: err}
	}
	if _, ok := obj[requiredKey]; !ok {
		return nil, &Error{Kind: domain.KindMissingField, Key: requiredKey, Raw: truncate(raw, rawPreviewLen)}
	}
	return obj, nil
}

// Into runs Extract and decodes the located object into dst.
func Into(raw, requiredKey string, dst any) error {
	obj, err := Extract(raw, requiredKey)
	if err != nil {
		return err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return &Error{Kind: domain.KindMalformedJSON, Key: requiredKey, Raw: truncate(raw, rawPreviewLen), Err: err}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &Error{Kind: domain.KindMalformedJSON, Key: requiredKey, Raw: truncate(raw, rawPreviewLen), Err: err}
	}
	return nil
}

// locate returns the candidate JSON text. The greedy span from the first '{'
// before the key to the last '}' after it wins; otherwise fences are
// stripped from the trimmed text.
func locate(raw, requiredKey string) string {
	if span, ok := greedySpan(raw, requiredKey); ok {
		return span
	}
	return strings.TrimSpace(fenceReplacer.Replace(strings.TrimSpace(raw)))
}

func greedySpan(raw, requiredKey string) (string, bool) {
	keyAt := strings.Index(raw, `"`+requiredKey+`"`)
	if keyAt < 0 {
		return "", false
	}
	open := strings.Index(raw[:keyAt], "{")
	if open < 0 {
		return "", false
	}
	closeAt := strings.LastIndex(raw, "}")
	if closeAt < keyAt {
		return "", false
	}
	return raw[open : closeAt+1], true
}

// truncate cuts s to maxLen runes so the preview stays valid UTF-8.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
