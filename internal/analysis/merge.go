package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"contractlens/internal/domain"
)

const (
	// dedupPrefixLen is how many leading characters of a clause identify it.
	dedupPrefixLen = 100
	maxKeyPoints   = 5
	minRiskScore   = 1
	maxRiskScore   = 10
)

// lenientInt accepts a JSON number (rounded) or a numeric string. Anything
// else leaves it unset so one bad field does not drop the whole segment.
type lenientInt struct {
	value int
	set   bool
}

func (l *lenientInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		l.value, l.set = int(math.Round(f)), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	l.value, l.set = int(math.Round(f)), true
	return nil
}

type findingWire struct {
	ClauseText     string     `json:"clause_text"`
	RiskScore      lenientInt `json:"risk_score"`
	Explanation    string     `json:"explanation"`
	Recommendation string     `json:"recommendation"`
}

type analysisWire struct {
	Analysis []findingWire `json:"analysis"`
}

type simplificationWire struct {
	OriginalLength   lenientInt `json:"original_length"`
	SimplifiedLength lenientInt `json:"simplified_length"`
	HumanizedText    string     `json:"humanized_text"`
	KeyPoints        []string   `json:"key_points"`
}

// findingsMerger concatenates findings across segments, dropping clauses whose
// leading characters were already seen. The first occurrence wins.
type findingsMerger struct {
	findings []domain.Finding
	seen     map[string]struct{}
}

func newFindingsMerger() *findingsMerger {
	return &findingsMerger{findings: []domain.Finding{}, seen: make(map[string]struct{})}
}

// add decodes one segment's reply. Nothing is merged when decoding fails.
func (m *findingsMerger) add(raw json.RawMessage) error {
	var w analysisWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.NewChunkError(domain.KindMalformedJSON, fmt.Errorf("decoding analysis: %w", err))
	}
	for _, f := range w.Analysis {
		key := clauseKey(f.ClauseText)
		if key == "" {
			continue
		}
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.findings = append(m.findings, domain.Finding{
			ClauseText:     f.ClauseText,
			RiskScore:      clampRisk(f.RiskScore),
			Explanation:    f.Explanation,
			Recommendation: f.Recommendation,
		})
	}
	return nil
}

func (m *findingsMerger) result() []domain.Finding {
	return m.findings
}

func clauseKey(text string) string {
	return truncateRunes(strings.TrimSpace(text), dedupPrefixLen)
}

func clampRisk(score lenientInt) int {
	switch {
	case !score.set || score.value < minRiskScore:
		return minRiskScore
	case score.value > maxRiskScore:
		return maxRiskScore
	default:
		return score.value
	}
}

// simplificationMerger joins rewritten text in segment order and sums the
// reported word counts.
type simplificationMerger struct {
	texts         []string
	original      int
	simplified    int
	originalSet   bool
	simplifiedSet bool
	keyPoints     []string
	seenKeyPoints map[string]struct{}
}

func newSimplificationMerger() *simplificationMerger {
	return &simplificationMerger{keyPoints: []string{}, seenKeyPoints: make(map[string]struct{})}
}

func (m *simplificationMerger) add(raw json.RawMessage) error {
	var w simplificationWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.NewChunkError(domain.KindMalformedJSON, fmt.Errorf("decoding simplification: %w", err))
	}

	m.texts = append(m.texts, w.HumanizedText)
	if w.OriginalLength.set {
		m.original += w.OriginalLength.value
		m.originalSet = true
	}
	if w.SimplifiedLength.set {
		m.simplified += w.SimplifiedLength.value
		m.simplifiedSet = true
	}
	for _, kp := range w.KeyPoints {
		if len(m.keyPoints) == maxKeyPoints {
			break
		}
		norm := strings.ToLower(strings.TrimSpace(kp))
		if norm == "" {
			continue
		}
		if _, dup := m.seenKeyPoints[norm]; dup {
			continue
		}
		m.seenKeyPoints[norm] = struct{}{}
		m.keyPoints = append(m.keyPoints, kp)
	}
	return nil
}

// result builds the merged simplification. Counts no segment reported are
// computed from the document and the joined text.
func (m *simplificationMerger) result(document string) domain.Simplification {
	text := strings.Join(m.texts, "\n\n")
	s := domain.Simplification{
		OriginalLength:   m.original,
		SimplifiedLength: m.simplified,
		HumanizedText:    text,
		KeyPoints:        m.keyPoints,
	}
	if !m.originalSet {
		s.OriginalLength = len(strings.Fields(document))
	}
	if !m.simplifiedSet {
		s.SimplifiedLength = len(strings.Fields(text))
	}
	return s
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
