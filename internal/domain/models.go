package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Finding is one risky clause reported in analyzer mode.
type Finding struct {
	ClauseText     string `json:"clause_text"`
	RiskScore      int    `json:"risk_score"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

// Simplification is the plain-language rewrite of one segment (or of the
// whole document once merged).
type Simplification struct {
	OriginalLength   int      `json:"original_length"`
	SimplifiedLength int      `json:"simplified_length"`
	HumanizedText    string   `json:"humanized_text"`
	KeyPoints        []string `json:"key_points"`
}

// AnalysisResult is the merged analyzer output for one document.
type AnalysisResult struct {
	RunID    string    `json:"run_id,omitempty"`
	Analysis []Finding `json:"analysis"`
	Warnings []string  `json:"warnings,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// MarshalJSON omits the data fields when the run failed as a whole.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(failedResult{RunID: r.RunID, Warnings: r.Warnings, Error: r.Error})
	}
	type plain AnalysisResult
	p := plain(r)
	if p.Analysis == nil {
		p.Analysis = []Finding{}
	}
	return json.Marshal(p)
}

// HumanizeResult is the merged humanizer output for one document.
type HumanizeResult struct {
	RunID string `json:"run_id,omitempty"`
	Simplification
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// MarshalJSON omits the data fields when the run failed as a whole.
func (r HumanizeResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(failedResult{RunID: r.RunID, Warnings: r.Warnings, Error: r.Error})
	}
	type plain HumanizeResult
	p := plain(r)
	if p.KeyPoints == nil {
		p.KeyPoints = []string{}
	}
	return json.Marshal(p)
}

type failedResult struct {
	RunID    string   `json:"run_id,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error"`
}

// SourceKind records where a run's text came from.
type SourceKind string

const (
	SourceText SourceKind = "text"
	SourceURL  SourceKind = "url"
	SourceFile SourceKind = "file"
)

// Run is one stored analyze or humanize request.
type Run struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Mode       Mode            `db:"mode" json:"mode"`
	Source     SourceKind      `db:"source" json:"source"`
	SourceRef  string          `db:"source_ref" json:"source_ref,omitempty"`
	ArchiveKey *string         `db:"archive_key" json:"-"`
	Chars      int             `db:"chars" json:"chars"`
	Failed     bool            `db:"failed" json:"failed"`
	Result     json.RawMessage `db:"result" json:"result"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
