// Package prompt renders the per-mode instructions sent with each segment.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"contractlens/internal/domain"
)

//go:embed templates.yaml
var defaultTemplates []byte

const (
	placeholderText    = "{contract_text}"
	placeholderOrdinal = "{ordinal}"
	placeholderTotal   = "{total}"
	placeholderNote    = "{segment_note}"
)

// Template is one mode's prompt and the top-level key its JSON reply must carry.
type Template struct {
	RequiredKey string `yaml:"required_key"`
	Text        string `yaml:"template"`
}

// Set holds the templates for both modes.
type Set struct {
	SegmentNote string   `yaml:"segment_note"`
	Analyze     Template `yaml:"analyze"`
	Humanize    Template `yaml:"humanize"`
}

// Default returns the embedded template set.
func Default() (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(defaultTemplates, &s); err != nil {
		return nil, fmt.Errorf("parsing embedded templates: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load returns the embedded set with any fields from the YAML file at path
// layered on top. An empty path returns the embedded set.
func Load(path string) (*Set, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt overrides: %w", err)
	}
	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing prompt overrides %s: %w", path, err)
	}

	if override.SegmentNote != "" {
		s.SegmentNote = override.SegmentNote
	}
	mergeTemplate(&s.Analyze, override.Analyze)
	mergeTemplate(&s.Humanize, override.Humanize)

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("prompt overrides %s: %w", path, err)
	}
	return s, nil
}

func mergeTemplate(dst *Template, src Template) {
	if src.RequiredKey != "" {
		dst.RequiredKey = src.RequiredKey
	}
	if src.Text != "" {
		dst.Text = src.Text
	}
}

func (s *Set) validate() error {
	for name, t := range map[string]Template{"analyze": s.Analyze, "humanize": s.Humanize} {
		if t.RequiredKey == "" {
			return fmt.Errorf("%s template has no required_key", name)
		}
		if !strings.Contains(t.Text, placeholderText) {
			return fmt.Errorf("%s template is missing %s", name, placeholderText)
		}
	}
	return nil
}

// For returns the template for a mode.
func (s *Set) For(mode domain.Mode) (Template, error) {
	switch mode {
	case domain.ModeAnalyze:
		return s.Analyze, nil
	case domain.ModeHumanize:
		return s.Humanize, nil
	default:
		return Template{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
}

// Render fills the mode's template with one segment's text. The segment note
// is included only when the document was split into more than one segment.
// Substitution is single pass, so placeholders inside the contract text are
// left alone.
func (s *Set) Render(mode domain.Mode, text string, ordinal, total int) (string, error) {
	t, err := s.For(mode)
	if err != nil {
		return "", err
	}

	note := ""
	if total > 1 {
		note = strings.NewReplacer(
			placeholderOrdinal, strconv.Itoa(ordinal),
			placeholderTotal, strconv.Itoa(total),
		).Replace(s.SegmentNote)
	}

	return strings.NewReplacer(
		placeholderNote, note,
		placeholderOrdinal, strconv.Itoa(ordinal),
		placeholderTotal, strconv.Itoa(total),
		placeholderText, text,
	).Replace(t.Text), nil
}
