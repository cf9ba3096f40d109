// Package export writes analyzer findings as CSV or XLSX spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"contractlens/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first so Excel on Windows detects the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by CSV and XLSX output.
var columns = []string{
	"#",
	"Risk Score",
	"Risk Level",
	"Clause",
	"Explanation",
	"Recommendation",
}

// Writer wraps csv.Writer for exporting findings as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteFindings converts findings to CSV rows and writes them.
func (w *Writer) WriteFindings(findings []domain.Finding) error {
	for i := range findings {
		if err := w.csv.Write(findingToRow(i+1, &findings[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes BOM, header and findings to out.
func WriteCSV(out io.Writer, findings []domain.Finding) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteFindings(findings); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func findingToRow(n int, f *domain.Finding) []string {
	return []string{
		strconv.Itoa(n),
		strconv.Itoa(f.RiskScore),
		RiskLevel(f.RiskScore),
		f.ClauseText,
		f.Explanation,
		f.Recommendation,
	}
}

// RiskLevel buckets a 1..10 score: 1-3 low, 4-6 medium, 7-8 high, 9-10 critical.
func RiskLevel(score int) string {
	switch {
	case score >= 9:
		return "Critical"
	case score >= 7:
		return "High"
	case score >= 4:
		return "Medium"
	default:
		return "Low"
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "contract"
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition header.
// Format: {sanitized_name}_analysis_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_analysis_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
