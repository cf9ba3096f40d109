package textsource

import (
	"regexp"
	"strings"
)

var (
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
	hspaceRe     = regexp.MustCompile(`[ \t]+`)
)

// Normalize converts CRLF to LF, collapses runs of newlines and of
// spaces/tabs, drops form feeds and trims the result.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	text = hspaceRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\f", "")
	return strings.TrimSpace(text)
}
