// Package chunker splits long documents into overlapping segments that end on
// sentence or line boundaries where possible.
package chunker

import (
	"fmt"

	"contractlens/internal/domain"
)

// DefaultLookback is how far back from a window end the splitter searches for
// a sentence terminator or line break.
const DefaultLookback = 200

// Options configures Split. Sizes count characters (runes), not bytes.
type Options struct {
	MaxSegmentSize int
	OverlapSize    int
	Lookback       int
}

// Validate rejects options that would make Split loop forever.
func (o Options) Validate() error {
	if o.MaxSegmentSize <= 0 {
		return fmt.Errorf("%w: max segment size must be > 0, got %d", domain.ErrInvalidChunkConfig, o.MaxSegmentSize)
	}
	if o.OverlapSize < 0 {
		return fmt.Errorf("%w: overlap must be >= 0, got %d", domain.ErrInvalidChunkConfig, o.OverlapSize)
	}
	if o.OverlapSize >= o.MaxSegmentSize {
		return fmt.Errorf("%w: overlap (%d) must be smaller than max segment size (%d)",
			domain.ErrInvalidChunkConfig, o.OverlapSize, o.MaxSegmentSize)
	}
	if o.Lookback < 0 {
		return fmt.Errorf("%w: lookback must be >= 0, got %d", domain.ErrInvalidChunkConfig, o.Lookback)
	}
	return nil
}

// Segment is a contiguous slice of the document. Start and End are rune
// offsets; Ordinal is 1-based.
type Segment struct {
	Ordinal int
	Total   int
	Start   int
	End     int
	Text    string
}

// Len returns the segment length in characters.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Split cuts text into ordered segments of at most opts.MaxSegmentSize
// characters. Consecutive segments share up to opts.OverlapSize characters.
func Split(text string, opts Options) ([]Segment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Lookback == 0 {
		opts.Lookback = DefaultLookback
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}
	if n <= opts.MaxSegmentSize {
		return []Segment{{Ordinal: 1, Total: 1, Start: 0, End: n, Text: text}}, nil
	}

	var segments []Segment
	start := 0
	for start < n {
		end := start + opts.MaxSegmentSize
		if end >= n {
			end = n
		} else if cut := boundaryBefore(runes, start, end, opts.Lookback); cut > 0 {
			end = cut
		}

		segments = append(segments, Segment{
			Ordinal: len(segments) + 1,
			Start:   start,
			End:     end,
			Text:    string(runes[start:end]),
		})
		if end == n {
			break
		}

		next := end - opts.OverlapSize
		if next <= start {
			// The boundary pulled the window inside the overlap span.
			next = end
		}
		start = next
	}

	for i := range segments {
		segments[i].Total = len(segments)
	}
	return segments, nil
}

// boundaryBefore returns the position just past the rightmost '.' or '\n'
// within the last lookback runes of runes[start:end], or 0 if there is none
// after start.
func boundaryBefore(runes []rune, start, end, lookback int) int {
	floor := end - lookback
	if floor < start {
		floor = start
	}
	for i := end - 1; i >= floor; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			if i > start {
				return i + 1
			}
			return 0
		}
	}
	return 0
}

// Reassemble rebuilds the original text from segments produced by Split,
// discarding each segment's overlap with its predecessor.
func Reassemble(segments []Segment) string {
	var out []rune
	covered := 0
	for _, s := range segments {
		r := []rune(s.Text)
		skip := covered - s.Start
		if skip < 0 {
			skip = 0
		}
		if skip < len(r) {
			out = append(out, r[skip:]...)
		}
		if s.End > covered {
			covered = s.End
		}
	}
	return string(out)
}
