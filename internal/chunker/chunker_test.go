package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractlens/internal/chunker"
	"contractlens/internal/domain"
)

// sentences builds text of roughly n characters made of short sentences.
func sentences(n int) string {
	var b strings.Builder
	i := 0
	for b.Len() < n {
		if i%7 == 6 {
			b.WriteString("The tenant shall pay rent on the first day of each month.\n")
		} else {
			b.WriteString("The landlord may inspect the premises with notice. ")
		}
		i++
	}
	return b.String()[:n]
}

func TestSplit_ShortTextSingleSegment(t *testing.T) {
	text := "Either party may terminate this agreement with thirty days notice."

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 100, OverlapSize: 10})

	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, text, segs[0].Text)
	assert.Equal(t, 1, segs[0].Ordinal)
	assert.Equal(t, 1, segs[0].Total)
}

func TestSplit_ExactlyMaxSizeSingleSegment(t *testing.T) {
	text := strings.Repeat("a", 50)

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 50, OverlapSize: 5})

	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, text, segs[0].Text)
}

func TestSplit_EmptyText(t *testing.T) {
	segs, err := chunker.Split("", chunker.Options{MaxSegmentSize: 50, OverlapSize: 5})

	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestSplit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts chunker.Options
	}{
		{"overlap equals size", chunker.Options{MaxSegmentSize: 100, OverlapSize: 100}},
		{"overlap exceeds size", chunker.Options{MaxSegmentSize: 100, OverlapSize: 150}},
		{"zero size", chunker.Options{MaxSegmentSize: 0, OverlapSize: 0}},
		{"negative overlap", chunker.Options{MaxSegmentSize: 100, OverlapSize: -1}},
		{"negative lookback", chunker.Options{MaxSegmentSize: 100, OverlapSize: 1, Lookback: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := chunker.Split(strings.Repeat("x", 1000), tt.opts)
			assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
			assert.Nil(t, segs)
		})
	}
}

func TestSplit_ReassemblesOriginal(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts chunker.Options
	}{
		{"sentences", sentences(5000), chunker.Options{MaxSegmentSize: 700, OverlapSize: 60}},
		{"no boundaries", strings.Repeat("abcdefghij", 300), chunker.Options{MaxSegmentSize: 450, OverlapSize: 40}},
		{"dense boundaries", strings.Repeat("a.", 800), chunker.Options{MaxSegmentSize: 100, OverlapSize: 99}},
		{"multibyte", strings.Repeat("Vertragsklausel über Haftung. ", 120), chunker.Options{MaxSegmentSize: 333, OverlapSize: 30}},
		{"zero overlap", sentences(3000), chunker.Options{MaxSegmentSize: 400}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := chunker.Split(tt.text, tt.opts)
			require.NoError(t, err)
			require.Greater(t, len(segs), 1)

			assert.Equal(t, tt.text, chunker.Reassemble(segs))
			for i, s := range segs {
				assert.NotEmpty(t, s.Text)
				assert.LessOrEqual(t, s.Len(), tt.opts.MaxSegmentSize)
				assert.Equal(t, i+1, s.Ordinal)
				assert.Equal(t, len(segs), s.Total)
				if i > 0 {
					assert.Greater(t, s.Start, segs[i-1].Start, "cursor must advance")
					assert.LessOrEqual(t, s.Start, segs[i-1].End, "segments must not leave gaps")
				}
			}
		})
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("x", 80) + "." + strings.Repeat("y", 60)

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 100, OverlapSize: 10, Lookback: 50})

	require.NoError(t, err)
	require.NotEmpty(t, segs)
	assert.Equal(t, 81, segs[0].End)
	assert.True(t, strings.HasSuffix(segs[0].Text, "."))
	assert.Equal(t, 71, segs[1].Start)
}

func TestSplit_BoundaryOutsideLookbackIsIgnored(t *testing.T) {
	text := strings.Repeat("x", 10) + "." + strings.Repeat("y", 200)

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 100, OverlapSize: 10, Lookback: 20})

	require.NoError(t, err)
	assert.Equal(t, 100, segs[0].End, "hard cut when no boundary within lookback")
}

func TestSplit_NewlineCountsAsBoundary(t *testing.T) {
	text := strings.Repeat("x", 90) + "\n" + strings.Repeat("y", 50)

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 100, OverlapSize: 5})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(segs[0].Text, "\n"))
}

func TestSplit_FortyThousandCharacters(t *testing.T) {
	text := sentences(40000)

	segs, err := chunker.Split(text, chunker.Options{MaxSegmentSize: 15000, OverlapSize: 500})

	require.NoError(t, err)
	require.Len(t, segs, 3)
	for _, s := range segs {
		assert.LessOrEqual(t, s.Len(), 15000)
	}
	for i := 1; i < len(segs); i++ {
		overlap := segs[i-1].End - segs[i].Start
		assert.Equal(t, 500, overlap)
	}
	assert.Equal(t, text, chunker.Reassemble(segs))
}
