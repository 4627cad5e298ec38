package subtitle

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3.0, "00:00:03,000"},
		{59.999, "00:00:59,999"},
		{61.042, "00:01:01,042"},
		{3661.007, "01:01:01,007"},
		{-1, "00:00:00,000"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatTimestamp(c.seconds), "seconds=%v", c.seconds)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, d := range []float64{0, 0.001, 0.25, 1.5, 59.999, 600.123, 3599.5, 7261.078} {
		got, err := ParseTimestamp(FormatTimestamp(d))
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(got-d), 0.001, "duration %v", d)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, ts := range []string{"", "1:2", "aa:bb:cc,ddd", "00:00:01", "00:00:01.500"} {
		_, err := ParseTimestamp(ts)
		assert.Error(t, err, "timestamp %q", ts)
	}
}

func TestRender(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0.0, End: 1.5, Text: "Hi"},
		{Index: 2, Start: 1.5, End: 3.0, Text: "There"},
	}

	want := "1\n" +
		"00:00:00,000 --> 00:00:01,500\n" +
		"Hi\n" +
		"\n" +
		"2\n" +
		"00:00:01,500 --> 00:00:03,000\n" +
		"There\n"

	assert.Equal(t, want, Render(cues))
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}

func TestRenderClampsInvertedTimings(t *testing.T) {
	cues := []Cue{{Index: 1, Start: 2.0, End: 2.0, Text: "stuck"}}
	out := Render(cues)
	assert.Contains(t, out, "00:00:02,000 --> 00:00:02,500")
}

func TestRenderReindexes(t *testing.T) {
	cues := []Cue{
		{Index: 7, Start: 0, End: 1, Text: "a"},
		{Index: 9, Start: 1, End: 2, Text: "b"},
		{Index: 30, Start: 2, End: 3, Text: "c"},
	}
	out := Render(cues)

	parsed := Parse(out)
	require.Len(t, parsed, 3)
	for i, cue := range parsed {
		assert.Equal(t, i+1, cue.Index)
	}
}

func TestParseRoundTrip(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0.0, End: 2.25, Text: "first line\nsecond line"},
		{Index: 2, Start: 2.25, End: 4.0, Text: "さようなら"},
		{Index: 3, Start: 4.0, End: 9.999, Text: "the end"},
	}

	parsed := Parse(Render(cues))
	require.Len(t, parsed, len(cues))
	for i := range cues {
		assert.Equal(t, cues[i].Text, parsed[i].Text)
		assert.InDelta(t, cues[i].Start, parsed[i].Start, 0.001)
		assert.InDelta(t, cues[i].End, parsed[i].End, 0.001)
	}
}

func TestParseToleratesCRLFAndBlankRuns(t *testing.T) {
	srt := "1\r\n00:00:00,000 --> 00:00:01,000\r\nhello\r\n\r\n\r\n2\r\n00:00:01,000 --> 00:00:02,000\r\nworld\r\n"
	cues := Parse(srt)
	require.Len(t, cues, 2)
	assert.Equal(t, "hello", cues[0].Text)
	assert.Equal(t, "world", cues[1].Text)
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	srt := "1\nnot a timestamp\ngarbage\n\n2\n00:00:01,000 --> 00:00:02,000\nkept\n"
	cues := Parse(srt)
	require.Len(t, cues, 1)
	assert.Equal(t, "kept", cues[0].Text)
}

func TestSplitBatches(t *testing.T) {
	cues := make([]Cue, 7)
	for i := range cues {
		cues[i] = Cue{Index: i + 1, Text: fmt.Sprintf("cue %d", i+1)}
	}

	batches, err := SplitBatches(cues, 3)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)

	// Concatenation preserves order and content
	var flat []Cue
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, cues, flat)
}

func TestSplitBatchesExactMultiple(t *testing.T) {
	cues := make([]Cue, 6)
	batches, err := SplitBatches(cues, 3)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[1], 3)
}

func TestSplitBatchesEmpty(t *testing.T) {
	batches, err := SplitBatches(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestSplitBatchesInvalidSize(t *testing.T) {
	_, err := SplitBatches([]Cue{{}}, 0)
	assert.Error(t, err)
	_, err = SplitBatches([]Cue{{}}, -2)
	assert.Error(t, err)
}

func TestRenderIndicesSequential(t *testing.T) {
	var cues []Cue
	for i := 0; i < 12; i++ {
		cues = append(cues, Cue{Start: float64(i), End: float64(i) + 0.9, Text: "x"})
	}
	out := Render(cues)

	for i := 1; i <= 12; i++ {
		assert.Contains(t, out, fmt.Sprintf("%d\n%s", i, FormatTimestamp(float64(i-1))))
	}
	assert.Equal(t, 12, strings.Count(out, "-->"))
}
