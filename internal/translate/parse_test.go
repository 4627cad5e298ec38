package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseBareArray(t *testing.T) {
	got, err := parseResponse(`[{"index":1,"translation":"你好"},{"index":2,"translation":"再见"}]`)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "你好", 2: "再见"}, got)
}

func TestParseResponseFenced(t *testing.T) {
	content := "```json\n[{\"index\":3,\"translation\":\"hello\"}]\n```"
	got, err := parseResponse(content)
	require.NoError(t, err)
	assert.Equal(t, "hello", got[3])
}

func TestParseResponseEmbeddedInProse(t *testing.T) {
	content := `Here are your translations: [{"index":1,"translation":"hi"}] hope that helps!`
	got, err := parseResponse(content)
	require.NoError(t, err)
	assert.Equal(t, "hi", got[1])
}

func TestParseResponseSkipsBlankTranslations(t *testing.T) {
	got, err := parseResponse(`[{"index":1,"translation":"  "},{"index":2,"translation":"ok"}]`)
	require.NoError(t, err)
	_, present := got[1]
	assert.False(t, present)
	assert.Equal(t, "ok", got[2])
}

func TestParseResponseMalformed(t *testing.T) {
	for _, content := range []string{"", "not json at all", "{}", "[]"} {
		_, err := parseResponse(content)
		assert.Error(t, err, "content=%q", content)
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripFences("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("[1]"))
}
