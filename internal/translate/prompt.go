package translate

import (
	"fmt"
	"strings"

	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// systemPrompt instructs the model to behave as a subtitle translator
// and to answer in the machine-readable shape parseResponse expects.
func systemPrompt(targetLanguage string) string {
	return fmt.Sprintf(
		"You are a professional subtitle translator. Translate the given subtitle lines into %s, "+
			"preserving the original meaning and tone and keeping numbers and proper nouns intact. "+
			"Respond with ONLY a JSON array where each element has \"index\" (number) and \"translation\" (string).",
		languageName(targetLanguage),
	)
}

// userPrompt formats one batch as index|text lines. Line breaks inside
// a cue are collapsed so each cue stays on a single prompt line.
func userPrompt(batch []subtitle.Cue) string {
	var sb strings.Builder
	sb.WriteString("Subtitle lines to translate, one per line in the form index|text:\n")
	for _, cue := range batch {
		text := strings.Join(strings.Fields(cue.Text), " ")
		sb.WriteString(fmt.Sprintf("%d|%s\n", cue.Index, text))
	}
	sb.WriteString("Return ONLY the JSON array.")
	return sb.String()
}

// languageName maps an ISO code to a display name for the prompt.
// Unknown codes are passed through so the user can name any language.
func languageName(code string) string {
	names := map[string]string{
		"zh": "Chinese",
		"en": "English",
		"ja": "Japanese",
		"ko": "Korean",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"pt": "Portuguese",
		"it": "Italian",
		"ru": "Russian",
		"vi": "Vietnamese",
		"th": "Thai",
	}
	if name, ok := names[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
