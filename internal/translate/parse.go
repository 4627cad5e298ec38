package translate

import (
	"encoding/json"
	"fmt"
	"strings"
)

type translationEntry struct {
	Index       int    `json:"index"`
	Translation string `json:"translation"`
}

// stripFences removes a surrounding markdown code fence, which models
// add despite instructions.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// parseResponse maps the model's reply back to a per-index translation
// map. Accepts a bare JSON array, a fenced array, or an array embedded
// in surrounding prose.
func parseResponse(content string) (map[int]string, error) {
	cleaned := stripFences(content)

	var entries []translationEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		// Fall back to the outermost bracketed span.
		start := strings.Index(cleaned, "[")
		end := strings.LastIndex(cleaned, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("parse translation response: %w", err)
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &entries); err != nil {
			return nil, fmt.Errorf("parse translation response: %w", err)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("translation response contained no entries")
	}

	result := make(map[int]string, len(entries))
	for _, entry := range entries {
		text := strings.TrimSpace(entry.Translation)
		if text == "" {
			continue
		}
		result[entry.Index] = text
	}
	return result, nil
}
