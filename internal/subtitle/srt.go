package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinCueDuration is the duration a cue is stretched to when its end
// timestamp does not come after its start. Recognition engines
// occasionally emit zero-length segments; rendering clamps them instead
// of rejecting the whole file.
const MinCueDuration = 0.5

var timestampRe = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`)

// FormatTimestamp converts fractional seconds to the SRT time format
// (HH:MM:SS,mmm). Fractional milliseconds are truncated, not rounded.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds * 1000)
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp converts an SRT timestamp back to fractional seconds.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.SplitN(strings.TrimSpace(ts), ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}
	secParts := strings.SplitN(parts[2], ",", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}
	s, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}
	ms, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %q", ts)
	}

	return float64(h*3600+m*60+s) + float64(ms)/1000.0, nil
}

// Render serializes cues as SRT. Cues are written in order and
// renumbered 1..N regardless of their stored indices. A cue whose end
// does not come after its start is clamped to MinCueDuration.
func Render(cues []Cue) string {
	var sb strings.Builder

	for i, cue := range cues {
		start := cue.Start
		end := cue.End
		if end <= start {
			end = start + MinCueDuration
		}

		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", FormatTimestamp(start), FormatTimestamp(end)))
		sb.WriteString(strings.TrimSpace(cue.Text))
		sb.WriteString("\n\n")
	}

	out := strings.TrimRight(sb.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

// Parse reads SRT content into cues. Index lines in the source are
// ignored; cues are numbered sequentially in the order they appear.
// Malformed blocks are skipped rather than failing the whole file.
func Parse(content string) []Cue {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var cues []Cue
	var current *Cue

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			current.Index = len(cues) + 1
			cues = append(cues, *current)
		}
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if matches := timestampRe.FindStringSubmatch(line); len(matches) == 3 {
			flush()
			start, err1 := ParseTimestamp(matches[1])
			end, err2 := ParseTimestamp(matches[2])
			if err1 != nil || err2 != nil {
				continue
			}
			current = &Cue{Start: start, End: end}
			continue
		}

		// Skip the cue number preceding a timestamp line
		if _, err := strconv.Atoi(line); err == nil && current == nil {
			continue
		}

		if current != nil {
			if current.Text != "" {
				current.Text += "\n"
			}
			current.Text += line
		}
	}
	flush()

	return cues
}

// SplitBatches partitions cues into ordered groups of at most size
// entries. The groups are views into the input slice: no overlap, no
// gaps, concatenation equals the input.
func SplitBatches(cues []Cue, size int) ([][]Cue, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}

	var batches [][]Cue
	for start := 0; start < len(cues); start += size {
		end := start + size
		if end > len(cues) {
			end = len(cues)
		}
		batches = append(batches, cues[start:end])
	}
	return batches, nil
}
