package subtitle

// Cue represents a single subtitle entry with timing
type Cue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// WithText returns a copy of the cue with its text replaced, keeping
// the index and timings intact.
func (c Cue) WithText(text string) Cue {
	c.Text = text
	return c
}
