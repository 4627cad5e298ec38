package translate

import (
	"fmt"
	"strings"
)

// BatchError reports the failure of one translation batch, identified
// by the cue index range it covered.
type BatchError struct {
	FirstIndex int
	LastIndex  int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("cues %d-%d: %v", e.FirstIndex, e.LastIndex, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// PartialError is returned when some batches failed but the rest of
// the file was translated. Cues covered by failed batches keep their
// source text.
type PartialError struct {
	Batches []*BatchError
}

func (e *PartialError) Error() string {
	parts := make([]string, len(e.Batches))
	for i, b := range e.Batches {
		parts[i] = b.Error()
	}
	return fmt.Sprintf("%d translation batch(es) failed: %s", len(e.Batches), strings.Join(parts, "; "))
}
