package domain

import (
	"fmt"
	"strings"
)

// InputType selects how work items are interpreted.
type InputType string

// Available input types.
const (
	// InputTypeURL treats each work item as an HTTP(S) URL to a file.
	InputTypeURL InputType = "URL"

	// InputTypeS3 treats each work item as a key-prefix appended to the
	// run's S3 coordinates.
	InputTypeS3 InputType = "S3"
)

// IsValid returns true if the input type is recognised.
func (t InputType) IsValid() bool {
	switch t {
	case InputTypeURL, InputTypeS3:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t InputType) String() string {
	return string(t)
}

// ParseInputType parses a flag value. Matching is case-insensitive.
func ParseInputType(s string) (InputType, error) {
	t := InputType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: input type %q (expected URL or S3)", ErrInvalidInput, s)
	}
	return t, nil
}

// WorkItem is a single unit of upload work: a URL or a key-prefix.
type WorkItem string

// String returns the string representation.
func (w WorkItem) String() string {
	return string(w)
}

// Batch is a group of work items submitted together as one remote task.
type Batch struct {
	// Index is the position of the batch in submission order.
	Index int

	// Items are the work items in the batch.
	Items []WorkItem
}

// Len returns the number of items in the batch.
func (b Batch) Len() int {
	return len(b.Items)
}

// Strings returns the batch items as plain strings.
func (b Batch) Strings() []string {
	out := make([]string, len(b.Items))
	for i, item := range b.Items {
		out[i] = string(item)
	}
	return out
}

// Batches partitions items, in order, into batches of at most size items.
// The last batch may be shorter.
func Batches(items []WorkItem, size int) ([]Batch, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1, got %d", ErrInvalidInput, size)
	}

	batches := make([]Batch, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := make([]WorkItem, end-start)
		copy(chunk, items[start:end])
		batches = append(batches, Batch{Index: len(batches), Items: chunk})
	}
	return batches, nil
}
