// Package workspace holds static metadata about the host's workspaces.
//
// Workspaces are addressed by a zero-based index internally and by a
// one-based number in everything a user sees (hotkeys, CLI arguments,
// settings keys).
package workspace

import (
	"fmt"
	"sort"
)

// Registry is the fixed set of workspaces known for a session.
type Registry struct {
	count  int
	labels map[int]string
}

// New creates a Registry for count workspaces. Labels are keyed by
// workspace index; labels for indices outside the range are dropped.
func New(count int, labels map[int]string) (*Registry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("workspace count must be positive, got %d", count)
	}

	r := &Registry{count: count, labels: make(map[int]string)}
	for index, label := range labels {
		if r.Valid(index) && label != "" {
			r.labels[index] = label
		}
	}
	return r, nil
}

// Count returns the number of workspaces.
func (r *Registry) Count() int {
	return r.count
}

// Valid reports whether index is within [0, Count).
func (r *Registry) Valid(index int) bool {
	return index >= 0 && index < r.count
}

// Number returns the one-based display number of a workspace index.
func Number(index int) int {
	return index + 1
}

// Index returns the zero-based index of a display number.
func Index(number int) int {
	return number - 1
}

// Label returns the optional label of a workspace.
func (r *Registry) Label(index int) string {
	return r.labels[index]
}

// Name returns a display name such as "3" or "3 (communication)".
func (r *Registry) Name(index int) string {
	if label := r.Label(index); label != "" {
		return fmt.Sprintf("%d (%s)", Number(index), label)
	}
	return fmt.Sprintf("%d", Number(index))
}

// Indices returns every workspace index in ascending order.
func (r *Registry) Indices() []int {
	out := make([]int, r.count)
	for i := range out {
		out[i] = i
	}
	return out
}

// LabelsByNumber converts a number-keyed label map (as stored in
// settings) into the index-keyed form New expects.
func LabelsByNumber(byNumber map[int]string) map[int]string {
	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	out := make(map[int]string, len(byNumber))
	for _, n := range numbers {
		out[Index(n)] = byNumber[n]
	}
	return out
}
