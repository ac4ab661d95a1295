// Package optimistic runs a remote command and, once it succeeds, echoes the
// expected outcome into locally held views so they read correctly before the
// next refresh.
package optimistic

import "context"

// Echo describes the local effect of a command: which items it touches and
// how each one changes.
type Echo[T any] struct {
	Match func(T) bool
	Patch func(T) T
}

// Apply returns a patched copy of items and the number of items changed.
// The input slice is never modified.
func (e Echo[T]) Apply(items []T) ([]T, int) {
	out := make([]T, len(items))
	copy(out, items)
	if e.Match == nil || e.Patch == nil {
		return out, 0
	}
	n := 0
	for i, item := range out {
		if e.Match(item) {
			out[i] = e.Patch(item)
			n++
		}
	}
	return out, n
}

// View is anything holding local copies that an echo can be applied to.
type View[T any] interface {
	ApplyEcho(e Echo[T]) int
}

// Do runs cmd and, only when it succeeds, applies echo to every view. It
// returns the total number of patched items.
func Do[T any](ctx context.Context, cmd func(ctx context.Context) error, echo Echo[T], views ...View[T]) (int, error) {
	if err := cmd(ctx); err != nil {
		return 0, err
	}
	total := 0
	for _, v := range views {
		if v == nil {
			continue
		}
		total += v.ApplyEcho(echo)
	}
	return total, nil
}
