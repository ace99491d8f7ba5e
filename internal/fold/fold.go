package fold

import (
	"context"
)

// Failure records one item whose operation returned an error.
type Failure[T any] struct {
	Index int
	Item  T
	Err   error
}

// Result summarizes a fold over a list of items.
type Result[T any] struct {
	Total     int
	Attempted int
	Succeeded int
	Failures  []Failure[T]
}

// Failed returns the number of items whose operation failed.
func (r Result[T]) Failed() int { return len(r.Failures) }

// FailedItems returns the failed items in the order they were attempted.
func (r Result[T]) FailedItems() []T {
	out := make([]T, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Item)
	}
	return out
}

// ContinueOnError runs operation on every item in order. An error from one item
// is recorded in the result and does not stop the fold; only a cancelled context
// does, in which case the partial result is returned with ctx.Err().
func ContinueOnError[T any](ctx context.Context, items []T, operation func(ctx context.Context, index int, item T) error) (Result[T], error) {
	result := Result[T]{Total: len(items)}
	for i, item := range items {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Attempted++
		if err := operation(ctx, i, item); err != nil {
			result.Failures = append(result.Failures, Failure[T]{Index: i, Item: item, Err: err})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
