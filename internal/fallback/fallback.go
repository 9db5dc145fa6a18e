// Package fallback runs an ordered list of strategies until one succeeds.
package fallback

import (
	"context"
	"errors"
)

// ErrNoStrategies is returned by First when called with an empty list.
var ErrNoStrategies = errors.New("no strategies to try")

// Strategy is one way of producing a T.
type Strategy[T any] func(ctx context.Context) (T, error)

// First runs strategies in order and returns the first success. When every
// strategy fails it returns the last error. A cancelled context stops the
// walk before the next strategy starts.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (T, error) {
	var zero T
	if len(strategies) == 0 {
		return zero, ErrNoStrategies
	}
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := s(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
