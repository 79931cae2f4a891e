package upstream

import (
	"context"
	"errors"
)

// ErrInvalidValue is reported when a fetch succeeds but its value fails validation.
var ErrInvalidValue = errors.New("upstream returned an unusable value")

// Provenance says where a value came from.
type Provenance string

const (
	Live     Provenance = "live"
	Fallback Provenance = "fallback"
)

// Result is the outcome of WithFallback. Err is set whenever Source is
// Fallback and explains why the live value was not used.
type Result[T any] struct {
	Value  T
	Source Provenance
	Err    error
}

// WithFallback runs fetch once and returns its value when valid accepts it.
// An error or a rejected value yields fallback instead; the call itself never
// fails and never retries.
func WithFallback[T any](ctx context.Context, fetch func(context.Context) (T, error), valid func(T) bool, fallback T) Result[T] {
	v, err := fetch(ctx)
	if err != nil {
		return Result[T]{Value: fallback, Source: Fallback, Err: err}
	}
	if valid != nil && !valid(v) {
		return Result[T]{Value: fallback, Source: Fallback, Err: ErrInvalidValue}
	}
	return Result[T]{Value: v, Source: Live}
}
