// Package random provides the randomness abstraction used by the battle
// engine, with a local cryptographic source and a remote random.org client.
package random

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a remote random source cannot be reached
// or returns an unusable response. Callers may retry; the battle engine
// propagates it unchanged.
var ErrUnavailable = errors.New("random source unavailable")

// Provider is the randomness source for battle resolution.
type Provider interface {
	// Float returns a uniformly distributed value in [0, 1).
	//
	// Postcondition: 0 <= value < 1 when err is nil.
	Float(ctx context.Context) (float64, error)
}

// ProviderFunc adapts a function into a Provider. Useful for deterministic
// test substitutes.
type ProviderFunc func(ctx context.Context) (float64, error)

// Float calls the underlying function.
func (f ProviderFunc) Float(ctx context.Context) (float64, error) {
	return f(ctx)
}
