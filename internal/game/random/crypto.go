package random

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// floatResolution is the denominator for crypto draws: 2^53, the largest
// power of two whose reciprocal steps are exactly representable in a float64.
const floatResolution = 1 << 53

// cryptoProvider implements Provider using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, 1).
type cryptoProvider struct{}

// NewCryptoProvider returns a Provider backed by crypto/rand.
//
// Postcondition: Every value returned by Float is in [0, 1).
func NewCryptoProvider() Provider {
	return &cryptoProvider{}
}

// Float returns a cryptographically secure random float64 in [0, 1).
func (c *cryptoProvider) Float(_ context.Context) (float64, error) {
	val, err := rand.Int(rand.Reader, big.NewInt(floatResolution))
	if err != nil {
		return 0, fmt.Errorf("reading crypto/rand: %w", err)
	}
	return float64(val.Int64()) / floatResolution, nil
}
