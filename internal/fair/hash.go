package fair

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hash returns the hex-encoded SHA-256 digest of a concatenated with b.
// SHA-256 is the trust anchor of the verification scheme: any client can
// reproduce every digest with a standard library.
func Hash(a, b string) string {
	sum := sha256.Sum256([]byte(a + b))
	return hex.EncodeToString(sum[:])
}

// ToUniform maps a hex digest to a float in [0,1) by interpreting its
// first 8 hex characters (32 bits) as an unsigned integer and dividing
// by 2^32-1.
func ToUniform(digest string) float64 {
	n, err := strconv.ParseUint(digest[:8], 16, 64)
	if err != nil {
		return 0
	}
	return float64(n) / float64(0xffffffff)
}

// Chain is the deterministic hash chain threaded through slot generation.
// The state evolves only through Advance, so identical seed pairs and
// discriminator sequences always reproduce identical values.
type Chain struct {
	state string
}

// NewChain seeds a chain with H(serverSeed || clientSeed).
func NewChain(serverSeed, clientSeed string) *Chain {
	return &Chain{state: Hash(serverSeed, clientSeed)}
}

// State returns the current digest.
func (c *Chain) State() string {
	return c.state
}

// Uniform converts the current digest to a float in [0,1) without
// advancing the chain.
func (c *Chain) Uniform() float64 {
	return ToUniform(c.state)
}

// Advance folds a discriminator into the chain: state = H(state || d).
func (c *Chain) Advance(discriminator string) {
	c.state = Hash(c.state, discriminator)
}
