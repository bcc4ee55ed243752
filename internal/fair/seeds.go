package fair

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SeedHistoryLimit caps how many prior server seeds are retained per user,
// oldest evicted first.
const SeedHistoryLimit = 10

// commitmentSalt is appended to the latest server seed when computing the
// published commitment, before any client seed exists.
const commitmentSalt = "pending"

// SeedStore persists per-user server seed history. Implementations must
// enforce SeedHistoryLimit with FIFO eviction.
type SeedStore interface {
	AppendServerSeed(userKey, seed string) error
	LatestServerSeed(userKey string) (string, error)
	ServerSeedHistory(userKey string) ([]string, error)
}

// SeedManager issues server and client seeds and exposes the commitment
// hash published to clients before resolution.
type SeedManager struct {
	store SeedStore
}

func NewSeedManager(store SeedStore) *SeedManager {
	return &SeedManager{store: store}
}

// IssueServerSeed mints a fresh 32-byte server seed for the user and
// appends it to their seed history.
func (m *SeedManager) IssueServerSeed(userKey string) (string, error) {
	seed := randomHex(32)
	if err := m.store.AppendServerSeed(userKey, seed); err != nil {
		return "", fmt.Errorf("failed to store server seed: %v", err)
	}
	return seed, nil
}

// CurrentCommitment returns H(latestSeed || "pending") for the user, or
// ok=false when no seed has been issued yet.
func (m *SeedManager) CurrentCommitment(userKey string) (string, bool, error) {
	seed, err := m.store.LatestServerSeed(userKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to load server seed: %v", err)
	}
	if seed == "" {
		return "", false, nil
	}
	return Hash(seed, commitmentSalt), true, nil
}

// GenerateClientSeed returns 16 bytes of secure randomness, hex-encoded.
func (m *SeedManager) GenerateClientSeed() string {
	return randomHex(16)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// A depleted entropy source is a fatal environment error.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
