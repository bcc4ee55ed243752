package fair_test

import (
	"testing"

	"solcases-backend/internal/fair"
)

type memorySeedStore struct {
	seeds map[string][]string
}

func newMemorySeedStore() *memorySeedStore {
	return &memorySeedStore{seeds: make(map[string][]string)}
}

func (m *memorySeedStore) AppendServerSeed(userKey, seed string) error {
	m.seeds[userKey] = append(m.seeds[userKey], seed)
	if len(m.seeds[userKey]) > fair.SeedHistoryLimit {
		m.seeds[userKey] = m.seeds[userKey][len(m.seeds[userKey])-fair.SeedHistoryLimit:]
	}
	return nil
}

func (m *memorySeedStore) LatestServerSeed(userKey string) (string, error) {
	history := m.seeds[userKey]
	if len(history) == 0 {
		return "", nil
	}
	return history[len(history)-1], nil
}

func (m *memorySeedStore) ServerSeedHistory(userKey string) ([]string, error) {
	return m.seeds[userKey], nil
}

func TestIssueServerSeed(t *testing.T) {
	store := newMemorySeedStore()
	manager := fair.NewSeedManager(store)

	seed, err := manager.IssueServerSeed("user1")
	if err != nil {
		t.Fatalf("Failed to issue server seed: %v", err)
	}

	if len(seed) != 64 {
		t.Errorf("Server seed should be 64 hex chars, got %d", len(seed))
	}

	latest, _ := store.LatestServerSeed("user1")
	if latest != seed {
		t.Error("Issued seed should be stored as latest")
	}

	second, _ := manager.IssueServerSeed("user1")
	if second == seed {
		t.Error("Consecutive seeds should differ")
	}
}

func TestSeedHistoryCap(t *testing.T) {
	store := newMemorySeedStore()
	manager := fair.NewSeedManager(store)

	for i := 0; i < fair.SeedHistoryLimit+5; i++ {
		if _, err := manager.IssueServerSeed("user1"); err != nil {
			t.Fatalf("Failed to issue seed %d: %v", i, err)
		}
	}

	history, _ := store.ServerSeedHistory("user1")
	if len(history) != fair.SeedHistoryLimit {
		t.Errorf("History should be capped at %d, got %d", fair.SeedHistoryLimit, len(history))
	}
}

func TestCurrentCommitment(t *testing.T) {
	store := newMemorySeedStore()
	manager := fair.NewSeedManager(store)

	_, ok, err := manager.CurrentCommitment("user1")
	if err != nil {
		t.Fatalf("Commitment lookup failed: %v", err)
	}
	if ok {
		t.Error("Commitment should not exist before any seed is issued")
	}

	seed, _ := manager.IssueServerSeed("user1")

	commitment, ok, err := manager.CurrentCommitment("user1")
	if err != nil {
		t.Fatalf("Commitment lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("Commitment should exist after a seed is issued")
	}

	if commitment != fair.Hash(seed, "pending") {
		t.Error("Commitment should be Hash(seed, \"pending\")")
	}
}

func TestGenerateClientSeed(t *testing.T) {
	manager := fair.NewSeedManager(newMemorySeedStore())

	a := manager.GenerateClientSeed()
	b := manager.GenerateClientSeed()

	if len(a) != 32 {
		t.Errorf("Client seed should be 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("Consecutive client seeds should differ")
	}
}
