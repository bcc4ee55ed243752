package progression

import (
	"fmt"
	"time"

	"solcases-backend/internal/packs"
)

// RewardSOL is the only reward type currently paid out; the type field
// stays open for non-monetary rewards later.
const RewardSOL = "sol"

// RewardSpec describes what a completed collection pays out.
type RewardSpec struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// CollectionConfig is the completion threshold and reward per rarity.
type CollectionConfig struct {
	Required int
	Reward   RewardSpec
}

var collectionConfigs = map[packs.Rarity]CollectionConfig{
	packs.RarityCommon:    {Required: 50, Reward: RewardSpec{Type: RewardSOL, Value: 0.001}},
	packs.RarityUncommon:  {Required: 30, Reward: RewardSpec{Type: RewardSOL, Value: 0.005}},
	packs.RarityRare:      {Required: 20, Reward: RewardSpec{Type: RewardSOL, Value: 0.02}},
	packs.RarityEpic:      {Required: 15, Reward: RewardSpec{Type: RewardSOL, Value: 0.05}},
	packs.RarityLegendary: {Required: 10, Reward: RewardSpec{Type: RewardSOL, Value: 0.1}},
	packs.RarityMythic:    {Required: 10, Reward: RewardSpec{Type: RewardSOL, Value: 0.2}},
	packs.RarityDivine:    {Required: 5, Reward: RewardSpec{Type: RewardSOL, Value: 0.5}},
}

// ConfigFor returns the collection config for a rarity.
func ConfigFor(rarity packs.Rarity) (CollectionConfig, bool) {
	cfg, ok := collectionConfigs[rarity]
	return cfg, ok
}

// ClaimableReward is the pending payout for a completed collection.
type ClaimableReward struct {
	Rarity      packs.Rarity `json:"rarity"`
	Reward      RewardSpec   `json:"reward"`
	CompletedAt time.Time    `json:"completed_at"`
	Claimed     bool         `json:"claimed"`
	ClaimedAt   *time.Time   `json:"claimed_at,omitempty"`
}

// State is one user's progression and collection state. It is stored as
// a JSON blob keyed by user; callers own the concurrency discipline
// (single writer per key).
type State struct {
	XP          int64                     `json:"xp"`
	Level       int                       `json:"level"`
	Collections map[packs.Rarity][]string `json:"collections"`
	Completed   []packs.Rarity            `json:"completed"`
	Rewards     []ClaimableReward         `json:"rewards"`
}

// NewState returns an empty progression state at level 1.
func NewState() *State {
	return &State{
		Level:       1,
		Collections: make(map[packs.Rarity][]string),
	}
}

// IsCompleted reports whether the rarity's collection has been completed.
// Completion is monotonic: once set it never resets.
func (s *State) IsCompleted(rarity packs.Rarity) bool {
	for _, r := range s.Completed {
		if r == rarity {
			return true
		}
	}
	return false
}

func (s *State) ownsItem(rarity packs.Rarity, name string) bool {
	for _, owned := range s.Collections[rarity] {
		if owned == name {
			return true
		}
	}
	return false
}

// AddItem records ownership of an item name under its rarity. It returns
// a completion event exactly once per rarity per user lifetime: when the
// distinct-item count first reaches the rarity's threshold.
func (s *State) AddItem(rarity packs.Rarity, name string, now time.Time) *CollectionCompletedEvent {
	if s.Collections == nil {
		s.Collections = make(map[packs.Rarity][]string)
	}
	if !s.ownsItem(rarity, name) {
		s.Collections[rarity] = append(s.Collections[rarity], name)
	}

	cfg, ok := collectionConfigs[rarity]
	if !ok {
		return nil
	}
	if len(s.Collections[rarity]) < cfg.Required || s.IsCompleted(rarity) {
		return nil
	}

	s.Completed = append(s.Completed, rarity)
	s.Rewards = append(s.Rewards, ClaimableReward{
		Rarity:      rarity,
		Reward:      cfg.Reward,
		CompletedAt: now,
	})

	return &CollectionCompletedEvent{Rarity: rarity, Reward: cfg.Reward}
}

// Claim marks the rarity's collection reward claimed and returns it.
// Each reward is claimable exactly once.
func (s *State) Claim(rarity packs.Rarity, now time.Time) (RewardSpec, error) {
	if !s.IsCompleted(rarity) {
		return RewardSpec{}, fmt.Errorf("collection not completed: %s", rarity)
	}
	for i := range s.Rewards {
		if s.Rewards[i].Rarity == rarity && !s.Rewards[i].Claimed {
			s.Rewards[i].Claimed = true
			t := now
			s.Rewards[i].ClaimedAt = &t
			return s.Rewards[i].Reward, nil
		}
	}
	return RewardSpec{}, fmt.Errorf("reward already claimed for %s", rarity)
}

// UnclaimedRewards returns the rewards still available to claim.
func (s *State) UnclaimedRewards() []ClaimableReward {
	var out []ClaimableReward
	for _, r := range s.Rewards {
		if !r.Claimed {
			out = append(out, r)
		}
	}
	return out
}

// CollectionProgress is the per-rarity progress summary returned to
// clients.
type CollectionProgress struct {
	Collected int     `json:"collected"`
	Required  int     `json:"required"`
	Completed bool    `json:"completed"`
	Percent   float64 `json:"progress"`
}

// Progress summarizes all collections for a user.
func (s *State) Progress() map[packs.Rarity]CollectionProgress {
	out := make(map[packs.Rarity]CollectionProgress, len(collectionConfigs))
	for rarity, cfg := range collectionConfigs {
		collected := len(s.Collections[rarity])
		percent := float64(collected) / float64(cfg.Required) * 100
		if percent > 100 {
			percent = 100
		}
		out[rarity] = CollectionProgress{
			Collected: collected,
			Required:  cfg.Required,
			Completed: s.IsCompleted(rarity),
			Percent:   percent,
		}
	}
	return out
}
