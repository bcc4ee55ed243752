package progression_test

import (
	"fmt"
	"testing"
	"time"

	"solcases-backend/internal/packs"
	"solcases-backend/internal/progression"
)

func TestAddItemDeduplicates(t *testing.T) {
	state := progression.NewState()
	now := time.Now()

	state.AddItem(packs.RarityCommon, "red-circle", now)
	state.AddItem(packs.RarityCommon, "red-circle", now)
	state.AddItem(packs.RarityCommon, "blue-circle", now)

	if got := len(state.Collections[packs.RarityCommon]); got != 2 {
		t.Errorf("Expected 2 distinct items, got %d", got)
	}
}

func TestCollectionCompletesOnce(t *testing.T) {
	state := progression.NewState()
	now := time.Now()

	cfg, _ := progression.ConfigFor(packs.RarityDivine)

	var completions int
	for i := 0; i < cfg.Required; i++ {
		name := fmt.Sprintf("item-%d", i)
		if event := state.AddItem(packs.RarityDivine, name, now); event != nil {
			completions++
			if event.Rarity != packs.RarityDivine {
				t.Errorf("Completion event rarity = %s", event.Rarity)
			}
			if event.Reward.Value != cfg.Reward.Value {
				t.Errorf("Completion reward = %v, want %v", event.Reward.Value, cfg.Reward.Value)
			}
		}
	}

	if completions != 1 {
		t.Fatalf("Expected exactly one completion event, got %d", completions)
	}
	if !state.IsCompleted(packs.RarityDivine) {
		t.Error("Collection should be marked completed")
	}

	// More items after completion never re-fire the event.
	if event := state.AddItem(packs.RarityDivine, "item-extra", now); event != nil {
		t.Error("Completion event fired twice")
	}
}

func TestClaimOnce(t *testing.T) {
	state := progression.NewState()
	now := time.Now()

	cfg, _ := progression.ConfigFor(packs.RarityDivine)
	for i := 0; i < cfg.Required; i++ {
		state.AddItem(packs.RarityDivine, fmt.Sprintf("item-%d", i), now)
	}

	reward, err := state.Claim(packs.RarityDivine, now)
	if err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	if reward.Value != cfg.Reward.Value {
		t.Errorf("Claimed reward = %v, want %v", reward.Value, cfg.Reward.Value)
	}

	if _, err := state.Claim(packs.RarityDivine, now); err == nil {
		t.Error("Second claim should fail")
	}

	if len(state.UnclaimedRewards()) != 0 {
		t.Error("No unclaimed rewards should remain")
	}
}

func TestClaimRequiresCompletion(t *testing.T) {
	state := progression.NewState()

	if _, err := state.Claim(packs.RarityCommon, time.Now()); err == nil {
		t.Error("Claiming an incomplete collection should fail")
	}
}

func TestProgressSummary(t *testing.T) {
	state := progression.NewState()
	now := time.Now()

	state.AddItem(packs.RarityRare, "a", now)
	state.AddItem(packs.RarityRare, "b", now)

	progress := state.Progress()

	rare := progress[packs.RarityRare]
	if rare.Collected != 2 {
		t.Errorf("Rare collected = %d, want 2", rare.Collected)
	}
	if rare.Completed {
		t.Error("Rare should not be completed")
	}
	if rare.Percent != float64(2)/float64(rare.Required)*100 {
		t.Errorf("Rare percent = %v", rare.Percent)
	}

	for _, rarity := range packs.Rarities() {
		if _, ok := progress[rarity]; !ok {
			t.Errorf("Progress summary missing %s", rarity)
		}
	}
}
