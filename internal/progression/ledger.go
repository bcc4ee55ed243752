package progression

import (
	"math"
	"time"

	"solcases-backend/internal/packs"
)

// LevelUpEvent is emitted when a pack opening pushes the user past a
// level threshold.
type LevelUpEvent struct {
	OldLevel       int   `json:"old_level"`
	NewLevel       int   `json:"new_level"`
	XPEarned       int64 `json:"xp_earned"`
	TotalXP        int64 `json:"total_xp"`
	XPForNextLevel int64 `json:"xp_for_next_level"`
}

// CollectionCompletedEvent is emitted when a rarity's collection first
// reaches its completion threshold.
type CollectionCompletedEvent struct {
	Rarity packs.Rarity `json:"rarity"`
	Reward RewardSpec   `json:"reward"`
}

// Events collects the side effects of applying one pack result.
type Events struct {
	XPEarned    int64
	LevelUp     *LevelUpEvent
	Completions []CollectionCompletedEvent
}

// ApplyPackResult folds one pack result into the user's progression
// state: XP is granted unconditionally at 1 XP per 0.001 wagered, the
// level is recomputed from cumulative XP, and every card's item is added
// to its rarity collection. The state mutation is all-or-nothing from the
// caller's perspective: this function cannot fail on a valid result.
func ApplyPackResult(state *State, result *packs.PackResult, betAmount float64, now time.Time) Events {
	events := Events{XPEarned: int64(math.Floor(betAmount * 1000))}

	oldLevel := LevelForXP(state.XP)
	state.XP += events.XPEarned
	state.Level = LevelForXP(state.XP)

	if state.Level > oldLevel {
		events.LevelUp = &LevelUpEvent{
			OldLevel:       oldLevel,
			NewLevel:       state.Level,
			XPEarned:       events.XPEarned,
			TotalXP:        state.XP,
			XPForNextLevel: XPForNextLevel(state.Level),
		}
	}

	for _, card := range result.Cards {
		if completed := state.AddItem(card.Rarity, card.Item.Name, now); completed != nil {
			events.Completions = append(events.Completions, *completed)
		}
	}

	return events
}
