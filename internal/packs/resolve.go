package packs

import (
	"fmt"
	"math"
	"strconv"

	"solcases-backend/internal/fair"
)

// SlotsPerPack is the number of reward slots produced per pack opening.
const SlotsPerPack = 5

// nextSlotSalt advances the chain between slots so slot i+1's derivation
// cannot be predicted from slot i's roll alone.
const nextSlotSalt = "next"

// Card is one resolved reward slot.
type Card struct {
	Rarity         Rarity  `json:"rarity"`
	Roll           int     `json:"roll"`
	BaseMultiplier float64 `json:"base_multiplier"`
	DropFactor     float64 `json:"drop_factor"`
	Multiplier     float64 `json:"multiplier"`
	WinAmount      float64 `json:"win_amount"`
	Item           Item    `json:"item"`
}

// PackResult aggregates the five slots of one opening together with the
// data a client needs to replay the resolution.
type PackResult struct {
	Cards           []Card  `json:"cards"`
	TotalMultiplier float64 `json:"total_multiplier"`
	TotalWinAmount  float64 `json:"total_win_amount"`
	ServerSeed      string  `json:"server_seed"`
	ClientSeed      string  `json:"client_seed"`
	InitialHash     string  `json:"initial_hash"`
}

// RollFromUniform converts a uniform value in [0,1) to an integer roll in
// [1,RollMax].
func RollFromUniform(u float64) int {
	roll := int(math.Floor(u*RollMax)) + 1
	if roll > RollMax {
		// ToUniform can yield exactly 1.0 when the digest prefix is
		// ffffffff; clamp so the roll stays in range.
		roll = RollMax
	}
	return roll
}

// ResolveTier returns the rarity whose range contains roll. Ranges are
// checked in declared table order and the first match wins. Rolls outside
// every range fall back to the lowest rarity the pack offers.
func (p *Pack) ResolveTier(roll int) Rarity {
	for _, tr := range p.Table {
		if roll >= tr.Lo && roll <= tr.Hi {
			return tr.Rarity
		}
	}
	return p.Table[0].Rarity
}

// ResolvePack resolves one pack opening from a seed pair. The monetary
// outcome (rarities, rolls, multipliers, win amounts) is a pure function
// of (betAmount, pack, serverSeed, clientSeed); only the cosmetic item
// choice draws from a non-deterministic source.
//
// Per slot the chain advances twice: once with the slot index to derive
// the jitter value, and once with a fixed salt before the next slot, so
// the roll-determining and jitter-determining hashes are always distinct
// chain steps.
func ResolvePack(betAmount float64, p *Pack, serverSeed, clientSeed string) (*PackResult, error) {
	if betAmount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive, got %v", betAmount)
	}

	chain := fair.NewChain(serverSeed, clientSeed)

	result := &PackResult{
		Cards:       make([]Card, 0, SlotsPerPack),
		ServerSeed:  serverSeed,
		ClientSeed:  clientSeed,
		InitialHash: chain.State(),
	}

	for i := 0; i < SlotsPerPack; i++ {
		roll := RollFromUniform(chain.Uniform())
		rarity := p.ResolveTier(roll)
		base := p.BaseMultiplier[rarity]

		chain.Advance(strconv.Itoa(i))
		dr := p.DropRange[rarity]
		dropFactor := dr[0] + chain.Uniform()*(dr[1]-dr[0])

		multiplier := base * dropFactor
		winAmount := multiplier * betAmount

		result.Cards = append(result.Cards, Card{
			Rarity:         rarity,
			Roll:           roll,
			BaseMultiplier: base,
			DropFactor:     dropFactor,
			Multiplier:     multiplier,
			WinAmount:      winAmount,
			Item:           PickItem(rarity),
		})

		result.TotalMultiplier += multiplier
		result.TotalWinAmount += winAmount

		chain.Advance(nextSlotSalt)
	}

	return result, nil
}
