package packs_test

import (
	"math"
	"testing"

	"solcases-backend/internal/packs"
)

const (
	goldenServerSeed = "1f6a3a0fd2e6c39a1a3f9f6f2f4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2b"
	goldenClientSeed = "0123456789abcdef0123456789abcdef"
)

// Known-good expansion of the golden seed pair on the starter pack.
// Anyone can reproduce these values with a SHA-256 implementation.
func TestResolvePackGolden(t *testing.T) {
	pack, _ := packs.PackByType(packs.PackStarter)

	result, err := packs.ResolvePack(0.001, pack, goldenServerSeed, goldenClientSeed)
	if err != nil {
		t.Fatalf("Failed to resolve pack: %v", err)
	}

	if result.InitialHash != "86a627785ade4a5b68a0e4492e34b2b43adc1ba7456cdb109adac3585b19b35b" {
		t.Errorf("Initial hash mismatch: %s", result.InitialHash)
	}

	want := []struct {
		roll       int
		rarity     packs.Rarity
		multiplier float64
	}{
		{5260, packs.RarityUncommon, 0.12336837071724431},
		{5725, packs.RarityUncommon, 0.10917742864814993},
		{2869, packs.RarityCommon, 0.07206077519433125},
		{7692, packs.RarityRare, 0.1787108351580591},
		{5737, packs.RarityUncommon, 0.11075253807817413},
	}

	if len(result.Cards) != len(want) {
		t.Fatalf("Expected %d cards, got %d", len(want), len(result.Cards))
	}

	for i, w := range want {
		card := result.Cards[i]
		if card.Roll != w.roll {
			t.Errorf("Card %d roll = %d, want %d", i, card.Roll, w.roll)
		}
		if card.Rarity != w.rarity {
			t.Errorf("Card %d rarity = %s, want %s", i, card.Rarity, w.rarity)
		}
		if math.Abs(card.Multiplier-w.multiplier) > 1e-9 {
			t.Errorf("Card %d multiplier = %v, want %v", i, card.Multiplier, w.multiplier)
		}
	}

	if math.Abs(result.TotalMultiplier-0.5940699477959587) > 1e-9 {
		t.Errorf("Total multiplier = %v", result.TotalMultiplier)
	}
	if math.Abs(result.TotalWinAmount-0.0005940699477959587) > 1e-12 {
		t.Errorf("Total win amount = %v", result.TotalWinAmount)
	}
}

// The monetary outcome is a pure function of the seed pair; only the
// cosmetic items may differ between runs.
func TestResolvePackDeterministic(t *testing.T) {
	pack, _ := packs.PackByType(packs.PackElite)

	a, err := packs.ResolvePack(0.1, pack, goldenServerSeed, goldenClientSeed)
	if err != nil {
		t.Fatalf("Failed to resolve pack: %v", err)
	}
	b, err := packs.ResolvePack(0.1, pack, goldenServerSeed, goldenClientSeed)
	if err != nil {
		t.Fatalf("Failed to resolve pack: %v", err)
	}

	if a.TotalMultiplier != b.TotalMultiplier || a.TotalWinAmount != b.TotalWinAmount {
		t.Error("Totals should be identical for identical seed pairs")
	}
	for i := range a.Cards {
		if a.Cards[i].Roll != b.Cards[i].Roll ||
			a.Cards[i].Rarity != b.Cards[i].Rarity ||
			a.Cards[i].Multiplier != b.Cards[i].Multiplier {
			t.Errorf("Card %d differs between identical runs", i)
		}
	}
}

func TestResolvePackBounds(t *testing.T) {
	for _, pt := range packs.Types() {
		pack, _ := packs.PackByType(pt)

		result, err := packs.ResolvePack(pack.Cost, pack, goldenServerSeed, goldenClientSeed)
		if err != nil {
			t.Fatalf("Failed to resolve %s pack: %v", pt, err)
		}

		if len(result.Cards) != packs.SlotsPerPack {
			t.Fatalf("Pack %s produced %d cards, want %d", pt, len(result.Cards), packs.SlotsPerPack)
		}

		var totalMult, totalWin float64
		for i, card := range result.Cards {
			if card.Roll < 1 || card.Roll > packs.RollMax {
				t.Errorf("Pack %s card %d roll %d out of range", pt, i, card.Roll)
			}

			dr := pack.DropRange[card.Rarity]
			lo := card.BaseMultiplier * dr[0]
			hi := card.BaseMultiplier * dr[1]
			if card.Multiplier < lo || card.Multiplier > hi {
				t.Errorf("Pack %s card %d multiplier %v outside [%v,%v]", pt, i, card.Multiplier, lo, hi)
			}

			if math.Abs(card.WinAmount-card.Multiplier*pack.Cost) > 1e-12 {
				t.Errorf("Pack %s card %d win amount inconsistent", pt, i)
			}

			totalMult += card.Multiplier
			totalWin += card.WinAmount
		}

		if math.Abs(result.TotalMultiplier-totalMult) > 1e-9 {
			t.Errorf("Pack %s total multiplier does not equal sum of cards", pt)
		}
		if math.Abs(result.TotalWinAmount-totalWin) > 1e-9 {
			t.Errorf("Pack %s total win amount does not equal sum of cards", pt)
		}
	}
}

func TestResolvePackRejectsBadBet(t *testing.T) {
	pack, _ := packs.PackByType(packs.PackStarter)

	if _, err := packs.ResolvePack(0, pack, goldenServerSeed, goldenClientSeed); err == nil {
		t.Error("Zero bet should be rejected")
	}
	if _, err := packs.ResolvePack(-0.001, pack, goldenServerSeed, goldenClientSeed); err == nil {
		t.Error("Negative bet should be rejected")
	}
}
