package packs

import "fmt"

// PackType identifies a purchasable pack. The set is closed: unknown
// values are rejected at the boundary rather than silently defaulted.
type PackType string

const (
	PackStarter PackType = "starter"
	PackPro     PackType = "pro"
	PackElite   PackType = "elite"
	PackWhale   PackType = "whale"
)

// TierRange maps a closed integer roll range [Lo,Hi] onto a rarity.
type TierRange struct {
	Rarity Rarity
	Lo     int
	Hi     int
}

// RollMax is the upper bound of the roll space; tier ranges of every pack
// partition [1,RollMax] with no gaps or overlaps.
const RollMax = 10000

// Pack is the static configuration for one pack type.
type Pack struct {
	Type PackType

	// Cost is the price of one opening, in SOL.
	Cost float64

	// Table lists tier ranges in declared order; the first range
	// containing a roll wins.
	Table []TierRange

	// BaseMultiplier is the payout multiplier per rarity before jitter.
	BaseMultiplier map[Rarity]float64

	// DropRange is the [min,max] jitter band applied to the base
	// multiplier per rarity.
	DropRange map[Rarity][2]float64
}

var defaultDropRange = map[Rarity][2]float64{
	RarityCommon:    {0.9, 1.1},
	RarityUncommon:  {0.9, 1.1},
	RarityRare:      {0.9, 1.1},
	RarityEpic:      {0.9, 1.1},
	RarityLegendary: {0.9, 1.1},
	RarityMythic:    {0.9, 1.1},
	RarityDivine:    {0.9, 1.1},
}

var packTable = map[PackType]*Pack{
	PackStarter: {
		Type: PackStarter,
		Cost: 0.001,
		Table: []TierRange{
			{RarityCommon, 1, 4500},
			{RarityUncommon, 4501, 6500},
			{RarityRare, 6501, 9000},
			{RarityEpic, 9001, 9800},
			{RarityLegendary, 9801, 10000},
		},
		BaseMultiplier: map[Rarity]float64{
			RarityCommon:    0.08,
			RarityUncommon:  0.12,
			RarityRare:      0.18,
			RarityEpic:      0.35,
			RarityLegendary: 80.0, // the jackpot tier of this pack
			RarityMythic:    0.7,
			RarityDivine:    0.5,
		},
		DropRange: defaultDropRange,
	},
	PackPro: {
		Type: PackPro,
		Cost: 0.01,
		Table: []TierRange{
			{RarityUncommon, 1, 6000},
			{RarityRare, 6001, 9000},
			{RarityEpic, 9001, 9800},
			{RarityLegendary, 9801, 9980},
			{RarityMythic, 9981, 10000},
		},
		BaseMultiplier: map[Rarity]float64{
			RarityCommon:    0.08,
			RarityUncommon:  0.12,
			RarityRare:      0.18,
			RarityEpic:      0.35,
			RarityLegendary: 0.9,
			RarityMythic:    70.0,
			RarityDivine:    0.5,
		},
		DropRange: defaultDropRange,
	},
	PackElite: {
		Type: PackElite,
		Cost: 0.1,
		Table: []TierRange{
			{RarityRare, 1, 5500},
			{RarityEpic, 5501, 9000},
			{RarityLegendary, 9001, 9800},
			{RarityMythic, 9801, 9980},
			{RarityDivine, 9981, 10000},
		},
		BaseMultiplier: map[Rarity]float64{
			RarityCommon:    0.08,
			RarityUncommon:  0.12,
			RarityRare:      0.15,
			RarityEpic:      0.28,
			RarityLegendary: 0.95,
			RarityMythic:    3.0,
			RarityDivine:    50.0,
		},
		DropRange: defaultDropRange,
	},
	PackWhale: {
		Type: PackWhale,
		Cost: 1.0,
		Table: []TierRange{
			{RarityEpic, 1, 5000},
			{RarityLegendary, 5001, 8500},
			{RarityMythic, 8501, 9700},
			{RarityDivine, 9701, 10000},
		},
		BaseMultiplier: map[Rarity]float64{
			RarityCommon:    0.08,
			RarityUncommon:  0.12,
			RarityRare:      0.18,
			RarityEpic:      0.15,
			RarityLegendary: 0.35,
			RarityMythic:    0.25,
			RarityDivine:    5.0,
		},
		DropRange: defaultDropRange,
	},
}

// PackByType returns the pack configuration for t, or an error for an
// unrecognized pack type.
func PackByType(t PackType) (*Pack, error) {
	pack, ok := packTable[t]
	if !ok {
		return nil, fmt.Errorf("unknown pack type: %s", t)
	}
	return pack, nil
}

// Types returns all supported pack types.
func Types() []PackType {
	return []PackType{PackStarter, PackPro, PackElite, PackWhale}
}

// Validate checks the structural invariants of a pack: tier ranges in
// ascending order, contiguous, exactly covering [1,RollMax], with a base
// multiplier and drop range configured for every listed rarity.
func (p *Pack) Validate() error {
	if p.Cost <= 0 {
		return fmt.Errorf("pack %s: cost must be positive", p.Type)
	}
	if len(p.Table) == 0 {
		return fmt.Errorf("pack %s: empty payout table", p.Type)
	}

	next := 1
	for _, tr := range p.Table {
		if tr.Lo != next {
			return fmt.Errorf("pack %s: range for %s starts at %d, want %d", p.Type, tr.Rarity, tr.Lo, next)
		}
		if tr.Hi < tr.Lo {
			return fmt.Errorf("pack %s: inverted range for %s", p.Type, tr.Rarity)
		}
		if _, ok := p.BaseMultiplier[tr.Rarity]; !ok {
			return fmt.Errorf("pack %s: no base multiplier for %s", p.Type, tr.Rarity)
		}
		dr, ok := p.DropRange[tr.Rarity]
		if !ok {
			return fmt.Errorf("pack %s: no drop range for %s", p.Type, tr.Rarity)
		}
		if dr[0] > dr[1] {
			return fmt.Errorf("pack %s: inverted drop range for %s", p.Type, tr.Rarity)
		}
		next = tr.Hi + 1
	}

	if next != RollMax+1 {
		return fmt.Errorf("pack %s: table covers [1,%d], want [1,%d]", p.Type, next-1, RollMax)
	}
	return nil
}
