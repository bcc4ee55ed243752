package packs

// Rarity is an ordered reward tier, cheapest first.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
	RarityDivine    Rarity = "divine"
)

var rarityOrder = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityEpic,
	RarityLegendary,
	RarityMythic,
	RarityDivine,
}

// Rarities returns all rarities in ascending order.
func Rarities() []Rarity {
	out := make([]Rarity, len(rarityOrder))
	copy(out, rarityOrder)
	return out
}

func (r Rarity) Valid() bool {
	for _, v := range rarityOrder {
		if r == v {
			return true
		}
	}
	return false
}
