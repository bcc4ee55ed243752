package packs

import "math/rand"

// Item is the cosmetic reward attached to a card. Item selection is not
// part of the fairness chain: it does not affect payout and may use an
// ordinary random source.
type Item struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var itemColors = []string{"red", "blue", "green", "yellow", "pink"}

type itemKind struct {
	kind string
	icon string
}

var itemKinds = map[Rarity][]itemKind{
	RarityCommon: {
		{"cube", "🧊"}, {"dice", "🎲"}, {"banana", "🍌"}, {"fish", "🐟"},
		{"rock", "🪨"}, {"cup", "🥤"}, {"leaf", "🍃"}, {"cloud", "☁️"},
		{"mushroom", "🍄"}, {"toiletpaper", "🧻"},
	},
	RarityUncommon: {
		{"bolt", "⚡"}, {"chip", "🎰"}, {"lightbulb", "💡"},
		{"key", "🔑"}, {"star", "⭐"}, {"magnet", "🧲"},
	},
	RarityRare: {
		{"sword", "⚔️"}, {"controller", "🎮"}, {"cookie", "🍪"}, {"pill", "💊"},
	},
	RarityEpic: {
		{"burger", "🍔"}, {"flame", "🔥"}, {"rifle", "🔫"},
	},
	RarityLegendary: {
		{"dragon", "🐉"}, {"rocket", "🚀"},
	},
	RarityMythic: {
		{"trophy", "🏆"}, {"gem", "💎"},
	},
}

var itemCatalog = buildCatalog()

func buildCatalog() map[Rarity][]Item {
	catalog := make(map[Rarity][]Item, len(rarityOrder))
	for rarity, kinds := range itemKinds {
		items := make([]Item, 0, len(kinds)*len(itemColors))
		for _, k := range kinds {
			for _, color := range itemColors {
				items = append(items, Item{
					Name:  color + "-" + k.kind,
					Icon:  k.icon,
					Color: color,
				})
			}
		}
		catalog[rarity] = items
	}

	// Divine items are one-off relics, not color variants.
	catalog[RarityDivine] = []Item{
		{Name: "solana-throne", Icon: "👑", Color: "gold"},
		{Name: "solana-crown", Icon: "👑", Color: "gold"},
		{Name: "solana-blade", Icon: "⚔️", Color: "gold"},
		{Name: "solana-orb", Icon: "🔮", Color: "gold"},
		{Name: "solana-relic", Icon: "🏛️", Color: "gold"},
	}

	return catalog
}

// Catalog returns the cosmetic item catalog for a rarity.
func Catalog(rarity Rarity) []Item {
	if items, ok := itemCatalog[rarity]; ok {
		return items
	}
	return itemCatalog[RarityCommon]
}

// PickItem selects a uniformly random cosmetic item for a rarity.
func PickItem(rarity Rarity) Item {
	items := Catalog(rarity)
	return items[rand.Intn(len(items))]
}
