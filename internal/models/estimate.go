package models

import (
	"math"
	"strconv"
	"strings"
)

// Rarity tier base values in USD. Tiers are matched by substring, most
// specific first, so "Rare Holo" lands on the rare tier and
// "Ultra Rare" does not fall through to it.
const (
	estimateBaseDefault  = 0.5
	estimateBaseCommon   = 0.25
	estimateBaseUncommon = 0.75
	estimateBaseRare     = 2
	estimateBaseUltra    = 10
)

// EstimateValue produces a rough per-unit value for a card the catalog
// has no market pricing for: rarity tier base, x1.5 for holofoil/foil
// variants, x2 for sets released before 2000, rounded to the nearest
// quarter dollar. Deterministic; unknown or missing rarity uses the
// default tier.
func EstimateValue(c *Card) float64 {
	base := estimateBaseDefault

	// The catalog writes these both ways ("Ultra Rare", "Rare Ultra"),
	// so match the qualifier alone.
	rarity := strings.ToLower(c.Rarity)
	switch {
	case strings.Contains(rarity, "ultra"), strings.Contains(rarity, "secret"):
		base = estimateBaseUltra
	case strings.Contains(rarity, "rare"):
		base = estimateBaseRare
	case strings.Contains(rarity, "uncommon"):
		base = estimateBaseUncommon
	case strings.Contains(rarity, "common"):
		base = estimateBaseCommon
	}

	if strings.Contains(c.Name, "Holofoil") || strings.Contains(c.Name, "Foil") {
		base *= 1.5
	}

	if year := releaseYear(c.SetReleaseDate); year > 0 && year < 2000 {
		base *= 2
	}

	return math.Round(base*4) / 4
}

// releaseYear extracts the leading year from a catalog release date
// ("1999/01/09"). Returns 0 when the date is absent or malformed.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
