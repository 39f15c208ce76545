package models

import (
	"time"
)

// Card is one distinct owned card entry in the collection. Records fetched
// from the catalog API keep the remote id; manually created records get a
// locally generated one.
type Card struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Number         string `json:"number"`
	SetName        string `json:"setName"`
	SetCode        string `json:"setCode"`
	SetReleaseDate string `json:"setReleaseDate,omitempty"`

	Rarity    string   `json:"rarity,omitempty"`
	Supertype string   `json:"supertype,omitempty"`
	Types     []string `json:"types,omitempty"`

	ImageSmall string `json:"imageSmall,omitempty"`
	ImageLarge string `json:"imageLarge,omitempty"`

	TCGPlayer  *TCGPlayerPricing  `json:"tcgplayer,omitempty"`
	CardMarket *CardMarketPricing `json:"cardmarket,omitempty"`

	// MarketValue is the per-unit value pinned when the card was added.
	// EstimatedValue is filled at ingestion for cards the API has no
	// pricing for; it never overrides a real market price.
	MarketValue    float64 `json:"marketValue,omitempty"`
	EstimatedValue float64 `json:"estimatedValue,omitempty"`

	Quantity      int       `json:"quantity"`
	Condition     Condition `json:"condition"`
	Language      string    `json:"language"`
	Notes         string    `json:"notes,omitempty"`
	PurchasePrice float64   `json:"purchasePrice,omitempty"`
	PurchaseDate  string    `json:"purchaseDate,omitempty"`
	AddedDate     time.Time `json:"addedDate"`
	LastUpdated   time.Time `json:"lastUpdated,omitempty"`
}

// TCGPlayerPricing mirrors the catalog API's tcgplayer block. Prices is
// keyed by variant ("normal", "holofoil", "reverseHolofoil").
type TCGPlayerPricing struct {
	URL       string                `json:"url,omitempty"`
	UpdatedAt string                `json:"updatedAt,omitempty"`
	Prices    map[string]PriceRange `json:"prices,omitempty"`
}

type PriceRange struct {
	Low    float64 `json:"low,omitempty"`
	Mid    float64 `json:"mid,omitempty"`
	High   float64 `json:"high,omitempty"`
	Market float64 `json:"market,omitempty"`
}

// CardMarketPricing mirrors the catalog API's cardmarket block.
type CardMarketPricing struct {
	URL    string           `json:"url,omitempty"`
	Prices CardMarketPrices `json:"prices,omitempty"`
}

type CardMarketPrices struct {
	AverageSellPrice float64 `json:"averageSellPrice,omitempty"`
	TrendPrice       float64 `json:"trendPrice,omitempty"`
}

// SameCard reports whether two records describe the same physical card:
// matching id, or matching (name, setCode, number). Adding a card that
// matches an existing entry increments its quantity instead of
// duplicating the record.
func (c *Card) SameCard(other *Card) bool {
	if c.ID != "" && c.ID == other.ID {
		return true
	}
	return c.Name == other.Name && c.SetCode == other.SetCode && c.Number == other.Number
}

// ResolvedValue returns the per-unit value of the card with a fixed
// fallback order: pinned market value, tcgplayer normal market,
// tcgplayer holofoil market, tcgplayer reverse holofoil market,
// cardmarket trend price, then 0. The estimated value is intentionally
// not part of the chain; it is recorded separately at ingestion.
func (c *Card) ResolvedValue() float64 {
	if c.MarketValue > 0 {
		return c.MarketValue
	}
	if c.TCGPlayer != nil {
		for _, variant := range []string{"normal", "holofoil", "reverseHolofoil"} {
			if p, ok := c.TCGPlayer.Prices[variant]; ok && p.Market > 0 {
				return p.Market
			}
		}
	}
	if c.CardMarket != nil && c.CardMarket.Prices.TrendPrice > 0 {
		return c.CardMarket.Prices.TrendPrice
	}
	return 0
}

// CardUpdate carries a partial update for a collection entry. Nil fields
// are left untouched.
type CardUpdate struct {
	Quantity      *int       `json:"quantity"`
	Condition     *Condition `json:"condition"`
	Language      *string    `json:"language"`
	Notes         *string    `json:"notes"`
	MarketValue   *float64   `json:"marketValue"`
	PurchasePrice *float64   `json:"purchasePrice"`
	PurchaseDate  *string    `json:"purchaseDate"`
}
