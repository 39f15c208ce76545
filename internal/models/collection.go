package models

import (
	"time"
)

type Condition string

const (
	ConditionMint      Condition = "Mint"
	ConditionNearMint  Condition = "Near Mint"
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

// AllConditions returns the valid conditions, best first.
func AllConditions() []Condition {
	return []Condition{
		ConditionMint,
		ConditionNearMint,
		ConditionExcellent,
		ConditionGood,
		ConditionFair,
		ConditionPoor,
	}
}

// Valid reports whether c is a known condition value.
func (c Condition) Valid() bool {
	for _, known := range AllConditions() {
		if c == known {
			return true
		}
	}
	return false
}

const DefaultLanguage = "English"

// Collection is the full set of owned cards plus derived totals. The
// derived fields are recomputed on every save and never mutated
// independently.
type Collection struct {
	Cards       []Card    `json:"cards"`
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
	TotalCount  int       `json:"totalCount"`
	TotalValue  float64   `json:"totalValue"`
}

// TotalValueOf sums value x quantity over a card list using the
// resolved per-unit value.
func TotalValueOf(cards []Card) float64 {
	total := 0.0
	for i := range cards {
		qty := cards[i].Quantity
		if qty < 1 {
			qty = 1
		}
		total += cards[i].ResolvedValue() * float64(qty)
	}
	return total
}

// SearchEntry is one remembered search term. History is deduplicated by
// term (most recent wins), newest first, capped at 50 entries.
type SearchEntry struct {
	Term      string    `json:"term"`
	Timestamp time.Time `json:"timestamp"`
}

// ValueSnapshot stores a daily collection value for historical tracking.
// At most one snapshot is recorded per calendar day.
type ValueSnapshot struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	TotalCards  int     `json:"totalCards"`
	UniqueCards int     `json:"uniqueCards"`
	TotalValue  float64 `json:"totalValue"`
}

// ValueHistoryResponse is the API response for value history.
type ValueHistoryResponse struct {
	Snapshots []ValueSnapshot `json:"snapshots"`
	Days      int             `json:"days"`
}
