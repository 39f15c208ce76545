// Package stats aggregates a card collection into the numbers shown on
// the dashboard: totals, recent activity, top cards, and groupings.
package stats

import (
	"sort"
	"time"

	"github.com/pokebinder/pokebinder/internal/models"
)

const (
	recentWindow = 30 * 24 * time.Hour
	topCardCount = 10
)

// Bucket is a count/value pair for one grouping key.
type Bucket struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// SetBucket groups the cards of one set along with its totals.
type SetBucket struct {
	Count int           `json:"count"`
	Value float64       `json:"value"`
	Cards []models.Card `json:"cards"`
}

// Recent covers collection activity in the last 30 days.
type Recent struct {
	Cards int     `json:"cards"`
	Value float64 `json:"value"`
	Added int     `json:"added"`
}

// Statistics is the full aggregation over a collection.
type Statistics struct {
	TotalCards     int                  `json:"totalCards"`
	UniqueCards    int                  `json:"uniqueCards"`
	TotalValue     float64              `json:"totalValue"`
	AverageValue   float64              `json:"averageValue"`
	Recent         Recent               `json:"recent"`
	TopCards       []models.Card        `json:"topCards"`
	ByType         map[string]Bucket    `json:"byType"`
	ByRarity       map[string]Bucket    `json:"byRarity"`
	BySet          map[string]SetBucket `json:"bySet"`
	MostCommonType string               `json:"mostCommonType,omitempty"`
	GeneratedAt    time.Time            `json:"generatedAt"`
}

// Compute aggregates the given cards as of now.
func Compute(cards []models.Card) Statistics {
	return computeAt(cards, time.Now())
}

func computeAt(cards []models.Card, now time.Time) Statistics {
	s := Statistics{
		UniqueCards: len(cards),
		ByType:      make(map[string]Bucket),
		ByRarity:    make(map[string]Bucket),
		BySet:       make(map[string]SetBucket),
		GeneratedAt: now,
	}

	cutoff := now.Add(-recentWindow)
	for i := range cards {
		card := cards[i]
		qty := card.Quantity
		if qty < 1 {
			qty = 1
		}
		value := card.ResolvedValue()
		lineValue := value * float64(qty)

		s.TotalCards += qty
		s.TotalValue += lineValue

		if card.AddedDate.After(cutoff) {
			s.Recent.Cards += qty
			s.Recent.Value += lineValue
			s.Recent.Added++
		}

		types := card.Types
		if len(types) == 0 {
			types = []string{"Unknown"}
		}
		for _, typ := range types {
			b := s.ByType[typ]
			b.Count += qty
			b.Value += lineValue
			s.ByType[typ] = b
		}

		rarity := card.Rarity
		if rarity == "" {
			rarity = "Unknown"
		}
		rb := s.ByRarity[rarity]
		rb.Count += qty
		rb.Value += lineValue
		s.ByRarity[rarity] = rb

		setName := card.SetName
		if setName == "" {
			setName = "Unknown Set"
		}
		sb := s.BySet[setName]
		sb.Count += qty
		sb.Value += lineValue
		sb.Cards = append(sb.Cards, card)
		s.BySet[setName] = sb
	}

	if s.TotalCards > 0 {
		s.AverageValue = s.TotalValue / float64(s.TotalCards)
	}
	s.TopCards = topByValue(cards)
	s.MostCommonType = mostCommonType(s.ByType)
	return s
}

// topByValue picks the highest per-unit-value cards, descending, ties
// kept in collection order. Cards with no resolvable value are skipped.
func topByValue(cards []models.Card) []models.Card {
	valued := make([]models.Card, 0, len(cards))
	for i := range cards {
		if cards[i].ResolvedValue() > 0 {
			valued = append(valued, cards[i])
		}
	}
	sort.SliceStable(valued, func(i, j int) bool {
		return valued[i].ResolvedValue() > valued[j].ResolvedValue()
	})
	if len(valued) > topCardCount {
		valued = valued[:topCardCount]
	}
	return valued
}

// mostCommonType returns the type with the highest card count. Ties
// break alphabetically so the answer is deterministic; "Unknown" never
// wins over a real type.
func mostCommonType(byType map[string]Bucket) string {
	best := ""
	bestCount := 0
	for typ, b := range byType {
		if typ == "Unknown" {
			continue
		}
		if b.Count > bestCount || (b.Count == bestCount && best != "" && typ < best) {
			best = typ
			bestCount = b.Count
		}
	}
	return best
}
