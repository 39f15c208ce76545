package stats

import (
	"testing"
	"time"

	"github.com/pokebinder/pokebinder/internal/models"
)

func TestComputeTotals(t *testing.T) {
	now := time.Now()
	cards := []models.Card{
		{ID: "a", Name: "Pikachu", Quantity: 3, MarketValue: 2, Types: []string{"Lightning"},
			Rarity: "Common", SetName: "Base", AddedDate: now},
		{ID: "b", Name: "Charizard", Quantity: 1, MarketValue: 50, Types: []string{"Fire"},
			Rarity: "Rare Holo", SetName: "Base", AddedDate: now},
	}

	s := computeAt(cards, now)

	if s.TotalCards != 4 {
		t.Errorf("totalCards = %d, want 4", s.TotalCards)
	}
	if s.UniqueCards != 2 {
		t.Errorf("uniqueCards = %d, want 2", s.UniqueCards)
	}
	if s.TotalValue != 56 {
		t.Errorf("totalValue = %v, want 56", s.TotalValue)
	}
	if s.AverageValue != 14 {
		t.Errorf("averageValue = %v, want 14", s.AverageValue)
	}
}

func TestComputeRecentWindow(t *testing.T) {
	now := time.Now()
	cards := []models.Card{
		{ID: "new", Quantity: 2, MarketValue: 5, AddedDate: now.Add(-24 * time.Hour)},
		{ID: "old", Quantity: 1, MarketValue: 100, AddedDate: now.Add(-60 * 24 * time.Hour)},
	}

	s := computeAt(cards, now)

	if s.Recent.Cards != 2 {
		t.Errorf("recent cards = %d, want 2", s.Recent.Cards)
	}
	if s.Recent.Value != 10 {
		t.Errorf("recent value = %v, want 10", s.Recent.Value)
	}
	if s.Recent.Added != 1 {
		t.Errorf("recent added = %d, want 1", s.Recent.Added)
	}
}

func TestTopCardsOrderAndFilter(t *testing.T) {
	cards := []models.Card{
		{ID: "a", Name: "Pikachu", Quantity: 3, MarketValue: 2},
		{ID: "zero", Name: "Energy", Quantity: 10},
		{ID: "b", Name: "Charizard", Quantity: 1, MarketValue: 50},
	}

	s := computeAt(cards, time.Now())

	if len(s.TopCards) != 2 {
		t.Fatalf("expected 2 valued cards, got %d", len(s.TopCards))
	}
	if s.TopCards[0].Name != "Charizard" || s.TopCards[1].Name != "Pikachu" {
		t.Errorf("top order wrong: %q, %q", s.TopCards[0].Name, s.TopCards[1].Name)
	}
}

func TestTopCardsCapAndStableTies(t *testing.T) {
	var cards []models.Card
	for i := 0; i < 15; i++ {
		cards = append(cards, models.Card{ID: string(rune('a' + i)), MarketValue: 1})
	}

	s := computeAt(cards, time.Now())

	if len(s.TopCards) != 10 {
		t.Fatalf("top cards capped at 10, got %d", len(s.TopCards))
	}
	// Equal values keep collection order.
	if s.TopCards[0].ID != "a" || s.TopCards[9].ID != "j" {
		t.Errorf("ties should be stable: first=%q last=%q", s.TopCards[0].ID, s.TopCards[9].ID)
	}
}

func TestGroupingDefaults(t *testing.T) {
	cards := []models.Card{
		{ID: "a", Quantity: 1, MarketValue: 3},
	}

	s := computeAt(cards, time.Now())

	if b, ok := s.ByType["Unknown"]; !ok || b.Count != 1 || b.Value != 3 {
		t.Errorf("typeless card should land in Unknown: %+v", s.ByType)
	}
	if b, ok := s.ByRarity["Unknown"]; !ok || b.Count != 1 {
		t.Errorf("rarityless card should land in Unknown: %+v", s.ByRarity)
	}
	sb, ok := s.BySet["Unknown Set"]
	if !ok || sb.Count != 1 {
		t.Fatalf("setless card should land in Unknown Set: %+v", s.BySet)
	}
	if len(sb.Cards) != 1 || sb.Cards[0].ID != "a" {
		t.Errorf("set bucket should include member cards: %+v", sb.Cards)
	}
}

func TestMultiTypeCardCountsInEachType(t *testing.T) {
	cards := []models.Card{
		{ID: "a", Quantity: 2, MarketValue: 1, Types: []string{"Water", "Psychic"}},
	}

	s := computeAt(cards, time.Now())

	if s.ByType["Water"].Count != 2 || s.ByType["Psychic"].Count != 2 {
		t.Errorf("multi-type card should count in each type: %+v", s.ByType)
	}
}

func TestMostCommonType(t *testing.T) {
	cards := []models.Card{
		{ID: "a", Quantity: 5, Types: []string{"Fire"}},
		{ID: "b", Quantity: 3, Types: []string{"Water"}},
		{ID: "c", Quantity: 9},
	}

	s := computeAt(cards, time.Now())

	if s.MostCommonType != "Fire" {
		t.Errorf("mostCommonType = %q, want Fire", s.MostCommonType)
	}
}

func TestComputeEmptyCollection(t *testing.T) {
	s := computeAt(nil, time.Now())

	if s.TotalCards != 0 || s.TotalValue != 0 || s.AverageValue != 0 {
		t.Errorf("empty collection should be all zeros: %+v", s)
	}
	if len(s.TopCards) != 0 {
		t.Errorf("empty collection has no top cards: %+v", s.TopCards)
	}
}

func TestQuantityBelowOneTreatedAsOne(t *testing.T) {
	cards := []models.Card{{ID: "a", MarketValue: 4}}

	s := computeAt(cards, time.Now())

	if s.TotalCards != 1 || s.TotalValue != 4 {
		t.Errorf("zero quantity should count as 1: cards=%d value=%v", s.TotalCards, s.TotalValue)
	}
}
