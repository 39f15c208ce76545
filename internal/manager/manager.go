// Package manager coordinates the collection view: search against the
// catalog, mutations through the store, and the filtered, sorted,
// paginated read path the API serves.
package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/pokebinder/pokebinder/internal/catalog"
	"github.com/pokebinder/pokebinder/internal/models"
)

const (
	minSearchLength = 2
	defaultPageSize = 20
	maxSuggestions  = 5
)

// CollectionStore is the persistence surface the manager needs. Every
// mutation returns the fresh collection, which the manager adopts as
// its new view.
type CollectionStore interface {
	LoadCollection() models.Collection
	AddCard(card models.Card) (models.Collection, error)
	UpdateCard(id string, upd models.CardUpdate) (models.Collection, error)
	RemoveCard(id string) (models.Collection, error)
	SearchHistory() []models.SearchEntry
	AddSearchTerm(term string) []models.SearchEntry
}

// CardSearcher is the catalog surface the manager needs.
type CardSearcher interface {
	SearchByName(ctx context.Context, name string) (*catalog.SearchResult, error)
	GetCard(ctx context.Context, id string) (*catalog.CardResult, error)
}

// Filter selects cards from the view. Fields combine with AND; each
// call is a fresh pass over the full collection, filters never stack
// across calls. Zero fields match everything.
type Filter struct {
	Name      string
	Type      string
	Set       string
	Rarity    string
	Condition string
	MinValue  *float64
	MaxValue  *float64
}

// SortKey names a sortable column.
type SortKey string

const (
	SortByName   SortKey = "name"
	SortBySet    SortKey = "set"
	SortByValue  SortKey = "value"
	SortByRarity SortKey = "rarity"
	SortByDate   SortKey = "date"
)

// Page is one page of the filtered, sorted view.
type Page struct {
	Cards      []models.Card `json:"cards"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	TotalCards int           `json:"totalCards"`
}

// Manager holds the in-memory collection view. The view is a cache of
// the store's truth, replaced wholesale after every mutation.
type Manager struct {
	store    CollectionStore
	searcher CardSearcher
	debounce *Debouncer
	pageSize int

	mu      sync.Mutex
	view    models.Collection
	sortKey SortKey
	sortAsc bool
}

// New builds a manager with its view loaded from the store.
func New(store CollectionStore, searcher CardSearcher, pageSize int) *Manager {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Manager{
		store:    store,
		searcher: searcher,
		debounce: NewDebouncer(defaultDebounceDelay),
		pageSize: pageSize,
		view:     store.LoadCollection(),
		sortKey:  SortByName,
		sortAsc:  true,
	}
}

// Collection returns the current view.
func (m *Manager) Collection() models.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Refresh reloads the view from the store.
func (m *Manager) Refresh() {
	col := m.store.LoadCollection()
	m.mu.Lock()
	m.view = col
	m.mu.Unlock()
}

// SearchNow queries the catalog immediately and records the term in the
// search history. Terms shorter than two characters are rejected.
func (m *Manager) SearchNow(ctx context.Context, term string) (*catalog.SearchResult, error) {
	term = strings.TrimSpace(term)
	if len(term) < minSearchLength {
		return nil, fmt.Errorf("search term must be at least %d characters", minSearchLength)
	}

	result, err := m.searcher.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}
	m.store.AddSearchTerm(term)
	return result, nil
}

// SearchDebounced schedules a search after the quiet period and
// delivers the outcome to deliver. A schedule superseded by newer input
// is silently dropped; so is a stale response that lost the race.
func (m *Manager) SearchDebounced(ctx context.Context, term string, deliver func(*catalog.SearchResult, error)) {
	term = strings.TrimSpace(term)
	if len(term) < minSearchLength {
		m.debounce.Cancel()
		return
	}

	m.debounce.Do(func(seq uint64) {
		result, err := m.SearchNow(ctx, term)
		if m.debounce.Current() != seq {
			return
		}
		deliver(result, err)
	})
}

// SelectCard builds an addable card record from a catalog result,
// fetching current pricing and falling back to the rarity estimate when
// the catalog has none.
func (m *Manager) SelectCard(ctx context.Context, id string) (models.Card, error) {
	result, err := m.searcher.GetCard(ctx, id)
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to fetch card %s: %w", id, err)
	}

	card := result.Card
	if v := card.ResolvedValue(); v > 0 {
		card.MarketValue = v
	} else {
		card.EstimatedValue = models.EstimateValue(&card)
	}
	return card, nil
}

// Add inserts a card through the store and adopts the fresh collection.
func (m *Manager) Add(card models.Card) (models.Collection, error) {
	col, err := m.store.AddCard(card)
	if err != nil {
		return col, err
	}
	m.mu.Lock()
	m.view = col
	m.mu.Unlock()
	return col, nil
}

// Update applies a partial update through the store.
func (m *Manager) Update(id string, upd models.CardUpdate) (models.Collection, error) {
	col, err := m.store.UpdateCard(id, upd)
	if err != nil {
		return col, err
	}
	m.mu.Lock()
	m.view = col
	m.mu.Unlock()
	return col, nil
}

// Remove deletes a card through the store.
func (m *Manager) Remove(id string) (models.Collection, error) {
	col, err := m.store.RemoveCard(id)
	if err != nil {
		return col, err
	}
	m.mu.Lock()
	m.view = col
	m.mu.Unlock()
	return col, nil
}

// SetSort selects the sort column. Re-selecting the current column
// flips the direction; a new column starts ascending.
func (m *Manager) SetSort(key SortKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.sortKey {
		m.sortAsc = !m.sortAsc
	} else {
		m.sortKey = key
		m.sortAsc = true
	}
}

// Sort reports the current sort column and direction.
func (m *Manager) Sort() (SortKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortKey, m.sortAsc
}

// View applies the filter and current sort, then returns the requested
// page (1-based). pageSize <= 0 uses the configured default.
func (m *Manager) View(f Filter, page, pageSize int) Page {
	m.mu.Lock()
	cards := make([]models.Card, len(m.view.Cards))
	copy(cards, m.view.Cards)
	key, asc := m.sortKey, m.sortAsc
	m.mu.Unlock()

	cards = applyFilter(cards, f)
	sortCards(cards, key, asc)

	if pageSize <= 0 {
		pageSize = m.pageSize
	}
	total := len(cards)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Cards:      cards[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCards: total,
	}
}

// Suggest fuzzy-matches the search history against a partial term,
// best matches first.
func (m *Manager) Suggest(partial string) []string {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return nil
	}

	history := m.store.SearchHistory()
	terms := make([]string, len(history))
	for i, e := range history {
		terms[i] = e.Term
	}

	matches := fuzzy.Find(partial, terms)
	suggestions := make([]string, 0, maxSuggestions)
	for _, match := range matches {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

func applyFilter(cards []models.Card, f Filter) []models.Card {
	kept := cards[:0]
	for i := range cards {
		if matches(&cards[i], f) {
			kept = append(kept, cards[i])
		}
	}
	return kept
}

func matches(c *models.Card, f Filter) bool {
	if f.Name != "" && !containsFold(c.Name, f.Name) {
		return false
	}
	if f.Type != "" && !matchesType(c, f.Type) {
		return false
	}
	if f.Set != "" && !containsFold(c.SetName, f.Set) {
		return false
	}
	if f.Rarity != "" && !containsFold(c.Rarity, f.Rarity) {
		return false
	}
	if f.Condition != "" && !containsFold(string(c.Condition), f.Condition) {
		return false
	}
	if f.MinValue != nil || f.MaxValue != nil {
		// Range checks use the resolved market value only; the rarity
		// estimate is display metadata and never selects cards.
		v := c.ResolvedValue()
		if f.MinValue != nil && v < *f.MinValue {
			return false
		}
		if f.MaxValue != nil && v > *f.MaxValue {
			return false
		}
	}
	return true
}

// matchesType accepts either a membership match in the card's type list
// or an exact supertype match ("Pokémon", "Trainer", "Energy").
func matchesType(c *models.Card, typ string) bool {
	for _, t := range c.Types {
		if strings.EqualFold(t, typ) {
			return true
		}
	}
	return strings.EqualFold(c.Supertype, typ)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortCards(cards []models.Card, key SortKey, asc bool) {
	less := func(i, j int) bool { return cards[i].Name < cards[j].Name }
	switch key {
	case SortBySet:
		less = func(i, j int) bool {
			if cards[i].SetName != cards[j].SetName {
				return cards[i].SetName < cards[j].SetName
			}
			return cards[i].Name < cards[j].Name
		}
	case SortByValue:
		less = func(i, j int) bool { return cards[i].ResolvedValue() < cards[j].ResolvedValue() }
	case SortByRarity:
		less = func(i, j int) bool { return cards[i].Rarity < cards[j].Rarity }
	case SortByDate:
		less = func(i, j int) bool { return cards[i].AddedDate.Before(cards[j].AddedDate) }
	}

	if !asc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(cards, less)
}
