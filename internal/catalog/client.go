// Package catalog fetches card and set data from the Pokémon TCG API,
// with a time-bounded in-memory response cache and graceful fallback to
// stale cached data on network failure.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pokebinder/pokebinder/internal/metrics"
	"github.com/pokebinder/pokebinder/internal/models"
)

const (
	defaultBaseURL  = "https://api.pokemontcg.io/v2"
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
	defaultPageSize = 250
	setsPageSize    = 500

	cacheSize = 128
)

// Source tags where a response came from.
type Source string

const (
	SourceAPI        Source = "api"
	SourceAPIEmpty   Source = "api_empty"
	SourceCache      Source = "cache"
	SourceStaleCache Source = "stale_cache"
)

// SearchResult is a name search response with cards grouped by set.
type SearchResult struct {
	Name        string               `json:"name"`
	Sets        map[string]*SetGroup `json:"sets"`
	Total       int                  `json:"total"`
	LastUpdated time.Time            `json:"lastUpdated"`
	Source      Source               `json:"source"`
	Error       string               `json:"error,omitempty"`
}

// SetGroup holds the cards of one set, sorted by the numeric portion of
// the card number.
type SetGroup struct {
	SetName     string        `json:"setName"`
	SetCode     string        `json:"setCode"`
	Series      string        `json:"series,omitempty"`
	ReleaseDate string        `json:"releaseDate,omitempty"`
	Cards       []models.Card `json:"cards"`
}

// Set describes one catalog set.
type Set struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Total       int    `json:"total,omitempty"`
	SymbolURL   string `json:"symbolUrl,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

// CardResult is a single-card lookup with provenance.
type CardResult struct {
	Card   models.Card `json:"card"`
	Source Source      `json:"source"`
	Error  string      `json:"error,omitempty"`
}

// SetsResult lists all sets with provenance.
type SetsResult struct {
	Sets   []Set  `json:"sets"`
	Source Source `json:"source"`
	Error  string `json:"error,omitempty"`
}

// SetCardsResult lists the cards of one set with provenance.
type SetCardsResult struct {
	Cards  []models.Card `json:"cards"`
	Source Source        `json:"source"`
	Error  string        `json:"error,omitempty"`
}

// CacheStats summarizes the in-memory response cache.
type CacheStats struct {
	Entries int           `json:"entries"`
	TTL     time.Duration `json:"ttl"`
}

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	PageSize int
	Timeout  time.Duration
}

// Client is a Pokémon TCG API client. Each lookup consults the response
// cache first; a fresh entry short-circuits the request entirely, and
// any entry, however old, is served as a degraded fallback when the API
// call fails.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int

	searches *ttlCache[SearchResult]
	cards    *ttlCache[models.Card]
	sets     *ttlCache[[]Set]
	setCards *ttlCache[[]models.Card]
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	searches, err := newTTLCache[SearchResult](cacheSize, opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	cards, err := newTTLCache[models.Card](cacheSize, opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	sets, err := newTTLCache[[]Set](4, opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	setCards, err := newTTLCache[[]models.Card](cacheSize, opts.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		pageSize:   opts.PageSize,
		searches:   searches,
		cards:      cards,
		sets:       sets,
		setCards:   setCards,
	}, nil
}

// SearchByName fetches all cards matching a Pokémon name, grouped by
// set and sorted by card number within each set.
func (c *Client) SearchByName(ctx context.Context, name string) (*SearchResult, error) {
	key := "pokemon_" + strings.ToLower(strings.TrimSpace(name))

	if cached, state := c.searches.get(key); state == cacheFresh {
		metrics.CatalogCacheHits.Inc()
		metrics.CatalogRequestsTotal.WithLabelValues("search", string(SourceCache)).Inc()
		cached.Source = SourceCache
		return &cached, nil
	}
	metrics.CatalogCacheMisses.Inc()

	query := fmt.Sprintf(`name:"%s*"`, strings.TrimSpace(name))
	reqURL := fmt.Sprintf("%s/cards?q=%s&pageSize=%d&orderBy=set.name",
		c.baseURL, url.QueryEscape(query), c.pageSize)

	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		if cached, state := c.searches.get(key); state != cacheMiss {
			metrics.CatalogRequestsTotal.WithLabelValues("search", string(SourceStaleCache)).Inc()
			cached.Source = SourceStaleCache
			cached.Error = err.Error()
			return &cached, nil
		}
		metrics.CatalogRequestsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	if len(resp.Data) == 0 {
		metrics.CatalogRequestsTotal.WithLabelValues("search", string(SourceAPIEmpty)).Inc()
		return &SearchResult{
			Name:   name,
			Sets:   map[string]*SetGroup{},
			Source: SourceAPIEmpty,
		}, nil
	}

	result := SearchResult{
		Name:        name,
		Sets:        make(map[string]*SetGroup),
		LastUpdated: time.Now(),
	}
	for _, ac := range resp.Data {
		group, ok := result.Sets[ac.Set.Name]
		if !ok {
			group = &SetGroup{
				SetName:     ac.Set.Name,
				SetCode:     ac.Set.ID,
				Series:      ac.Set.Series,
				ReleaseDate: ac.Set.ReleaseDate,
			}
			result.Sets[ac.Set.Name] = group
		}
		group.Cards = append(group.Cards, toCard(ac))
		result.Total++
	}
	for _, group := range result.Sets {
		sortByNumber(group.Cards)
	}

	c.searches.put(key, result)
	metrics.CatalogRequestsTotal.WithLabelValues("search", string(SourceAPI)).Inc()
	result.Source = SourceAPI
	return &result, nil
}

// GetCard fetches a single card by catalog id.
func (c *Client) GetCard(ctx context.Context, id string) (*CardResult, error) {
	key := "card_" + strings.TrimSpace(id)

	if cached, state := c.cards.get(key); state == cacheFresh {
		metrics.CatalogCacheHits.Inc()
		metrics.CatalogRequestsTotal.WithLabelValues("card", string(SourceCache)).Inc()
		return &CardResult{Card: cached, Source: SourceCache}, nil
	}
	metrics.CatalogCacheMisses.Inc()

	reqURL := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var resp struct {
		Data apiCard `json:"data"`
	}
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		if cached, state := c.cards.get(key); state != cacheMiss {
			metrics.CatalogRequestsTotal.WithLabelValues("card", string(SourceStaleCache)).Inc()
			return &CardResult{Card: cached, Source: SourceStaleCache, Error: err.Error()}, nil
		}
		metrics.CatalogRequestsTotal.WithLabelValues("card", "error").Inc()
		return nil, err
	}

	card := toCard(resp.Data)
	c.cards.put(key, card)
	metrics.CatalogRequestsTotal.WithLabelValues("card", string(SourceAPI)).Inc()
	return &CardResult{Card: card, Source: SourceAPI}, nil
}

// ListSets fetches all sets, newest release first.
func (c *Client) ListSets(ctx context.Context) (*SetsResult, error) {
	const key = "allsets"

	if cached, state := c.sets.get(key); state == cacheFresh {
		metrics.CatalogCacheHits.Inc()
		metrics.CatalogRequestsTotal.WithLabelValues("sets", string(SourceCache)).Inc()
		return &SetsResult{Sets: cached, Source: SourceCache}, nil
	}
	metrics.CatalogCacheMisses.Inc()

	reqURL := fmt.Sprintf("%s/sets?pageSize=%d&orderBy=-releaseDate", c.baseURL, setsPageSize)

	var resp struct {
		Data []apiSet `json:"data"`
	}
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		if cached, state := c.sets.get(key); state != cacheMiss {
			metrics.CatalogRequestsTotal.WithLabelValues("sets", string(SourceStaleCache)).Inc()
			return &SetsResult{Sets: cached, Source: SourceStaleCache, Error: err.Error()}, nil
		}
		metrics.CatalogRequestsTotal.WithLabelValues("sets", "error").Inc()
		return nil, err
	}

	sets := make([]Set, len(resp.Data))
	for i, as := range resp.Data {
		sets[i] = Set{
			ID:          as.ID,
			Name:        as.Name,
			Series:      as.Series,
			ReleaseDate: as.ReleaseDate,
			Total:       as.Total,
			SymbolURL:   as.Images.Symbol,
			LogoURL:     as.Images.Logo,
		}
	}

	c.sets.put(key, sets)
	metrics.CatalogRequestsTotal.WithLabelValues("sets", string(SourceAPI)).Inc()
	return &SetsResult{Sets: sets, Source: SourceAPI}, nil
}

// CardsBySet fetches the cards of one set, sorted by card number.
func (c *Client) CardsBySet(ctx context.Context, setID string) (*SetCardsResult, error) {
	key := "set_" + strings.ToLower(strings.TrimSpace(setID))

	if cached, state := c.setCards.get(key); state == cacheFresh {
		metrics.CatalogCacheHits.Inc()
		metrics.CatalogRequestsTotal.WithLabelValues("set_cards", string(SourceCache)).Inc()
		return &SetCardsResult{Cards: cached, Source: SourceCache}, nil
	}
	metrics.CatalogCacheMisses.Inc()

	query := "set.id:" + setID
	reqURL := fmt.Sprintf("%s/cards?q=%s&pageSize=%d&orderBy=number",
		c.baseURL, url.QueryEscape(query), setsPageSize)

	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		if cached, state := c.setCards.get(key); state != cacheMiss {
			metrics.CatalogRequestsTotal.WithLabelValues("set_cards", string(SourceStaleCache)).Inc()
			return &SetCardsResult{Cards: cached, Source: SourceStaleCache, Error: err.Error()}, nil
		}
		metrics.CatalogRequestsTotal.WithLabelValues("set_cards", "error").Inc()
		return nil, err
	}

	cards := make([]models.Card, len(resp.Data))
	for i, ac := range resp.Data {
		cards[i] = toCard(ac)
	}
	sortByNumber(cards)

	c.setCards.put(key, cards)
	metrics.CatalogRequestsTotal.WithLabelValues("set_cards", string(SourceAPI)).Inc()
	return &SetCardsResult{Cards: cards, Source: SourceAPI}, nil
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.searches.purge()
	c.cards.purge()
	c.sets.purge()
	c.setCards.purge()
}

// Stats reports the current cache occupancy.
func (c *Client) Stats() CacheStats {
	return CacheStats{
		Entries: c.searches.len() + c.cards.len() + c.sets.len() + c.setCards.len(),
		TTL:     c.searches.ttl,
	}
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach catalog API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

type searchResponse struct {
	Data       []apiCard `json:"data"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
}

type apiCard struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Number     string                    `json:"number"`
	Rarity     string                    `json:"rarity"`
	Supertype  string                    `json:"supertype"`
	Types      []string                  `json:"types"`
	Set        apiSet                    `json:"set"`
	Images     apiImages                 `json:"images"`
	TCGPlayer  *models.TCGPlayerPricing  `json:"tcgplayer"`
	CardMarket *models.CardMarketPricing `json:"cardmarket"`
}

type apiSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Series      string    `json:"series"`
	ReleaseDate string    `json:"releaseDate"`
	Total       int       `json:"total"`
	Images      apiImages `json:"images"`
}

type apiImages struct {
	Small  string `json:"small"`
	Large  string `json:"large"`
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// toCard converts an API card to the domain model, filling the
// estimated value when the catalog has no market pricing at all.
func toCard(ac apiCard) models.Card {
	card := models.Card{
		ID:             ac.ID,
		Name:           ac.Name,
		Number:         ac.Number,
		SetName:        ac.Set.Name,
		SetCode:        ac.Set.ID,
		SetReleaseDate: ac.Set.ReleaseDate,
		Rarity:         ac.Rarity,
		Supertype:      ac.Supertype,
		Types:          ac.Types,
		ImageSmall:     ac.Images.Small,
		ImageLarge:     ac.Images.Large,
		TCGPlayer:      ac.TCGPlayer,
		CardMarket:     ac.CardMarket,
	}
	if card.TCGPlayer == nil && card.CardMarket == nil {
		card.EstimatedValue = models.EstimateValue(&card)
	}
	return card
}

// sortByNumber orders cards by the numeric portion of the card number,
// ascending; non-numeric text is ignored for sort purposes.
func sortByNumber(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return extractNumber(cards[i].Number) < extractNumber(cards[j].Number)
	})
}

// extractNumber pulls the first run of digits out of a card number like
// "TG12/TG30" or "58a". Returns 0 when there are none.
func extractNumber(number string) int {
	n := 0
	seen := false
	for _, r := range number {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			seen = true
		} else if seen {
			break
		}
	}
	return n
}
