package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const searchPayload = `{
	"data": [
		{"id": "base1-58", "name": "Pikachu", "number": "58", "rarity": "Common",
		 "supertype": "Pokémon", "types": ["Lightning"],
		 "set": {"id": "base1", "name": "Base", "series": "Base", "releaseDate": "1999/01/09"}},
		{"id": "base1-4", "name": "Pikachu", "number": "4", "rarity": "Common",
		 "set": {"id": "base1", "name": "Base", "series": "Base", "releaseDate": "1999/01/09"}},
		{"id": "swsh4-44", "name": "Pikachu", "number": "44", "rarity": "Common",
		 "set": {"id": "swsh4", "name": "Vivid Voltage", "series": "Sword & Shield", "releaseDate": "2020/11/13"}}
	],
	"totalCount": 3
}`

func newTestClient(t *testing.T, handler http.Handler, ttl time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL, CacheTTL: ttl})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func TestSearchByNameGroupsAndSorts(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(searchPayload))
	}), time.Hour)

	result, err := client.SearchByName(context.Background(), "Pikachu")
	if err != nil {
		t.Fatalf("SearchByName failed: %v", err)
	}

	if result.Source != SourceAPI {
		t.Errorf("source = %q, want api", result.Source)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if len(result.Sets) != 2 {
		t.Fatalf("expected 2 set groups, got %d", len(result.Sets))
	}

	base := result.Sets["Base"]
	if base == nil {
		t.Fatal("missing Base set group")
	}
	if base.SetCode != "base1" {
		t.Errorf("set code = %q, want base1", base.SetCode)
	}
	// Numeric order, not lexicographic: 4 before 58.
	if base.Cards[0].Number != "4" || base.Cards[1].Number != "58" {
		t.Errorf("cards not in numeric order: %q, %q", base.Cards[0].Number, base.Cards[1].Number)
	}

	// Unpriced cards get an estimate.
	if base.Cards[0].EstimatedValue == 0 {
		t.Error("unpriced card should carry an estimated value")
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestSearchByNameServesFromCache(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(searchPayload))
	}), time.Hour)

	if _, err := client.SearchByName(context.Background(), "Pikachu"); err != nil {
		t.Fatal(err)
	}
	// Same name, different case and whitespace: same cache entry.
	result, err := client.SearchByName(context.Background(), "  pikachu ")
	if err != nil {
		t.Fatal(err)
	}

	if result.Source != SourceCache {
		t.Errorf("source = %q, want cache", result.Source)
	}
	if calls.Load() != 1 {
		t.Errorf("cached lookup hit the network: %d calls", calls.Load())
	}
}

func TestSearchByNameStaleFallback(t *testing.T) {
	var fail atomic.Bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(searchPayload))
	}), time.Nanosecond)

	// Populate the cache, then break the upstream. The entry is already
	// expired by the time of the second call.
	if _, err := client.SearchByName(context.Background(), "Pikachu"); err != nil {
		t.Fatal(err)
	}
	fail.Store(true)

	result, err := client.SearchByName(context.Background(), "Pikachu")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if result.Source != SourceStaleCache {
		t.Errorf("source = %q, want stale_cache", result.Source)
	}
	if result.Error == "" {
		t.Error("stale result should carry the fetch error")
	}
	if result.Total != 3 {
		t.Errorf("stale result lost data: total = %d", result.Total)
	}
}

func TestSearchByNameErrorWithoutCache(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), time.Hour)

	if _, err := client.SearchByName(context.Background(), "Pikachu"); err == nil {
		t.Error("expected an error with no cached fallback available")
	}
}

func TestSearchByNameEmptyNotCached(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": [], "totalCount": 0}`))
	}), time.Hour)

	result, err := client.SearchByName(context.Background(), "Zzyzx")
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != SourceAPIEmpty {
		t.Errorf("source = %q, want api_empty", result.Source)
	}

	// Empty results are not cached, so a retry hits the API again.
	if _, err := client.SearchByName(context.Background(), "Zzyzx"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("empty result should not be cached, got %d calls", calls.Load())
	}
}

func TestGetCard(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": {"id": "base1-4", "name": "Charizard", "number": "4",
			"rarity": "Rare Holo",
			"set": {"id": "base1", "name": "Base", "releaseDate": "1999/01/09"},
			"tcgplayer": {"url": "https://example.test", "prices": {"holofoil": {"market": 350.0}}}}}`))
	}), time.Hour)

	result, err := client.GetCard(context.Background(), "base1-4")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if result.Card.Name != "Charizard" {
		t.Errorf("name = %q", result.Card.Name)
	}
	if got := result.Card.ResolvedValue(); got != 350 {
		t.Errorf("resolved value = %v, want 350", got)
	}
	// Priced card keeps EstimatedValue at zero.
	if result.Card.EstimatedValue != 0 {
		t.Errorf("priced card should not carry an estimate, got %v", result.Card.EstimatedValue)
	}

	if _, err := client.GetCard(context.Background(), "base1-4"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("second lookup should come from cache, got %d calls", calls.Load())
	}
}

func TestListSets(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"id": "swsh4", "name": "Vivid Voltage", "series": "Sword & Shield",
			 "releaseDate": "2020/11/13", "total": 203,
			 "images": {"symbol": "https://example.test/symbol.png"}},
			{"id": "base1", "name": "Base", "series": "Base", "releaseDate": "1999/01/09", "total": 102}
		]}`))
	}), time.Hour)

	result, err := client.ListSets(context.Background())
	if err != nil {
		t.Fatalf("ListSets failed: %v", err)
	}
	if len(result.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(result.Sets))
	}
	if result.Sets[0].ID != "swsh4" || result.Sets[0].SymbolURL == "" {
		t.Errorf("unexpected first set: %+v", result.Sets[0])
	}
}

func TestCardsBySetSorted(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"id": "base1-10", "name": "Mewtwo", "number": "10",
			 "set": {"id": "base1", "name": "Base"}},
			{"id": "base1-2", "name": "Blastoise", "number": "2",
			 "set": {"id": "base1", "name": "Base"}}
		]}`))
	}), time.Hour)

	result, err := client.CardsBySet(context.Background(), "base1")
	if err != nil {
		t.Fatalf("CardsBySet failed: %v", err)
	}
	if result.Cards[0].Number != "2" || result.Cards[1].Number != "10" {
		t.Errorf("cards not sorted numerically: %q, %q", result.Cards[0].Number, result.Cards[1].Number)
	}
}

func TestClearCache(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(searchPayload))
	}), time.Hour)

	if _, err := client.SearchByName(context.Background(), "Pikachu"); err != nil {
		t.Fatal(err)
	}
	if client.Stats().Entries == 0 {
		t.Error("cache should have an entry after a fetch")
	}

	client.ClearCache()
	if client.Stats().Entries != 0 {
		t.Error("cache should be empty after clear")
	}

	if _, err := client.SearchByName(context.Background(), "Pikachu"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("lookup after clear should hit the network, got %d calls", calls.Load())
	}
}

func TestExtractNumber(t *testing.T) {
	cases := map[string]int{
		"58":        58,
		"4":         4,
		"58a":       58,
		"TG12/TG30": 12,
		"SWSH005":   5,
		"":          0,
		"promo":     0,
	}
	for in, want := range cases {
		if got := extractNumber(in); got != want {
			t.Errorf("extractNumber(%q) = %d, want %d", in, got, want)
		}
	}
}
